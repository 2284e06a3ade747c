package service

import (
	"testing"
	"time"

	"libraryhub/internal/config"

	"github.com/stretchr/testify/assert"
)

func standardFinePolicy() config.FinePolicy {
	return config.FinePolicy{
		RatePerDay:          5,
		DailyCap:            10,
		MaxFine:             50,
		GracePeriodDays:     3,
		FineDueDays:         30,
		WaiverLimitPerMonth: 3,
		DamageTable:         config.DefaultDamageTable(),
	}
}

func TestDaysOverdue(t *testing.T) {
	due := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		returned time.Time
		expected int
	}{
		{"on time", due, 0},
		{"early", due.Add(-48 * time.Hour), 0},
		{"one hour late rounds up", due.Add(time.Hour), 1},
		{"exactly one day", due.Add(24 * time.Hour), 1},
		{"one day and a minute", due.Add(24*time.Hour + time.Minute), 2},
		{"ten days", due.Add(240 * time.Hour), 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DaysOverdue(due, tt.returned))
		})
	}
}

func TestCalculateLateFine(t *testing.T) {
	policy := standardFinePolicy()
	due := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		daysLate int
		expected float64
	}{
		{"on time", 0, 0},
		{"inside grace", 2, 0},
		{"last grace day", 3, 0},
		{"first billable day", 4, 5},
		{"two billable days", 5, 10},
		{"ten billable days hits max", 13, 50},
		{"far past max stays capped", 120, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			returned := due.Add(time.Duration(tt.daysLate) * 24 * time.Hour)
			assert.Equal(t, tt.expected, CalculateLateFine(policy, due, returned))
		})
	}
}

func TestCalculateLateFine_DailyCapBindsWhenRateExceedsIt(t *testing.T) {
	policy := standardFinePolicy()
	policy.RatePerDay = 25
	policy.MaxFine = 1000
	due := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	// 5 billable days at min(25, 10) per day.
	returned := due.Add(8 * 24 * time.Hour)
	assert.Equal(t, 50.0, CalculateLateFine(policy, due, returned))
}

func TestDamageFineTable(t *testing.T) {
	policy := standardFinePolicy()

	assert.Equal(t, 0.0, policy.DamageFine("excellent"))
	assert.Equal(t, 0.0, policy.DamageFine("good"))
	assert.Equal(t, 5.0, policy.DamageFine("fair"))
	assert.Equal(t, 15.0, policy.DamageFine("poor"))
	assert.Equal(t, 30.0, policy.DamageFine("damaged"))
	assert.Equal(t, 50.0, policy.DamageFine("lost"))
}

func TestDamageFine_AlternateTable(t *testing.T) {
	policy := standardFinePolicy()
	policy.DamageTable = map[string]float64{"lost": 120}

	assert.Equal(t, 120.0, policy.DamageFine("lost"))
	assert.Equal(t, 0.0, policy.DamageFine("damaged"))
}
