package service

import (
	"math"
	"time"

	"libraryhub/internal/config"
)

// DaysOverdue returns how many days late a return is, rounded up. Zero or
// negative when the book came back on time.
func DaysOverdue(dueDate, returnDate time.Time) int {
	if !returnDate.After(dueDate) {
		return 0
	}
	return int(math.Ceil(returnDate.Sub(dueDate).Hours() / 24))
}

// CalculateLateFine computes the late portion of a return fine from the
// policy table. Days inside the grace period cost nothing; beyond it, each
// effective day accrues the per-day rate bounded by the daily cap, and the
// whole fine is bounded by the policy maximum.
func CalculateLateFine(policy config.FinePolicy, dueDate, returnDate time.Time) float64 {
	daysOverdue := DaysOverdue(dueDate, returnDate)
	if daysOverdue <= policy.GracePeriodDays {
		return 0
	}

	effectiveDays := float64(daysOverdue - policy.GracePeriodDays)
	fine := math.Min(effectiveDays*policy.RatePerDay, effectiveDays*policy.DailyCap)
	return math.Min(fine, policy.MaxFine)
}
