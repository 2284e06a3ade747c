package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Fine status values. Transitions are one-way:
// outstanding/overdue -> paid or waived (terminal).
const (
	FineStatusOutstanding = "outstanding"
	FineStatusPaid        = "paid"
	FineStatusWaived      = "waived"
	FineStatusOverdue     = "overdue"
)

type Fine struct {
	ID            string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID        string    `gorm:"type:uuid;not null;index" json:"user_id"`
	TransactionID string    `gorm:"type:uuid;not null;index" json:"transaction_id"`
	Amount        float64   `gorm:"not null" json:"amount"`
	Reason        string    `gorm:"not null" json:"reason"`
	Status        string    `gorm:"default:'outstanding';not null;index" json:"status"`
	DueDate       time.Time `gorm:"not null" json:"due_date"`

	PaidDate      *time.Time `json:"paid_date,omitempty"`
	PaymentMethod string     `json:"payment_method,omitempty"`
	PaymentNotes  string     `json:"payment_notes,omitempty"`

	WaivedBy     string     `gorm:"type:uuid" json:"waived_by,omitempty"` // empty for return-time auto-waivers
	WaivedReason string     `json:"waived_reason,omitempty"`
	WaivedAt     *time.Time `json:"waived_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (f *Fine) BeforeCreate(tx *gorm.DB) (err error) {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	return
}

func (Fine) TableName() string {
	return "fines"
}

// IsPayable reports whether the fine still carries a payment obligation.
func (f *Fine) IsPayable() bool {
	return f.Status == FineStatusOutstanding || f.Status == FineStatusOverdue
}
