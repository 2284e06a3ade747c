package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Payment methods accepted at the fines desk.
const (
	PaymentMethodCash       = "cash"
	PaymentMethodCreditCard = "credit_card"
	PaymentMethodDebitCard  = "debit_card"
	PaymentMethodOnline     = "online"
	PaymentMethodCheck      = "check"
)

// FinePayment is an append-only receipt, created once per payment operation.
type FinePayment struct {
	ID            string  `gorm:"primaryKey;type:uuid" json:"id"`
	ReceiptNumber string  `gorm:"uniqueIndex;not null" json:"receipt_number"`
	UserID        string  `gorm:"type:uuid;not null;index" json:"user_id"`
	Amount        float64 `gorm:"not null" json:"amount"`
	PaymentMethod string  `gorm:"not null" json:"payment_method"`
	Notes         string  `json:"notes,omitempty"`

	// PaidFines references the fines this payment settled. Empty for bulk
	// on-account payments, which only reduce the user's balance.
	PaidFines []Fine `gorm:"many2many:fine_payment_fines" json:"paid_fines,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// BeforeCreate sets the UUID and generates the receipt number.
func (p *FinePayment) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.ReceiptNumber == "" {
		p.ReceiptNumber = fmt.Sprintf("RCP-%d-%s", time.Now().UnixMilli(), p.ID[:8])
	}
	return
}

func (FinePayment) TableName() string {
	return "fine_payments"
}
