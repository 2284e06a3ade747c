package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Transaction status values
const (
	TransactionStatusBorrowed = "borrowed"
	TransactionStatusReturned = "returned"
	TransactionStatusOverdue  = "overdue"
)

// Book return conditions accepted by the return flow.
const (
	ConditionExcellent = "excellent"
	ConditionGood      = "good"
	ConditionFair      = "fair"
	ConditionPoor      = "poor"
	ConditionDamaged   = "damaged"
	ConditionLost      = "lost"
)

// Transaction is one borrow event. Created on borrow, mutated exactly once on
// return, never deleted.
type Transaction struct {
	ID         string     `gorm:"primaryKey;type:uuid" json:"id"`
	UserID     string     `gorm:"type:uuid;not null;index" json:"user_id"`
	BookID     string     `gorm:"type:uuid;not null;index" json:"book_id"`
	BorrowDate time.Time  `gorm:"not null" json:"borrow_date"`
	DueDate    time.Time  `gorm:"not null" json:"due_date"`
	ReturnDate *time.Time `json:"return_date,omitempty"`
	Status     string     `gorm:"default:'borrowed';not null;index" json:"status"`
	FineAmount float64    `gorm:"default:0;not null" json:"fine_amount"` // snapshot taken at return time
	Condition  string     `json:"condition,omitempty"`
	Notes      string     `json:"notes,omitempty"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Book *Book `gorm:"foreignKey:BookID" json:"book,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	return
}

func (Transaction) TableName() string {
	return "transactions"
}

// IsOpen reports whether the book has not been returned yet.
func (t *Transaction) IsOpen() bool {
	return t.ReturnDate == nil
}
