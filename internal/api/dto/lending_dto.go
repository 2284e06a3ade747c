package dto

import "time"

// BorrowRequest: payload for checking a book out. due_date is optional; the
// default loan period applies when it is omitted.
type BorrowRequest struct {
	UserID  string     `json:"user_id" binding:"required,uuid"`
	BookID  string     `json:"book_id" binding:"required,uuid"`
	DueDate *time.Time `json:"due_date"`
}

// ReturnRequest: payload for checking a book back in
type ReturnRequest struct {
	Condition string `json:"condition" binding:"omitempty,oneof=excellent good fair poor damaged lost"`
	Notes     string `json:"notes"`
	WaiveFine bool   `json:"waive_fine"`
}

// BulkReturnRequest: payload for returning several transactions at once
type BulkReturnRequest struct {
	TransactionIDs []string `json:"transaction_ids" binding:"required,min=1,dive,uuid"`
	Condition      string   `json:"condition" binding:"omitempty,oneof=excellent good fair poor damaged lost"`
	Notes          string   `json:"notes"`
	WaiveFine      bool     `json:"waive_fine"`
}
