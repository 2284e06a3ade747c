package dto

// PayFineRequest: payload for settling fines at the desk
type PayFineRequest struct {
	Amount        float64  `json:"amount" binding:"required,gt=0"`
	PaymentMethod string   `json:"payment_method" binding:"required,oneof=cash credit_card debit_card online check"`
	FineIDs       []string `json:"fine_ids" binding:"omitempty,dive,uuid"`
	Notes         string   `json:"notes"`
}

// WaiveFineRequest: payload for waiving fines by administrative decision.
// Either an amount or explicit fine IDs must be given.
type WaiveFineRequest struct {
	Amount  float64  `json:"amount" binding:"omitempty,gt=0"`
	FineIDs []string `json:"fine_ids" binding:"omitempty,dive,uuid"`
	Reason  string   `json:"reason" binding:"required,min=5"`
}

// FineReportQuery: query parameters for the fines report
type FineReportQuery struct {
	Start string `form:"start" binding:"required"` // YYYY-MM-DD
	End   string `form:"end" binding:"required"`   // YYYY-MM-DD
}
