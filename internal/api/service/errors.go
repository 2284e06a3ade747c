package service

import (
	"fmt"
	"time"
)

// Failure kinds surfaced by the services. Handlers translate these to HTTP
// status codes; the messages come straight back to the caller.
var (
	// Not found
	ErrBookNotFound        = fmt.Errorf("book not found")
	ErrUserNotFound        = fmt.Errorf("user not found")
	ErrTransactionNotFound = fmt.Errorf("transaction not found")
	ErrFineNotFound        = fmt.Errorf("fine not found")

	// Conflicts
	ErrDuplicateISBN           = fmt.Errorf("isbn already exists")
	ErrDuplicateIdentification = fmt.Errorf("identification code already exists")
	ErrDuplicateEmail          = fmt.Errorf("email already exists")
	ErrAlreadyBorrowed         = fmt.Errorf("user already has this book borrowed")
	ErrAlreadyReturned         = fmt.Errorf("book already returned")

	// Borrow preconditions
	ErrNoCopiesAvailable  = fmt.Errorf("no copies available for borrowing")
	ErrUserNotActive      = fmt.Errorf("account is not active")
	ErrCredentialExpired  = fmt.Errorf("student ID has expired, cannot borrow books")
	ErrOutstandingFines   = fmt.Errorf("user has outstanding fines, cannot borrow books")
	ErrBorrowLimitReached = fmt.Errorf("borrow limit reached")
	ErrInvalidDueDate     = fmt.Errorf("due date must be in the future and within the loan ceiling")

	// Payment / waiver preconditions
	ErrNoOutstandingFines    = fmt.Errorf("user has no outstanding fines")
	ErrInvalidAmount         = fmt.Errorf("payment amount must be greater than zero")
	ErrOverpaymentNotAllowed = fmt.Errorf("payment amount exceeds outstanding balance")
	ErrInsufficientPayment   = fmt.Errorf("payment amount does not cover the selected fines")
	ErrWaiverLimitExceeded   = fmt.Errorf("monthly waiver limit exceeded")
	ErrWaiverExceedsFines    = fmt.Errorf("waiver amount exceeds outstanding fines")
	ErrInvalidWaiverReason   = fmt.Errorf("a meaningful waiver reason is required")

	// Catalog preconditions
	ErrTotalBelowBorrowed = fmt.Errorf("cannot reduce total copies below currently borrowed copies")

	// Auth
	ErrInvalidCredentials = fmt.Errorf("invalid identification code or password")
	ErrAccountNotVerified = fmt.Errorf("account is not verified")
	ErrInvalidToken       = fmt.Errorf("invalid token")
	ErrInvalidOTP         = fmt.Errorf("invalid or expired OTP")
	ErrInvalidQRCode      = fmt.Errorf("invalid QR code format")
)

// ActiveBorrower describes one blocking borrow on a book that an admin tried
// to delete permanently.
type ActiveBorrower struct {
	UserID             string    `json:"user_id"`
	FullName           string    `json:"full_name"`
	IdentificationCode string    `json:"identification_code"`
	Email              string    `json:"email"`
	BorrowDate         time.Time `json:"borrow_date"`
	DueDate            time.Time `json:"due_date"`
	Status             string    `json:"status"`
	DaysOverdue        int       `json:"days_overdue"`
}

// ActiveBorrowsError blocks permanent deletion of a book while copies are
// still out, carrying the blocking records for the caller.
type ActiveBorrowsError struct {
	BookTitle  string           `json:"book_title"`
	BookAuthor string           `json:"book_author"`
	Count      int              `json:"count"`
	Borrowers  []ActiveBorrower `json:"borrowers"`
}

func (e *ActiveBorrowsError) Error() string {
	return fmt.Sprintf("book %q has %d active borrow(s)", e.BookTitle, e.Count)
}
