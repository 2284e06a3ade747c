package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"libraryhub/internal/api/models"
	"libraryhub/internal/api/repository"
	"libraryhub/internal/config"
	"libraryhub/internal/mailer"

	"gorm.io/gorm"
)

// ReturnOptions carries the optional inputs of a return.
type ReturnOptions struct {
	Condition string // defaults to "good"
	Notes     string
	WaiveFine bool // waive the late portion (never the damage portion)
}

// ReturnResult reports what a return did.
type ReturnResult struct {
	Transaction *models.Transaction `json:"transaction"`
	FineAmount  float64             `json:"fine_amount"` // late + damage
	DamageFine  float64             `json:"damage_fine"`
	FineWaived  bool                `json:"fine_waived"`
	IsOverdue   bool                `json:"is_overdue"`
}

// BulkReturnItem is the per-unit outcome of a bulk return. Units are
// independent: one failure neither blocks nor rolls back the others.
type BulkReturnItem struct {
	TransactionID string        `json:"transaction_id"`
	Result        *ReturnResult `json:"result,omitempty"`
	Error         string        `json:"error,omitempty"`
}

type LendingService interface {
	Borrow(ctx context.Context, bookID, userID string, dueDate *time.Time) (*models.Transaction, error)
	Return(ctx context.Context, transactionID string, opts ReturnOptions) (*ReturnResult, error)
	BulkReturn(ctx context.Context, transactionIDs []string, opts ReturnOptions) []BulkReturnItem
	GetTransaction(ctx context.Context, transactionID string) (*models.Transaction, error)
	ListUserTransactions(ctx context.Context, userID string) ([]models.Transaction, error)
}

type lendingService struct {
	atomic  repository.Atomic
	repos   repository.Repositories
	lending config.LendingPolicy
	fines   config.FinePolicy
	mailer  mailer.Mailer
	logger  *slog.Logger
	now     func() time.Time
}

func NewLendingService(
	atomic repository.Atomic,
	repos repository.Repositories,
	lending config.LendingPolicy,
	fines config.FinePolicy,
	m mailer.Mailer,
	logger *slog.Logger,
) LendingService {
	return &lendingService{
		atomic:  atomic,
		repos:   repos,
		lending: lending,
		fines:   fines,
		mailer:  m,
		logger:  logger,
		now:     time.Now,
	}
}

// Borrow checks every precondition in order, then creates the transaction,
// takes one copy and mirrors the borrow onto the user, all in one database
// transaction.
func (s *lendingService) Borrow(ctx context.Context, bookID, userID string, dueDate *time.Time) (*models.Transaction, error) {
	var transaction *models.Transaction

	err := s.atomic.InTx(ctx, func(tx repository.Repositories) error {
		now := s.now()

		book, err := tx.Books.FindByID(ctx, bookID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookNotFound
			}
			return err
		}
		if !book.IsActive {
			return ErrBookNotFound
		}
		if book.AvailableCopies < 1 {
			return ErrNoCopiesAvailable
		}

		user, err := tx.Users.FindByID(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		if user.Status != models.UserStatusActive {
			return ErrUserNotActive
		}
		if !user.IDExpiration.After(now) {
			return ErrCredentialExpired
		}
		// Any nonzero balance blocks borrowing, not just overdue fines.
		if user.Fines > 0 {
			return ErrOutstandingFines
		}

		openCount, err := tx.Users.CountOpenBorrows(ctx, userID)
		if err != nil {
			return err
		}
		if openCount >= int64(s.lending.MaxBorrowedBooks) {
			return ErrBorrowLimitReached
		}

		hasOpen, err := tx.Users.HasOpenBorrow(ctx, userID, bookID)
		if err != nil {
			return err
		}
		if hasOpen {
			return ErrAlreadyBorrowed
		}

		due := now.AddDate(0, 0, s.lending.DefaultLoanDays)
		if dueDate != nil {
			ceiling := now.AddDate(0, 0, s.lending.MaxLoanDays)
			if !dueDate.After(now) || dueDate.After(ceiling) {
				return ErrInvalidDueDate
			}
			due = *dueDate
		}

		// The guarded decrement is the authoritative availability check:
		// when two borrows race for the last copy, the loser fails here.
		took, err := tx.Books.DecrementAvailable(ctx, bookID)
		if err != nil {
			return err
		}
		if !took {
			return ErrNoCopiesAvailable
		}

		transaction = &models.Transaction{
			UserID:     userID,
			BookID:     bookID,
			BorrowDate: now,
			DueDate:    due,
			Status:     models.TransactionStatusBorrowed,
		}
		if err := tx.Transactions.Create(ctx, transaction); err != nil {
			return err
		}

		return tx.Users.AddBorrowedBook(ctx, &models.BorrowedBook{
			UserID:        userID,
			BookID:        bookID,
			TransactionID: transaction.ID,
			BorrowDate:    now,
			DueDate:       due,
			Status:        models.TransactionStatusBorrowed,
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("book borrowed",
		"book_id", bookID,
		"user_id", userID,
		"transaction_id", transaction.ID,
		"due_date", transaction.DueDate,
	)
	return transaction, nil
}

// Return closes a transaction, gives the copy back, computes the fine from
// the policy table and keeps the user's denormalized balance in sync.
func (s *lendingService) Return(ctx context.Context, transactionID string, opts ReturnOptions) (*ReturnResult, error) {
	condition := opts.Condition
	if condition == "" {
		condition = models.ConditionGood
	}

	var result ReturnResult

	err := s.atomic.InTx(ctx, func(tx repository.Repositories) error {
		transaction, err := tx.Transactions.FindByID(ctx, transactionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTransactionNotFound
			}
			return err
		}
		if transaction.ReturnDate != nil || transaction.Status == models.TransactionStatusReturned {
			return ErrAlreadyReturned
		}

		returnedAt := s.now()
		daysOverdue := DaysOverdue(transaction.DueDate, returnedAt)
		isOverdue := daysOverdue > 0
		lateFine := CalculateLateFine(s.fines, transaction.DueDate, returnedAt)
		damageFine := s.fines.DamageFine(condition)
		waived := opts.WaiveFine && isOverdue && lateFine > 0

		status := models.TransactionStatusReturned
		if isOverdue {
			status = models.TransactionStatusOverdue
		}

		transaction.ReturnDate = &returnedAt
		transaction.Status = status
		transaction.FineAmount = lateFine + damageFine
		transaction.Condition = condition
		transaction.Notes = opts.Notes
		if err := tx.Transactions.Update(ctx, transaction); err != nil {
			return err
		}

		if err := tx.Books.IncrementAvailable(ctx, transaction.BookID); err != nil {
			return err
		}
		if err := tx.Users.CloseBorrowedBook(ctx, transaction.ID, status, returnedAt); err != nil {
			return err
		}

		fineDue := returnedAt.AddDate(0, 0, s.fines.FineDueDays)
		var outstanding float64

		if waived {
			// The waived late portion and the damage portion get separate
			// rows: their statuses diverge, and user.fines must stay equal
			// to the sum of outstanding rows.
			waivedReason := fmt.Sprintf("Overdue return, %d day(s) late; waived at return", daysOverdue)
			if err := tx.Fines.Create(ctx, &models.Fine{
				UserID:        transaction.UserID,
				TransactionID: transaction.ID,
				Amount:        lateFine,
				Reason:        waivedReason,
				Status:        models.FineStatusWaived,
				DueDate:       fineDue,
				WaivedReason:  waivedReason,
				WaivedAt:      &returnedAt,
			}); err != nil {
				return err
			}
			if damageFine > 0 {
				if err := tx.Fines.Create(ctx, &models.Fine{
					UserID:        transaction.UserID,
					TransactionID: transaction.ID,
					Amount:        damageFine,
					Reason:        fmt.Sprintf("Returned in %s condition", condition),
					Status:        models.FineStatusOutstanding,
					DueDate:       fineDue,
				}); err != nil {
					return err
				}
				outstanding = damageFine
			}
		} else if lateFine+damageFine > 0 {
			if err := tx.Fines.Create(ctx, &models.Fine{
				UserID:        transaction.UserID,
				TransactionID: transaction.ID,
				Amount:        lateFine + damageFine,
				Reason:        returnFineReason(daysOverdue, lateFine, damageFine, condition),
				Status:        models.FineStatusOutstanding,
				DueDate:       fineDue,
			}); err != nil {
				return err
			}
			outstanding = lateFine + damageFine
		}

		if outstanding > 0 {
			if err := tx.Users.AdjustFines(ctx, transaction.UserID, outstanding); err != nil {
				return err
			}
		}

		result = ReturnResult{
			Transaction: transaction,
			FineAmount:  lateFine + damageFine,
			DamageFine:  damageFine,
			FineWaived:  waived,
			IsOverdue:   isOverdue,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("book returned",
		"transaction_id", transactionID,
		"fine_amount", result.FineAmount,
		"fine_waived", result.FineWaived,
		"is_overdue", result.IsOverdue,
	)

	// Return confirmation is best-effort and must not block the response.
	if result.Transaction.User != nil {
		user, book := result.Transaction.User, result.Transaction.Book
		amount := result.FineAmount
		go func() {
			title := ""
			if book != nil {
				title = book.Title
			}
			if err := s.mailer.SendReturnConfirmation(context.Background(), user.Email, user.FullName, title, amount); err != nil {
				s.logger.Warn("return confirmation mail failed", "user_id", user.ID, "error", err)
			}
		}()
	}

	return &result, nil
}

// BulkReturn runs each return independently and reports per-item outcomes.
func (s *lendingService) BulkReturn(ctx context.Context, transactionIDs []string, opts ReturnOptions) []BulkReturnItem {
	items := make([]BulkReturnItem, 0, len(transactionIDs))
	for _, id := range transactionIDs {
		item := BulkReturnItem{TransactionID: id}
		result, err := s.Return(ctx, id, opts)
		if err != nil {
			item.Error = err.Error()
		} else {
			item.Result = result
		}
		items = append(items, item)
	}
	return items
}

func (s *lendingService) GetTransaction(ctx context.Context, transactionID string) (*models.Transaction, error) {
	transaction, err := s.repos.Transactions.FindByID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return transaction, nil
}

func (s *lendingService) ListUserTransactions(ctx context.Context, userID string) ([]models.Transaction, error) {
	if _, err := s.repos.Users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return s.repos.Transactions.ListByUser(ctx, userID)
}

func returnFineReason(daysOverdue int, lateFine, damageFine float64, condition string) string {
	switch {
	case lateFine > 0 && damageFine > 0:
		return fmt.Sprintf("Overdue return, %d day(s) late; returned in %s condition", daysOverdue, condition)
	case lateFine > 0:
		return fmt.Sprintf("Overdue return, %d day(s) late", daysOverdue)
	default:
		return fmt.Sprintf("Returned in %s condition", condition)
	}
}
