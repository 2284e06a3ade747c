package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"libraryhub/internal/api/models"
	"libraryhub/internal/api/repository"
	"libraryhub/internal/config"

	"gorm.io/gorm"
)

// PaymentResult reports what a payment settled.
type PaymentResult struct {
	Receipt   *models.FinePayment `json:"receipt"`
	PaidFines []models.Fine       `json:"paid_fines"`
	Remaining float64             `json:"remaining"`
}

// WaiverResult reports what a waiver cancelled.
type WaiverResult struct {
	AmountWaived float64       `json:"amount_waived"`
	WaivedFines  []models.Fine `json:"waived_fines"`
}

// FineReportSummary aggregates fines created in a period.
type FineReportSummary struct {
	TotalFines        int     `json:"total_fines"`
	TotalAmount       float64 `json:"total_amount"`
	PaidFines         int     `json:"paid_fines"`
	PaidAmount        float64 `json:"paid_amount"`
	WaivedFines       int     `json:"waived_fines"`
	WaivedAmount      float64 `json:"waived_amount"`
	OutstandingFines  int     `json:"outstanding_fines"`
	OutstandingAmount float64 `json:"outstanding_amount"`
}

type FineReport struct {
	Summary FineReportSummary `json:"summary"`
	Fines   []models.Fine     `json:"fines"`
	Start   time.Time         `json:"start"`
	End     time.Time         `json:"end"`
}

type FineService interface {
	PayFine(ctx context.Context, userID string, amount float64, method string, fineIDs []string, notes string) (*PaymentResult, error)
	WaiveFine(ctx context.Context, userID string, amount float64, fineIDs []string, reason, adminID string) (*WaiverResult, error)
	// ValidateWaiverEligibility is the read-only precondition oracle for
	// WaiveFine: safe to call repeatedly, mutates nothing.
	ValidateWaiverEligibility(ctx context.Context, userID string, amount float64, fineIDs []string) error
	ListUserFines(ctx context.Context, userID string) ([]models.Fine, error)
	ListUserPayments(ctx context.Context, userID string) ([]models.FinePayment, error)
	Report(ctx context.Context, start, end time.Time) (*FineReport, error)
}

type fineService struct {
	atomic repository.Atomic
	repos  repository.Repositories
	policy config.FinePolicy
	logger *slog.Logger
	now    func() time.Time
}

func NewFineService(atomic repository.Atomic, repos repository.Repositories, policy config.FinePolicy, logger *slog.Logger) FineService {
	return &fineService{
		atomic: atomic,
		repos:  repos,
		policy: policy,
		logger: logger,
		now:    time.Now,
	}
}

// PayFine settles fines against the user's balance. Targeting specific fines
// marks them paid; a bulk on-account payment only reduces the balance and
// leaves individual fine rows untouched. Either way exactly one receipt is
// written.
func (s *fineService) PayFine(ctx context.Context, userID string, amount float64, method string, fineIDs []string, notes string) (*PaymentResult, error) {
	var result PaymentResult

	err := s.atomic.InTx(ctx, func(tx repository.Repositories) error {
		user, err := tx.Users.FindByID(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		if user.Fines <= 0 {
			return ErrNoOutstandingFines
		}
		if amount <= 0 {
			return ErrInvalidAmount
		}
		if amount > user.Fines {
			return ErrOverpaymentNotAllowed
		}

		var paid []models.Fine
		if len(fineIDs) > 0 {
			fines, err := tx.Fines.FindPayableByIDs(ctx, userID, fineIDs)
			if err != nil {
				return err
			}
			if len(fines) != len(fineIDs) {
				return ErrFineNotFound
			}
			var targeted float64
			for _, fine := range fines {
				targeted += fine.Amount
			}
			if amount < targeted {
				return ErrInsufficientPayment
			}

			paidAt := s.now()
			for i := range fines {
				fines[i].Status = models.FineStatusPaid
				fines[i].PaidDate = &paidAt
				fines[i].PaymentMethod = method
				fines[i].PaymentNotes = notes
				if err := tx.Fines.Update(ctx, &fines[i]); err != nil {
					return err
				}
			}
			paid = fines
		}

		if err := tx.Users.AdjustFines(ctx, userID, -amount); err != nil {
			return err
		}

		receipt := &models.FinePayment{
			UserID:        userID,
			Amount:        amount,
			PaymentMethod: method,
			Notes:         notes,
			PaidFines:     paid,
		}
		if err := tx.Payments.Create(ctx, receipt); err != nil {
			return err
		}

		remaining := user.Fines - amount
		if remaining < 0 {
			remaining = 0
		}
		result = PaymentResult{Receipt: receipt, PaidFines: paid, Remaining: remaining}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("fine payment recorded",
		"user_id", userID,
		"amount", amount,
		"receipt", result.Receipt.ReceiptNumber,
		"fines_settled", len(result.PaidFines),
	)
	return &result, nil
}

// WaiveFine cancels fines by administrative decision. With explicit fine IDs
// each is waived in full. With an amount only, payable fines are consumed
// oldest due date first; a fine only partially covered is split so the
// uncovered remainder stays outstanding.
func (s *fineService) WaiveFine(ctx context.Context, userID string, amount float64, fineIDs []string, reason, adminID string) (*WaiverResult, error) {
	if !isMeaningfulReason(reason) {
		return nil, ErrInvalidWaiverReason
	}

	var result WaiverResult

	err := s.atomic.InTx(ctx, func(tx repository.Repositories) error {
		targeted, err := s.checkWaiverEligibility(ctx, tx, userID, amount, fineIDs)
		if err != nil {
			return err
		}

		waivedAt := s.now()
		var waived []models.Fine
		var waivedTotal float64

		if len(fineIDs) > 0 {
			for i := range targeted {
				targeted[i].Status = models.FineStatusWaived
				targeted[i].WaivedBy = adminID
				targeted[i].WaivedReason = reason
				targeted[i].WaivedAt = &waivedAt
				if err := tx.Fines.Update(ctx, &targeted[i]); err != nil {
					return err
				}
				waivedTotal += targeted[i].Amount
			}
			waived = targeted
		} else {
			budget := amount
			for i := range targeted {
				if budget <= 0 {
					break
				}
				fine := targeted[i]

				if fine.Amount > budget {
					// Split: the uncovered remainder becomes a fresh
					// outstanding fine so total accounting is preserved
					// exactly.
					remainder := &models.Fine{
						UserID:        fine.UserID,
						TransactionID: fine.TransactionID,
						Amount:        fine.Amount - budget,
						Reason:        fine.Reason,
						Status:        models.FineStatusOutstanding,
						DueDate:       fine.DueDate,
					}
					if err := tx.Fines.Create(ctx, remainder); err != nil {
						return err
					}
					fine.Amount = budget
				}

				fine.Status = models.FineStatusWaived
				fine.WaivedBy = adminID
				fine.WaivedReason = reason
				fine.WaivedAt = &waivedAt
				if err := tx.Fines.Update(ctx, &fine); err != nil {
					return err
				}
				waivedTotal += fine.Amount
				budget -= fine.Amount
				waived = append(waived, fine)
			}
		}

		if err := tx.Users.AdjustFines(ctx, userID, -waivedTotal); err != nil {
			return err
		}

		result = WaiverResult{AmountWaived: waivedTotal, WaivedFines: waived}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("fines waived",
		"user_id", userID,
		"admin_id", adminID,
		"amount_waived", result.AmountWaived,
		"fines_waived", len(result.WaivedFines),
	)
	return &result, nil
}

func (s *fineService) ValidateWaiverEligibility(ctx context.Context, userID string, amount float64, fineIDs []string) error {
	_, err := s.checkWaiverEligibility(ctx, s.repos, userID, amount, fineIDs)
	return err
}

// checkWaiverEligibility verifies every waiver precondition and returns the
// fines the waiver will operate on: the targeted fines when IDs were given,
// otherwise the user's payable fines oldest due date first.
func (s *fineService) checkWaiverEligibility(ctx context.Context, tx repository.Repositories, userID string, amount float64, fineIDs []string) ([]models.Fine, error) {
	user, err := tx.Users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if user.Fines <= 0 {
		return nil, ErrNoOutstandingFines
	}

	now := s.now()
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	waiverCount, err := tx.Fines.CountWaivedSince(ctx, userID, startOfMonth)
	if err != nil {
		return nil, err
	}
	if waiverCount >= int64(s.policy.WaiverLimitPerMonth) {
		return nil, ErrWaiverLimitExceeded
	}

	if len(fineIDs) > 0 {
		fines, err := tx.Fines.FindPayableByIDs(ctx, userID, fineIDs)
		if err != nil {
			return nil, err
		}
		if len(fines) != len(fineIDs) {
			return nil, ErrFineNotFound
		}
		var total float64
		for _, fine := range fines {
			total += fine.Amount
		}
		if amount > 0 && amount > total {
			return nil, ErrWaiverExceedsFines
		}
		return fines, nil
	}

	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if amount > user.Fines {
		return nil, ErrWaiverExceedsFines
	}
	return tx.Fines.ListPayableByUser(ctx, userID)
}

func (s *fineService) ListUserFines(ctx context.Context, userID string) ([]models.Fine, error) {
	if _, err := s.repos.Users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return s.repos.Fines.ListByUser(ctx, userID)
}

func (s *fineService) ListUserPayments(ctx context.Context, userID string) ([]models.FinePayment, error) {
	if _, err := s.repos.Users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return s.repos.Payments.ListByUser(ctx, userID)
}

// Report aggregates fines created in [start, end].
func (s *fineService) Report(ctx context.Context, start, end time.Time) (*FineReport, error) {
	fines, err := s.repos.Fines.ListCreatedBetween(ctx, start, end)
	if err != nil {
		return nil, err
	}

	report := &FineReport{Fines: fines, Start: start, End: end}
	for _, fine := range fines {
		report.Summary.TotalFines++
		report.Summary.TotalAmount += fine.Amount
		switch fine.Status {
		case models.FineStatusPaid:
			report.Summary.PaidFines++
			report.Summary.PaidAmount += fine.Amount
		case models.FineStatusWaived:
			report.Summary.WaivedFines++
			report.Summary.WaivedAmount += fine.Amount
		case models.FineStatusOutstanding, models.FineStatusOverdue:
			report.Summary.OutstandingFines++
			report.Summary.OutstandingAmount += fine.Amount
		}
	}
	return report, nil
}

// isMeaningfulReason rejects empty and obviously-placeholder waiver reasons.
func isMeaningfulReason(reason string) bool {
	trimmed := strings.ToLower(strings.TrimSpace(reason))
	if len(trimmed) < 5 {
		return false
	}
	switch trimmed {
	case "n/a", "none", "asdf", "test", "xxxxx", ".....", "-----":
		return false
	}
	return true
}
