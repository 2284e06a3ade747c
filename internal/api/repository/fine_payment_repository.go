package repository

import (
	"context"
	"fmt"

	"libraryhub/internal/api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FinePaymentRepository interface {
	Create(ctx context.Context, payment *models.FinePayment) error
	FindByReceiptNumber(ctx context.Context, receiptNumber string) (*models.FinePayment, error)
	ListByUser(ctx context.Context, userID string) ([]models.FinePayment, error)
}

type finePaymentRepository struct {
	db *gorm.DB
}

func NewFinePaymentRepository(db *gorm.DB) FinePaymentRepository {
	return &finePaymentRepository{db: db}
}

func (r *finePaymentRepository) Create(ctx context.Context, payment *models.FinePayment) error {
	// Create the receipt row first, then link the settled fines through the
	// join table without re-saving the fine rows themselves.
	fines := payment.PaidFines
	payment.PaidFines = nil
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(payment).Error; err != nil {
		return fmt.Errorf("create fine payment: %w", err)
	}
	payment.PaidFines = fines
	if len(fines) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).
		Model(payment).
		Omit("PaidFines.*").
		Association("PaidFines").
		Append(&fines); err != nil {
		return fmt.Errorf("link paid fines: %w", err)
	}
	return nil
}

func (r *finePaymentRepository) FindByReceiptNumber(ctx context.Context, receiptNumber string) (*models.FinePayment, error) {
	var payment models.FinePayment
	if err := r.db.WithContext(ctx).
		Preload("PaidFines").
		Where("receipt_number = ?", receiptNumber).
		First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *finePaymentRepository) ListByUser(ctx context.Context, userID string) ([]models.FinePayment, error) {
	var payments []models.FinePayment
	if err := r.db.WithContext(ctx).
		Preload("PaidFines").
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&payments).Error; err != nil {
		return nil, fmt.Errorf("list fine payments: %w", err)
	}
	return payments, nil
}
