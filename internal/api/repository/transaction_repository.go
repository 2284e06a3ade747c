package repository

import (
	"context"
	"fmt"
	"time"

	"libraryhub/internal/api/models"

	"gorm.io/gorm"
)

type TransactionRepository interface {
	Create(ctx context.Context, transaction *models.Transaction) error
	FindByID(ctx context.Context, id string) (*models.Transaction, error)
	FindOpenByUserAndBook(ctx context.Context, userID, bookID string) (*models.Transaction, error)
	ListByUser(ctx context.Context, userID string) ([]models.Transaction, error)
	ListOpenPastDue(ctx context.Context, asOf time.Time, limit int) ([]models.Transaction, error)
	Update(ctx context.Context, transaction *models.Transaction) error
	MarkOverdue(ctx context.Context, id string) error
}

type transactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(ctx context.Context, transaction *models.Transaction) error {
	if err := r.db.WithContext(ctx).Create(transaction).Error; err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	return nil
}

func (r *transactionRepository) FindByID(ctx context.Context, id string) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Book").
		First(&transaction, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &transaction, nil
}

func (r *transactionRepository) FindOpenByUserAndBook(ctx context.Context, userID, bookID string) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND book_id = ? AND return_date IS NULL", userID, bookID).
		First(&transaction).Error; err != nil {
		return nil, err
	}
	return &transaction, nil
}

func (r *transactionRepository) ListByUser(ctx context.Context, userID string) ([]models.Transaction, error) {
	var list []models.Transaction
	if err := r.db.WithContext(ctx).
		Preload("Book").
		Where("user_id = ?", userID).
		Order("borrow_date desc").
		Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return list, nil
}

func (r *transactionRepository) ListOpenPastDue(ctx context.Context, asOf time.Time, limit int) ([]models.Transaction, error) {
	var list []models.Transaction
	db := r.db.WithContext(ctx).
		Preload("User").
		Preload("Book").
		Where("return_date IS NULL AND due_date < ? AND status = ?", asOf, models.TransactionStatusBorrowed).
		Order("due_date asc")
	if limit > 0 {
		db = db.Limit(limit)
	}
	if err := db.Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list open past-due transactions: %w", err)
	}
	return list, nil
}

func (r *transactionRepository) Update(ctx context.Context, transaction *models.Transaction) error {
	if err := r.db.WithContext(ctx).Save(transaction).Error; err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return nil
}

func (r *transactionRepository) MarkOverdue(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("id = ? AND return_date IS NULL", id).
		Update("status", models.TransactionStatusOverdue)
	if result.Error != nil {
		return fmt.Errorf("mark transaction overdue: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
