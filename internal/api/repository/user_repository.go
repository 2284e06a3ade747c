package repository

import (
	"context"
	"fmt"
	"time"

	"libraryhub/internal/api/models"

	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByIdentificationCode(ctx context.Context, code string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Update(ctx context.Context, user *models.User) error
	TouchLastLogin(ctx context.Context, id string, at time.Time) error

	// AdjustFines adds delta to the denormalized balance, clamped at zero.
	AdjustFines(ctx context.Context, id string, delta float64) error

	AddBorrowedBook(ctx context.Context, entry *models.BorrowedBook) error
	CloseBorrowedBook(ctx context.Context, transactionID, status string, returnedAt time.Time) error
	// MarkBorrowedBookOverdue flips the open mirror row for a transaction to
	// overdue, keeping it in step with the transaction record.
	MarkBorrowedBookOverdue(ctx context.Context, transactionID string) error
	CountOpenBorrows(ctx context.Context, userID string) (int64, error)
	HasOpenBorrow(ctx context.Context, userID, bookID string) (bool, error)
	ListOpenBorrowsByBook(ctx context.Context, bookID string) ([]models.BorrowedBook, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Preload("BorrowedBooks").First(&user, "id = ?", id).Error; err != nil {
		// return nil, not a zero-value struct, so callers can't mistake a
		// miss for a hit
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByIdentificationCode(ctx context.Context, code string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("identification_code = ?", code).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).Order("created_at desc").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

func (r *userRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("last_login", at).Error
}

func (r *userRepository) AdjustFines(ctx context.Context, id string, delta float64) error {
	result := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("fines", gorm.Expr("GREATEST(fines + ?, 0)", delta))
	if result.Error != nil {
		return fmt.Errorf("adjust fines: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *userRepository) AddBorrowedBook(ctx context.Context, entry *models.BorrowedBook) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("add borrowed book: %w", err)
	}
	return nil
}

func (r *userRepository) CloseBorrowedBook(ctx context.Context, transactionID, status string, returnedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.BorrowedBook{}).
		Where("transaction_id = ? AND return_date IS NULL", transactionID).
		Updates(map[string]any{"return_date": returnedAt, "status": status})
	if result.Error != nil {
		return fmt.Errorf("close borrowed book: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *userRepository) MarkBorrowedBookOverdue(ctx context.Context, transactionID string) error {
	result := r.db.WithContext(ctx).
		Model(&models.BorrowedBook{}).
		Where("transaction_id = ? AND return_date IS NULL", transactionID).
		Update("status", models.TransactionStatusOverdue)
	if result.Error != nil {
		return fmt.Errorf("mark borrowed book overdue: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *userRepository) CountOpenBorrows(ctx context.Context, userID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.BorrowedBook{}).
		Where("user_id = ? AND return_date IS NULL", userID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count open borrows: %w", err)
	}
	return count, nil
}

func (r *userRepository) HasOpenBorrow(ctx context.Context, userID, bookID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.BorrowedBook{}).
		Where("user_id = ? AND book_id = ? AND return_date IS NULL", userID, bookID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *userRepository) ListOpenBorrowsByBook(ctx context.Context, bookID string) ([]models.BorrowedBook, error) {
	var entries []models.BorrowedBook
	if err := r.db.WithContext(ctx).
		Where("book_id = ? AND return_date IS NULL", bookID).
		Order("borrow_date asc").
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list open borrows by book: %w", err)
	}
	return entries, nil
}
