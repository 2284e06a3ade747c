package repository

import (
	"context"
	"fmt"

	"libraryhub/internal/api/models"

	"gorm.io/gorm"
)

// BookFilter narrows List results. Zero values mean "no filter".
type BookFilter struct {
	Search        string // matches title or author, case-insensitive
	Category      string
	AvailableOnly bool
	Page          int
	PageSize      int
}

type BookRepository interface {
	Create(ctx context.Context, book *models.Book) error
	FindByID(ctx context.Context, id string) (*models.Book, error)
	FindByISBN(ctx context.Context, isbn string) (*models.Book, error)
	List(ctx context.Context, filter BookFilter) ([]models.Book, int64, error)
	Update(ctx context.Context, book *models.Book) error
	Delete(ctx context.Context, id string) error

	// DecrementAvailable atomically takes one copy, guarded so the counter
	// can never go negative. Returns false when no copy was available; of
	// two racing borrows for the last copy, exactly one sees true.
	DecrementAvailable(ctx context.Context, id string) (bool, error)
	IncrementAvailable(ctx context.Context, id string) error
}

type bookRepository struct {
	db *gorm.DB
}

func NewBookRepository(db *gorm.DB) BookRepository {
	return &bookRepository{db: db}
}

func (r *bookRepository) Create(ctx context.Context, book *models.Book) error {
	if err := r.db.WithContext(ctx).Create(book).Error; err != nil {
		return fmt.Errorf("create book: %w", err)
	}
	return nil
}

func (r *bookRepository) FindByID(ctx context.Context, id string) (*models.Book, error) {
	var book models.Book
	if err := r.db.WithContext(ctx).First(&book, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *bookRepository) FindByISBN(ctx context.Context, isbn string) (*models.Book, error) {
	var book models.Book
	if err := r.db.WithContext(ctx).Where("isbn = ?", isbn).First(&book).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *bookRepository) List(ctx context.Context, filter BookFilter) ([]models.Book, int64, error) {
	var list []models.Book
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Book{}).Where("is_active = ?", true)

	if filter.Search != "" {
		p := "%" + filter.Search + "%"
		db = db.Where("title ILIKE ? OR author ILIKE ?", p, p)
	}
	if filter.Category != "" {
		db = db.Where("category ILIKE ?", "%"+filter.Category+"%")
	}
	if filter.AvailableOnly {
		db = db.Where("available_copies > 0")
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count books: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 10
	}

	if err := db.
		Order("title asc").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&list).Error; err != nil {
		return nil, 0, fmt.Errorf("list books: %w", err)
	}

	return list, total, nil
}

func (r *bookRepository) Update(ctx context.Context, book *models.Book) error {
	if err := r.db.WithContext(ctx).Save(book).Error; err != nil {
		return fmt.Errorf("update book: %w", err)
	}
	return nil
}

func (r *bookRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&models.Book{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("delete book: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *bookRepository) DecrementAvailable(ctx context.Context, id string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Book{}).
		Where("id = ? AND available_copies >= 1", id).
		UpdateColumn("available_copies", gorm.Expr("available_copies - 1"))
	if result.Error != nil {
		return false, fmt.Errorf("decrement available copies: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *bookRepository) IncrementAvailable(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Book{}).
		Where("id = ? AND available_copies < total_copies", id).
		UpdateColumn("available_copies", gorm.Expr("available_copies + 1"))
	if result.Error != nil {
		return fmt.Errorf("increment available copies: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("increment available copies: book %s already at total", id)
	}
	return nil
}
