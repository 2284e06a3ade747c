package repository

import (
	"context"
	"fmt"
	"time"

	"libraryhub/internal/api/models"

	"gorm.io/gorm"
)

var payableStatuses = []string{models.FineStatusOutstanding, models.FineStatusOverdue}

type FineRepository interface {
	Create(ctx context.Context, fine *models.Fine) error
	FindByID(ctx context.Context, id string) (*models.Fine, error)
	// FindPayableByIDs returns only fines that belong to the user and still
	// carry a payment obligation; a shorter result than ids means at least
	// one id was missing, foreign, or already settled.
	FindPayableByIDs(ctx context.Context, userID string, ids []string) ([]models.Fine, error)
	ListPayableByUser(ctx context.Context, userID string) ([]models.Fine, error)
	ListByUser(ctx context.Context, userID string) ([]models.Fine, error)
	ListCreatedBetween(ctx context.Context, start, end time.Time) ([]models.Fine, error)
	SumPayableByUser(ctx context.Context, userID string) (float64, error)
	CountWaivedSince(ctx context.Context, userID string, since time.Time) (int64, error)
	Update(ctx context.Context, fine *models.Fine) error
}

type fineRepository struct {
	db *gorm.DB
}

func NewFineRepository(db *gorm.DB) FineRepository {
	return &fineRepository{db: db}
}

func (r *fineRepository) Create(ctx context.Context, fine *models.Fine) error {
	if err := r.db.WithContext(ctx).Create(fine).Error; err != nil {
		return fmt.Errorf("create fine: %w", err)
	}
	return nil
}

func (r *fineRepository) FindByID(ctx context.Context, id string) (*models.Fine, error) {
	var fine models.Fine
	if err := r.db.WithContext(ctx).First(&fine, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &fine, nil
}

func (r *fineRepository) FindPayableByIDs(ctx context.Context, userID string, ids []string) ([]models.Fine, error) {
	var fines []models.Fine
	if len(ids) == 0 {
		return fines, nil
	}
	if err := r.db.WithContext(ctx).
		Where("id IN ? AND user_id = ? AND status IN ?", ids, userID, payableStatuses).
		Find(&fines).Error; err != nil {
		return nil, fmt.Errorf("find fines by ids: %w", err)
	}
	return fines, nil
}

func (r *fineRepository) ListPayableByUser(ctx context.Context, userID string) ([]models.Fine, error) {
	var fines []models.Fine
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND status IN ?", userID, payableStatuses).
		Order("due_date asc").
		Find(&fines).Error; err != nil {
		return nil, fmt.Errorf("list payable fines: %w", err)
	}
	return fines, nil
}

func (r *fineRepository) ListByUser(ctx context.Context, userID string) ([]models.Fine, error) {
	var fines []models.Fine
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&fines).Error; err != nil {
		return nil, fmt.Errorf("list fines: %w", err)
	}
	return fines, nil
}

func (r *fineRepository) ListCreatedBetween(ctx context.Context, start, end time.Time) ([]models.Fine, error) {
	var fines []models.Fine
	if err := r.db.WithContext(ctx).
		Where("created_at BETWEEN ? AND ?", start, end).
		Order("created_at desc").
		Find(&fines).Error; err != nil {
		return nil, fmt.Errorf("list fines by period: %w", err)
	}
	return fines, nil
}

func (r *fineRepository) SumPayableByUser(ctx context.Context, userID string) (float64, error) {
	var total float64
	if err := r.db.WithContext(ctx).
		Model(&models.Fine{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ? AND status IN ?", userID, payableStatuses).
		Scan(&total).Error; err != nil {
		return 0, fmt.Errorf("sum payable fines: %w", err)
	}
	return total, nil
}

func (r *fineRepository) CountWaivedSince(ctx context.Context, userID string, since time.Time) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Fine{}).
		Where("user_id = ? AND status = ? AND waived_at >= ?", userID, models.FineStatusWaived, since).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count waived fines: %w", err)
	}
	return count, nil
}

func (r *fineRepository) Update(ctx context.Context, fine *models.Fine) error {
	if err := r.db.WithContext(ctx).Save(fine).Error; err != nil {
		return fmt.Errorf("update fine: %w", err)
	}
	return nil
}
