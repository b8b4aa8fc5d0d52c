package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/campus-admin-api/internal/models"
)

// DepartmentCount is one group of the department breakdown. A nil Department is the NULL group.
type DepartmentCount struct {
	Department *string `gorm:"column:department"`
	Count      int64   `gorm:"column:total"`
}

// AnalyticsRepository supplies read-only aggregates over the roster.
type AnalyticsRepository interface {
	CountStudents(ctx context.Context) (int64, error)
	CountByDepartment(ctx context.Context) ([]DepartmentCount, error)
	ListRecentStudents(ctx context.Context, limit int) ([]models.Student, error)
	ListActivitySince(ctx context.Context, since time.Time) ([]models.ActivityLog, error)
}

type analyticsRepository struct {
	uow UnitOfWork
}

// NewAnalyticsRepository constructs the analytics repository.
func NewAnalyticsRepository(uow UnitOfWork) AnalyticsRepository {
	return &analyticsRepository{uow: uow}
}

func (r *analyticsRepository) CountStudents(ctx context.Context) (int64, error) {
	var count int64
	err := r.uow.Do(ctx, func(tx *gorm.DB) error {
		return tx.Model(&models.Student{}).Count(&count).Error
	})
	return count, err
}

func (r *analyticsRepository) CountByDepartment(ctx context.Context) ([]DepartmentCount, error) {
	groups := make([]DepartmentCount, 0)
	err := r.uow.Do(ctx, func(tx *gorm.DB) error {
		return tx.Model(&models.Student{}).
			Select("department, COUNT(*) AS total").
			Group("department").
			Scan(&groups).Error
	})
	if err != nil {
		return nil, err
	}

	return groups, nil
}

// ListRecentStudents orders by created_at descending and breaks ties by id.
func (r *analyticsRepository) ListRecentStudents(ctx context.Context, limit int) ([]models.Student, error) {
	students := make([]models.Student, 0)
	err := r.uow.Do(ctx, func(tx *gorm.DB) error {
		return tx.Model(&models.Student{}).
			Order("created_at DESC").
			Order("id ASC").
			Limit(limit).
			Find(&students).Error
	})
	if err != nil {
		return nil, err
	}

	return students, nil
}

// ListActivitySince returns every log with timestamp >= since; the boundary is inclusive.
func (r *analyticsRepository) ListActivitySince(ctx context.Context, since time.Time) ([]models.ActivityLog, error) {
	entries := make([]models.ActivityLog, 0)
	err := r.uow.Do(ctx, func(tx *gorm.DB) error {
		return tx.Model(&models.ActivityLog{}).
			Where("timestamp >= ?", since.UTC()).
			Order("timestamp DESC").
			Order("id DESC").
			Find(&entries).Error
	})
	if err != nil {
		return nil, err
	}

	return entries, nil
}
