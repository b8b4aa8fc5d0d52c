package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/campus-admin-api/internal/models"
)

// ActivityLogRepository persists student activity events.
type ActivityLogRepository interface {
	Create(ctx context.Context, entry *models.ActivityLog) error
	ListByStudent(ctx context.Context, studentID string, limit int) ([]models.ActivityLog, error)
	CountByStudent(ctx context.Context, studentID string) (int64, error)
}

type activityLogRepository struct {
	uow UnitOfWork
	now func() time.Time
}

// NewActivityLogRepository constructs the activity log repository.
func NewActivityLogRepository(uow UnitOfWork) ActivityLogRepository {
	return &activityLogRepository{uow: uow, now: time.Now}
}

// Create stores the entry and advances the owner's last_active in the same transaction.
func (r *activityLogRepository) Create(ctx context.Context, entry *models.ActivityLog) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = r.now().UTC()
	}
	entry.Action = strings.TrimSpace(entry.Action)
	if entry.Action == "" {
		entry.Action = models.DefaultActivityAction
	}

	return r.uow.Transaction(ctx, func(tx *gorm.DB) error {
		var owners int64
		if err := tx.Model(&models.Student{}).Where("id = ?", entry.StudentID).Count(&owners).Error; err != nil {
			return err
		}
		if owners == 0 {
			return ErrNotFound
		}

		if err := tx.Create(entry).Error; err != nil {
			return err
		}

		return tx.Model(&models.Student{}).
			Where("id = ?", entry.StudentID).
			UpdateColumn("last_active", entry.Timestamp).Error
	})
}

func (r *activityLogRepository) ListByStudent(ctx context.Context, studentID string, limit int) ([]models.ActivityLog, error) {
	entries := make([]models.ActivityLog, 0)
	err := r.uow.Do(ctx, func(tx *gorm.DB) error {
		query := tx.Model(&models.ActivityLog{}).
			Where("student_id = ?", studentID).
			Order("timestamp DESC").
			Order("id DESC")
		if limit > 0 {
			query = query.Limit(limit)
		}
		return query.Find(&entries).Error
	})
	if err != nil {
		return nil, err
	}

	return entries, nil
}

func (r *activityLogRepository) CountByStudent(ctx context.Context, studentID string) (int64, error) {
	var count int64
	err := r.uow.Do(ctx, func(tx *gorm.DB) error {
		return tx.Model(&models.ActivityLog{}).Where("student_id = ?", studentID).Count(&count).Error
	})
	return count, err
}
