package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/campus-admin-api/internal/models"
)

// StudentRepository persists the student roster.
type StudentRepository interface {
	Create(ctx context.Context, student *models.Student) error
	GetByID(ctx context.Context, id string) (models.Student, error)
	Update(ctx context.Context, id string, changes models.StudentChanges) (models.Student, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, limit int) ([]models.Student, error)
}

type studentRepository struct {
	uow UnitOfWork
	now func() time.Time
}

// NewStudentRepository constructs a student repository.
func NewStudentRepository(uow UnitOfWork) StudentRepository {
	return &studentRepository{uow: uow, now: time.Now}
}

func (r *studentRepository) Create(ctx context.Context, student *models.Student) error {
	now := r.now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	if student.LastActive.IsZero() {
		student.LastActive = student.CreatedAt
	}

	return r.uow.Do(ctx, func(tx *gorm.DB) error {
		return tx.Create(student).Error
	})
}

func (r *studentRepository) GetByID(ctx context.Context, id string) (models.Student, error) {
	var student models.Student
	err := r.uow.Do(ctx, func(tx *gorm.DB) error {
		return tx.Where("id = ?", id).First(&student).Error
	})
	if err != nil {
		return models.Student{}, err
	}

	return student, nil
}

func (r *studentRepository) Update(ctx context.Context, id string, changes models.StudentChanges) (models.Student, error) {
	var student models.Student
	err := r.uow.Transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&student).Error; err != nil {
			return err
		}
		if changes.Empty() {
			return nil
		}

		if err := tx.Model(&models.Student{}).Where("id = ?", id).Updates(changes.Columns()).Error; err != nil {
			return err
		}

		return tx.Where("id = ?", id).First(&student).Error
	})
	if err != nil {
		return models.Student{}, err
	}

	return student, nil
}

func (r *studentRepository) Delete(ctx context.Context, id string) error {
	return r.uow.Transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("student_id = ?", id).Delete(&models.ActivityLog{}).Error; err != nil {
			return err
		}

		result := tx.Where("id = ?", id).Delete(&models.Student{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}

		return nil
	})
}

// List returns up to limit students ordered by id. A non-positive limit returns every row.
func (r *studentRepository) List(ctx context.Context, limit int) ([]models.Student, error) {
	students := make([]models.Student, 0)
	err := r.uow.Do(ctx, func(tx *gorm.DB) error {
		query := tx.Model(&models.Student{}).Order("id ASC")
		if limit > 0 {
			query = query.Limit(limit)
		}
		return query.Find(&students).Error
	})
	if err != nil {
		return nil, err
	}

	return students, nil
}
