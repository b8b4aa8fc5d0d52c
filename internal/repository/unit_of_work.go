package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

var (
	// ErrNotFound indicates the addressed record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateKey indicates a primary key or unique constraint rejected the write.
	ErrDuplicateKey = errors.New("duplicate key")
)

// UnitOfWork scopes a database session to a single logical operation.
// The session is released when fn returns, on success, error or panic.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(tx *gorm.DB) error) error
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type gormUnitOfWork struct {
	db *gorm.DB
}

// NewUnitOfWork wraps the connection pool so every repository call opens its own session.
func NewUnitOfWork(db *gorm.DB) UnitOfWork {
	return &gormUnitOfWork{db: db}
}

func (u *gormUnitOfWork) Do(ctx context.Context, fn func(tx *gorm.DB) error) error {
	session := u.db.WithContext(ctx).Session(&gorm.Session{NewDB: true})
	return translateError(fn(session))
}

func (u *gormUnitOfWork) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return translateError(u.db.WithContext(ctx).Transaction(fn))
}

func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrDuplicateKey):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), isUniqueViolation(err):
		return fmt.Errorf("%w: %v", ErrDuplicateKey, err)
	default:
		return err
	}
}

// isUniqueViolation covers drivers that do not translate constraint errors.
func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
