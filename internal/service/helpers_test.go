package service

import (
	"fmt"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/noah-isme/campus-admin-api/internal/models"
	"github.com/noah-isme/campus-admin-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func testValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

type testStore struct {
	db        *gorm.DB
	students  repository.StudentRepository
	logs      repository.ActivityLogRepository
	analytics repository.AnalyticsRepository
}

func setupStore(t *testing.T) testStore {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Student{}, &models.ActivityLog{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	uow := repository.NewUnitOfWork(db)
	return testStore{
		db:        db,
		students:  repository.NewStudentRepository(uow),
		logs:      repository.NewActivityLogRepository(uow),
		analytics: repository.NewAnalyticsRepository(uow),
	}
}

func strPtr(value string) *string {
	return &value
}
