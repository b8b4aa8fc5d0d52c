package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-admin-api/internal/models"
)

func TestAnalyticsRepositoryCountsAndGroups(t *testing.T) {
	uow := NewUnitOfWork(setupTestDB(t))
	students := NewStudentRepository(uow)
	analytics := NewAnalyticsRepository(uow)
	ctx := context.Background()

	seed := []models.Student{
		{ID: "S1", Name: "Ana", Department: strPtr("CS")},
		{ID: "S2", Name: "Budi", Department: strPtr("CS")},
		{ID: "S3", Name: "Citra", Department: strPtr("EE")},
		{ID: "S4", Name: "Dewi"},
		{ID: "S5", Name: "Eko", Department: strPtr("")},
	}
	for i := range seed {
		require.NoError(t, students.Create(ctx, &seed[i]))
	}

	total, err := analytics.CountStudents(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(5), total)

	groups, err := analytics.CountByDepartment(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 4, "NULL and empty departments stay separate")

	var sum int64
	byName := map[string]int64{}
	for _, group := range groups {
		sum += group.Count
		key := "<null>"
		if group.Department != nil {
			key = *group.Department
		}
		byName[key] = group.Count
	}
	require.Equal(t, total, sum)
	require.Equal(t, int64(2), byName["CS"])
	require.Equal(t, int64(1), byName["<null>"])
	require.Equal(t, int64(1), byName[""])
}

func TestAnalyticsRepositoryRecentBreaksTiesByID(t *testing.T) {
	uow := NewUnitOfWork(setupTestDB(t))
	students := NewStudentRepository(uow)
	analytics := NewAnalyticsRepository(uow)
	ctx := context.Background()

	base := time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)
	require.NoError(t, students.Create(ctx, &models.Student{ID: "B", Name: "Tie B", CreatedAt: base}))
	require.NoError(t, students.Create(ctx, &models.Student{ID: "A", Name: "Tie A", CreatedAt: base}))
	require.NoError(t, students.Create(ctx, &models.Student{ID: "C", Name: "Newest", CreatedAt: base.Add(time.Hour)}))

	recent, err := analytics.ListRecentStudents(ctx, 5)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	require.Equal(t, []string{"C", "A", "B"}, []string{recent[0].ID, recent[1].ID, recent[2].ID})
}

func TestAnalyticsRepositoryActivityWindowIsInclusive(t *testing.T) {
	uow := NewUnitOfWork(setupTestDB(t))
	students := NewStudentRepository(uow)
	logs := NewActivityLogRepository(uow)
	analytics := NewAnalyticsRepository(uow)
	ctx := context.Background()

	require.NoError(t, students.Create(ctx, &models.Student{ID: "S1", Name: "Ana"}))

	since := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, logs.Create(ctx, &models.ActivityLog{StudentID: "S1", Timestamp: since.Add(-time.Second)}))
	require.NoError(t, logs.Create(ctx, &models.ActivityLog{StudentID: "S1", Timestamp: since}))
	require.NoError(t, logs.Create(ctx, &models.ActivityLog{StudentID: "S1", Timestamp: since.Add(time.Hour), Action: "upload"}))

	entries, err := analytics.ListActivitySince(ctx, since)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "upload", entries[0].Action)
	require.True(t, entries[1].Timestamp.Equal(since))
}
