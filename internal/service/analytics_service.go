package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/campus-admin-api/internal/dto"
	"github.com/noah-isme/campus-admin-api/internal/models"
	"github.com/noah-isme/campus-admin-api/internal/repository"
)

const (
	// DefaultRecentLimit is the recency list size used when none is supplied.
	DefaultRecentLimit = 5
	// DefaultActiveWindowDays is the activity window used when none is supplied.
	DefaultActiveWindowDays = 7

	maxRecentLimit      = 100
	maxActiveWindowDays = 365
)

var (
	// ErrInvalidLimit indicates a non-positive limit.
	ErrInvalidLimit = errors.New("limit must be positive")
	// ErrInvalidWindow indicates a non-positive day window.
	ErrInvalidWindow = errors.New("days must be positive")
)

// AnalyticsService derives roster statistics from committed state. Nothing is cached.
type AnalyticsService interface {
	TotalCount(ctx context.Context) (int64, error)
	CountsByDepartment(ctx context.Context) ([]dto.DepartmentCountResponse, error)
	Recent(ctx context.Context, limit int) ([]dto.StudentResponse, error)
	ActiveInWindow(ctx context.Context, days int) (dto.ActiveWindowResponse, error)
	Summary(ctx context.Context) (dto.AnalyticsSummaryResponse, error)
}

type analyticsService struct {
	repo   repository.AnalyticsRepository
	logger zerolog.Logger
	tracer trace.Tracer
	now    func() time.Time
}

// NewAnalyticsService constructs the analytics service.
func NewAnalyticsService(repo repository.AnalyticsRepository, logger zerolog.Logger) AnalyticsService {
	return &analyticsService{
		repo:   repo,
		logger: logger.With().Str("component", "analytics_service").Logger(),
		tracer: otel.Tracer("github.com/noah-isme/campus-admin-api/internal/service/analytics"),
		now:    time.Now,
	}
}

func (s *analyticsService) TotalCount(ctx context.Context) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "analytics.total")
	defer span.End()

	total, err := s.repo.CountStudents(ctx)
	if err != nil {
		return 0, s.fail(span, err, "count_students_failed")
	}

	span.SetAttributes(attribute.Int64("analytics.total", total))
	return total, nil
}

// CountsByDepartment orders the NULL group first, then departments ascending.
func (s *analyticsService) CountsByDepartment(ctx context.Context) ([]dto.DepartmentCountResponse, error) {
	ctx, span := s.tracer.Start(ctx, "analytics.by_department")
	defer span.End()

	groups, err := s.repo.CountByDepartment(ctx)
	if err != nil {
		return nil, s.fail(span, err, "count_by_department_failed")
	}

	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i].Department, groups[j].Department
		switch {
		case a == nil:
			return b != nil
		case b == nil:
			return false
		default:
			return *a < *b
		}
	})

	response := make([]dto.DepartmentCountResponse, 0, len(groups))
	for _, group := range groups {
		response = append(response, dto.DepartmentCountResponse{Department: group.Department, Count: group.Count})
	}

	span.SetAttributes(attribute.Int("analytics.groups", len(response)))
	return response, nil
}

func (s *analyticsService) Recent(ctx context.Context, limit int) ([]dto.StudentResponse, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}

	ctx, span := s.tracer.Start(ctx, "analytics.recent", trace.WithAttributes(attribute.Int("analytics.limit", limit)))
	defer span.End()

	students, err := s.repo.ListRecentStudents(ctx, limit)
	if err != nil {
		return nil, s.fail(span, err, "list_recent_failed")
	}

	return dto.NewStudentResponses(students), nil
}

// ActiveInWindow returns raw activity rows at or after now minus days*24h.
func (s *analyticsService) ActiveInWindow(ctx context.Context, days int) (dto.ActiveWindowResponse, error) {
	if days <= 0 {
		return dto.ActiveWindowResponse{}, ErrInvalidWindow
	}
	if days > maxActiveWindowDays {
		days = maxActiveWindowDays
	}

	ctx, span := s.tracer.Start(ctx, "analytics.active_window", trace.WithAttributes(attribute.Int("analytics.days", days)))
	defer span.End()

	since := s.now().UTC().Add(-time.Duration(days) * 24 * time.Hour)
	logs, err := s.repo.ListActivitySince(ctx, since)
	if err != nil {
		return dto.ActiveWindowResponse{}, s.fail(span, err, "list_activity_failed")
	}

	span.SetAttributes(attribute.Int("analytics.rows", len(logs)))
	return dto.ActiveWindowResponse{
		Days:  days,
		Since: since,
		Items: dto.NewActivityResponses(logs),
	}, nil
}

func (s *analyticsService) Summary(ctx context.Context) (dto.AnalyticsSummaryResponse, error) {
	ctx, span := s.tracer.Start(ctx, "analytics.summary")
	defer span.End()

	total, err := s.repo.CountStudents(ctx)
	if err != nil {
		return dto.AnalyticsSummaryResponse{}, s.fail(span, err, "count_students_failed")
	}

	students, err := s.repo.ListRecentStudents(ctx, DefaultRecentLimit)
	if err != nil {
		return dto.AnalyticsSummaryResponse{}, s.fail(span, err, "list_recent_failed")
	}

	return dto.AnalyticsSummaryResponse{
		TotalStudents:   total,
		RecentOnboarded: recentProjection(students),
	}, nil
}

func (s *analyticsService) fail(span trace.Span, err error, status string) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, status)
	s.logger.Error().Err(err).Str("stage", status).Msg("analytics query failed")
	return err
}

func recentProjection(students []models.Student) []dto.RecentStudentResponse {
	items := make([]dto.RecentStudentResponse, 0, len(students))
	for _, student := range students {
		items = append(items, dto.RecentStudentResponse{
			ID:        student.ID,
			Name:      student.Name,
			Email:     student.Email,
			CreatedAt: student.CreatedAt,
		})
	}
	return items
}
