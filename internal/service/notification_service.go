package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/campus-admin-api/internal/dto"
	"github.com/noah-isme/campus-admin-api/internal/events"
	"github.com/noah-isme/campus-admin-api/internal/repository"
)

// DeliverySent is reported for every accepted notification.
const DeliverySent = "sent"

var (
	// ErrNoEmail indicates the student has no address on file.
	ErrNoEmail = errors.New("student has no email address")
	// ErrEmptyNotification indicates the message was empty after sanitisation.
	ErrEmptyNotification = errors.New("notification message is empty")
)

// NotificationService is the mocked email hook for students.
type NotificationService interface {
	Notify(ctx context.Context, studentID string, payload dto.NotifyRequest) (dto.NotifyResponse, error)
}

type notificationService struct {
	students  repository.StudentRepository
	mailer    Mailer
	validator *validator.Validate
	publisher events.Publisher
	sanitizer *bluemonday.Policy
	tracer    trace.Tracer
	logger    zerolog.Logger
}

// NewNotificationService constructs the notification service.
func NewNotificationService(students repository.StudentRepository, mailer Mailer, validate *validator.Validate, publisher events.Publisher, logger zerolog.Logger) NotificationService {
	if mailer == nil {
		mailer = NewLogMailer(logger)
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}

	return &notificationService{
		students:  students,
		mailer:    mailer,
		validator: validate,
		publisher: publisher,
		sanitizer: bluemonday.StrictPolicy(),
		tracer:    otel.Tracer("github.com/noah-isme/campus-admin-api/internal/service/notification"),
		logger:    logger.With().Str("component", "notification_service").Logger(),
	}
}

func (s *notificationService) Notify(ctx context.Context, studentID string, payload dto.NotifyRequest) (dto.NotifyResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.NotifyResponse{}, err
	}

	message := strings.TrimSpace(s.sanitizer.Sanitize(payload.Message))
	if message == "" {
		return dto.NotifyResponse{}, ErrEmptyNotification
	}

	studentID = strings.TrimSpace(studentID)
	ctx, span := s.tracer.Start(ctx, "notifications.notify", trace.WithAttributes(attribute.String("notification.student_id", studentID)))
	defer span.End()

	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return dto.NotifyResponse{}, ErrStudentNotFound
		}
		span.RecordError(err)
		return dto.NotifyResponse{}, err
	}

	if student.Email == nil || strings.TrimSpace(*student.Email) == "" {
		return dto.NotifyResponse{}, ErrNoEmail
	}

	to := *student.Email
	if err := s.mailer.Send(ctx, to, message); err != nil {
		span.RecordError(err)
		return dto.NotifyResponse{}, err
	}

	response := dto.NotifyResponse{Delivery: DeliverySent, To: to, Message: message}
	if err := s.publisher.Publish(ctx, events.NotificationSent, response); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish notification event")
	}

	return response, nil
}
