package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/campus-admin-api/internal/dto"
	"github.com/noah-isme/campus-admin-api/internal/events"
	"github.com/noah-isme/campus-admin-api/internal/models"
	"github.com/noah-isme/campus-admin-api/internal/repository"
)

var (
	// ErrStudentNotFound indicates the student does not exist.
	ErrStudentNotFound = errors.New("student not found")
	// ErrStudentExists indicates the id or email is already taken.
	ErrStudentExists = errors.New("student already exists")
	// ErrUnknownField indicates an update targeted a column outside the mutable set.
	ErrUnknownField = errors.New("unknown or immutable student field")
	// ErrInvalidStudent indicates a student payload failed a domain check.
	ErrInvalidStudent = errors.New("invalid student payload")
)

const defaultActivityListLimit = 50

// StudentService orchestrates roster management.
type StudentService interface {
	Create(ctx context.Context, payload dto.StudentCreateRequest) (dto.StudentResponse, error)
	Get(ctx context.Context, id string) (dto.StudentResponse, error)
	Update(ctx context.Context, id string, payload dto.StudentUpdateRequest) (dto.StudentResponse, error)
	UpdateField(ctx context.Context, id string, payload dto.StudentFieldUpdateRequest) (dto.StudentResponse, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, limit int) ([]dto.StudentResponse, error)
	RecordActivity(ctx context.Context, studentID string, payload dto.ActivityCreateRequest) (dto.ActivityResponse, error)
	ListActivity(ctx context.Context, studentID string, limit int) ([]dto.ActivityResponse, error)
}

type studentService struct {
	students  repository.StudentRepository
	logs      repository.ActivityLogRepository
	validator *validator.Validate
	publisher events.Publisher
	logger    zerolog.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(students repository.StudentRepository, logs repository.ActivityLogRepository, validate *validator.Validate, publisher events.Publisher, logger zerolog.Logger) StudentService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}

	return &studentService{
		students:  students,
		logs:      logs,
		validator: validate,
		publisher: publisher,
		logger:    logger.With().Str("component", "student_service").Logger(),
	}
}

func (s *studentService) Create(ctx context.Context, payload dto.StudentCreateRequest) (dto.StudentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.StudentResponse{}, err
	}

	id := strings.TrimSpace(payload.ID)
	name := strings.TrimSpace(payload.Name)
	if id == "" || name == "" {
		return dto.StudentResponse{}, fmt.Errorf("%w: id and name are required", ErrInvalidStudent)
	}

	email, err := s.normaliseEmail(payload.Email)
	if err != nil {
		return dto.StudentResponse{}, err
	}

	student := models.Student{
		ID:         id,
		Name:       name,
		Department: trimmedPtr(payload.Department),
		Email:      email,
	}

	if err := s.students.Create(ctx, &student); err != nil {
		return dto.StudentResponse{}, s.translate(err)
	}

	s.logger.Info().Str("student_id", student.ID).Msg("student created")
	s.publish(ctx, events.StudentCreated, dto.NewStudentResponse(student))

	return dto.NewStudentResponse(student), nil
}

func (s *studentService) Get(ctx context.Context, id string) (dto.StudentResponse, error) {
	student, err := s.students.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return dto.StudentResponse{}, s.translate(err)
	}

	return dto.NewStudentResponse(student), nil
}

func (s *studentService) Update(ctx context.Context, id string, payload dto.StudentUpdateRequest) (dto.StudentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.StudentResponse{}, err
	}

	id = strings.TrimSpace(id)
	if payload.Empty() {
		return s.Get(ctx, id)
	}

	changes := models.StudentChanges{Department: trimmedPtr(payload.Department)}

	if payload.Name != nil {
		name := strings.TrimSpace(*payload.Name)
		if name == "" {
			return dto.StudentResponse{}, fmt.Errorf("%w: name must not be empty", ErrInvalidStudent)
		}
		changes.Name = &name
	}

	if payload.Email != nil {
		email, err := s.normaliseEmail(payload.Email)
		if err != nil {
			return dto.StudentResponse{}, err
		}
		if email == nil {
			changes.ClearEmail = true
		} else {
			changes.Email = email
		}
	}

	student, err := s.students.Update(ctx, id, changes)
	if err != nil {
		return dto.StudentResponse{}, s.translate(err)
	}

	response := dto.NewStudentResponse(student)
	s.logger.Info().Str("student_id", id).Strs("fields", changedFields(payload)).Msg("student updated")
	s.publish(ctx, events.StudentUpdated, response)

	return response, nil
}

// UpdateField maps the legacy {field, value} shape onto the enumerated update.
func (s *studentService) UpdateField(ctx context.Context, id string, payload dto.StudentFieldUpdateRequest) (dto.StudentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.StudentResponse{}, err
	}

	value := payload.Value
	var request dto.StudentUpdateRequest
	switch strings.ToLower(strings.TrimSpace(payload.Field)) {
	case "name":
		request.Name = &value
	case "department":
		request.Department = &value
	case "email":
		request.Email = &value
	default:
		return dto.StudentResponse{}, fmt.Errorf("%w: %q", ErrUnknownField, payload.Field)
	}

	return s.Update(ctx, id, request)
}

func (s *studentService) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if err := s.students.Delete(ctx, id); err != nil {
		return s.translate(err)
	}

	s.logger.Info().Str("student_id", id).Msg("student deleted")
	s.publish(ctx, events.StudentDeleted, map[string]string{"id": id})

	return nil
}

func (s *studentService) List(ctx context.Context, limit int) ([]dto.StudentResponse, error) {
	students, err := s.students.List(ctx, limit)
	if err != nil {
		return nil, err
	}

	return dto.NewStudentResponses(students), nil
}

func (s *studentService) RecordActivity(ctx context.Context, studentID string, payload dto.ActivityCreateRequest) (dto.ActivityResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ActivityResponse{}, err
	}

	entry := models.ActivityLog{
		StudentID: strings.TrimSpace(studentID),
		Action:    strings.TrimSpace(payload.Action),
	}
	if err := s.logs.Create(ctx, &entry); err != nil {
		return dto.ActivityResponse{}, s.translate(err)
	}

	response := dto.NewActivityResponse(entry)
	s.publish(ctx, events.ActivityRecorded, response)

	return response, nil
}

func (s *studentService) ListActivity(ctx context.Context, studentID string, limit int) ([]dto.ActivityResponse, error) {
	studentID = strings.TrimSpace(studentID)
	if _, err := s.students.GetByID(ctx, studentID); err != nil {
		return nil, s.translate(err)
	}

	if limit <= 0 {
		limit = defaultActivityListLimit
	}

	logs, err := s.logs.ListByStudent(ctx, studentID, limit)
	if err != nil {
		return nil, err
	}

	return dto.NewActivityResponses(logs), nil
}

func (s *studentService) normaliseEmail(raw *string) (*string, error) {
	if raw == nil {
		return nil, nil
	}

	email := strings.TrimSpace(*raw)
	if email == "" {
		return nil, nil
	}

	if err := s.validator.Var(email, "email"); err != nil {
		return nil, fmt.Errorf("%w: email is not a valid address", ErrInvalidStudent)
	}

	return &email, nil
}

func (s *studentService) translate(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrStudentNotFound
	case errors.Is(err, repository.ErrDuplicateKey):
		return fmt.Errorf("%w: %v", ErrStudentExists, err)
	default:
		return err
	}
}

func (s *studentService) publish(ctx context.Context, eventType string, data interface{}) {
	if err := s.publisher.Publish(ctx, eventType, data); err != nil {
		s.logger.Warn().Err(err).Str("event", eventType).Msg("failed to publish event")
	}
}

func trimmedPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	return &trimmed
}

func changedFields(payload dto.StudentUpdateRequest) []string {
	fields := make([]string, 0, 3)
	if payload.Name != nil {
		fields = append(fields, "name")
	}
	if payload.Department != nil {
		fields = append(fields, "department")
	}
	if payload.Email != nil {
		fields = append(fields, "email")
	}
	return fields
}
