package dto

import (
	"time"

	"github.com/noah-isme/campus-admin-api/internal/models"
)

// StudentCreateRequest captures the payload for enrolling a student.
type StudentCreateRequest struct {
	ID         string  `json:"id" validate:"required,max=64"`
	Name       string  `json:"name" validate:"required,max=200"`
	Department *string `json:"department" validate:"omitempty,max=120"`
	Email      *string `json:"email" validate:"omitempty,max=254"`
}

// StudentUpdateRequest enumerates the mutable student columns. Nil fields are left untouched and
// an empty email clears the stored address.
type StudentUpdateRequest struct {
	Name       *string `json:"name" validate:"omitempty,min=1,max=200"`
	Department *string `json:"department" validate:"omitempty,max=120"`
	Email      *string `json:"email" validate:"omitempty,max=254"`
}

// Empty reports whether the request carries no changes.
func (r StudentUpdateRequest) Empty() bool {
	return r.Name == nil && r.Department == nil && r.Email == nil
}

// StudentFieldUpdateRequest is the legacy single-field update shape.
type StudentFieldUpdateRequest struct {
	Field string `json:"field" validate:"required"`
	Value string `json:"value"`
}

// StudentResponse is the public representation of a student.
type StudentResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Department *string   `json:"department"`
	Email      *string   `json:"email"`
	CreatedAt  time.Time `json:"created_at"`
	LastActive time.Time `json:"last_active"`
}

// NewStudentResponse maps a student model to its response.
func NewStudentResponse(student models.Student) StudentResponse {
	return StudentResponse{
		ID:         student.ID,
		Name:       student.Name,
		Department: student.Department,
		Email:      student.Email,
		CreatedAt:  student.CreatedAt,
		LastActive: student.LastActive,
	}
}

// NewStudentResponses maps a slice of students, never returning nil.
func NewStudentResponses(students []models.Student) []StudentResponse {
	responses := make([]StudentResponse, 0, len(students))
	for _, student := range students {
		responses = append(responses, NewStudentResponse(student))
	}
	return responses
}

// ActivityCreateRequest records a student activity. Action defaults to "login".
type ActivityCreateRequest struct {
	Action string `json:"action" validate:"omitempty,max=120"`
}

// ActivityResponse is the public representation of an activity log row.
type ActivityResponse struct {
	ID        uint      `json:"id"`
	StudentID string    `json:"student_id"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

// NewActivityResponse maps an activity log model.
func NewActivityResponse(log models.ActivityLog) ActivityResponse {
	return ActivityResponse{
		ID:        log.ID,
		StudentID: log.StudentID,
		Action:    log.Action,
		Timestamp: log.Timestamp,
	}
}

// NewActivityResponses maps a slice of activity logs, never returning nil.
func NewActivityResponses(logs []models.ActivityLog) []ActivityResponse {
	responses := make([]ActivityResponse, 0, len(logs))
	for _, log := range logs {
		responses = append(responses, NewActivityResponse(log))
	}
	return responses
}

// NotifyRequest carries the message for the mocked email hook.
type NotifyRequest struct {
	Message string `json:"message" validate:"required,max=4000"`
}

// NotifyResponse reports the outcome of the mocked email hook.
type NotifyResponse struct {
	Delivery string `json:"delivery"`
	To       string `json:"to"`
	Message  string `json:"message"`
}
