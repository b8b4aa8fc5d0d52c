package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/noah-isme/campus-admin-api/internal/dto"
	"github.com/noah-isme/campus-admin-api/internal/knowledge"
	"github.com/noah-isme/campus-admin-api/internal/service"
)

// Tools whose output is rendered by the reply guard.
const (
	ToolListStudents         = "list_students"
	ToolGetStudent           = "get_student"
	ToolLastAddedStudents    = "get_last_added_students"
	defaultListStudentsLimit = 10
)

// CampusServices are the operations exposed to the model.
type CampusServices struct {
	Students      service.StudentService
	Analytics     service.AnalyticsService
	Notifications service.NotificationService
	FAQ           *knowledge.FAQ
	Retriever     *knowledge.SemanticRetriever
}

// NewCampusTools builds the campus tool set. Each tool maps to exactly one operation.
func NewCampusTools(svc CampusServices) []Tool {
	return []Tool{
		{
			Name:        "add_student",
			Description: "Add a new student record.",
			Effect:      EffectWrite,
			Class:       IntentRecordMutation,
			Parameters: &Schema{
				Properties: map[string]Property{
					"id":         {Type: "string", Description: "Unique student id."},
					"name":       {Type: "string", Description: "Full name."},
					"department": {Type: "string", Description: "Department, optional."},
					"email":      {Type: "string", Description: "Email address, optional."},
				},
				Required: []string{"id", "name"},
			},
			Handler: func(ctx context.Context, args Args) (interface{}, error) {
				student, err := svc.Students.Create(ctx, dto.StudentCreateRequest{
					ID:         args.String("id"),
					Name:       args.String("name"),
					Department: args.OptionalString("department"),
					Email:      args.OptionalString("email"),
				})
				if err != nil {
					return nil, err
				}
				return successResult(student, fmt.Sprintf("Student %s added", student.ID)), nil
			},
		},
		{
			Name:        ToolGetStudent,
			Description: "Fetch one student record by id.",
			Effect:      EffectRead,
			Class:       IntentListRecords,
			Parameters: &Schema{
				Properties: map[string]Property{"id": {Type: "string", Description: "Student id."}},
				Required:   []string{"id"},
			},
			Handler: func(ctx context.Context, args Args) (interface{}, error) {
				return svc.Students.Get(ctx, args.String("id"))
			},
		},
		{
			Name:        "update_student",
			Description: "Update a student's name, department or email. Omitted fields are left unchanged; an empty email clears it.",
			Effect:      EffectWrite,
			Class:       IntentRecordMutation,
			Parameters: &Schema{
				Properties: map[string]Property{
					"id":         {Type: "string", Description: "Student id."},
					"name":       {Type: "string", Description: "New full name."},
					"department": {Type: "string", Description: "New department."},
					"email":      {Type: "string", Description: "New email address."},
				},
				Required: []string{"id"},
			},
			Handler: func(ctx context.Context, args Args) (interface{}, error) {
				request := dto.StudentUpdateRequest{
					Name:       args.OptionalString("name"),
					Department: args.OptionalString("department"),
					Email:      args.OptionalString("email"),
				}
				if request.Empty() {
					return nil, errors.New("provide at least one of name, department or email")
				}
				student, err := svc.Students.Update(ctx, args.String("id"), request)
				if err != nil {
					return nil, err
				}
				return successResult(student, fmt.Sprintf("Student %s updated", student.ID)), nil
			},
		},
		{
			Name:        "delete_student",
			Description: "Delete a student and their activity history.",
			Effect:      EffectWrite,
			Class:       IntentRecordMutation,
			Parameters: &Schema{
				Properties: map[string]Property{"id": {Type: "string", Description: "Student id."}},
				Required:   []string{"id"},
			},
			Handler: func(ctx context.Context, args Args) (interface{}, error) {
				id := args.String("id")
				if err := svc.Students.Delete(ctx, id); err != nil {
					return nil, err
				}
				return successResult(nil, fmt.Sprintf("Deleted student %s", id)), nil
			},
		},
		{
			Name:        ToolListStudents,
			Description: "List student records. A limit of 0 returns every student.",
			Effect:      EffectRead,
			Class:       IntentListRecords,
			Parameters: &Schema{
				Properties: map[string]Property{
					"limit": {Type: "integer", Description: "Maximum number of records.", Default: defaultListStudentsLimit, Minimum: bound(0)},
				},
			},
			Handler: func(ctx context.Context, args Args) (interface{}, error) {
				return svc.Students.List(ctx, args.Int("limit", defaultListStudentsLimit))
			},
		},
		{
			Name:        "get_total_students",
			Description: "Count all students.",
			Effect:      EffectRead,
			Class:       IntentAnalytics,
			Parameters:  &Schema{},
			Handler: func(ctx context.Context, _ Args) (interface{}, error) {
				total, err := svc.Analytics.TotalCount(ctx)
				if err != nil {
					return nil, err
				}
				return dto.TotalStudentsResponse{TotalStudents: total}, nil
			},
		},
		{
			Name:        "get_students_by_department",
			Description: "Count students per department. Students without a department are grouped under null.",
			Effect:      EffectRead,
			Class:       IntentAnalytics,
			Parameters:  &Schema{},
			Handler: func(ctx context.Context, _ Args) (interface{}, error) {
				return svc.Analytics.CountsByDepartment(ctx)
			},
		},
		{
			Name:        ToolLastAddedStudents,
			Description: "List the most recently added students, newest first.",
			Effect:      EffectRead,
			Class:       IntentAnalytics,
			Parameters: &Schema{
				Properties: map[string]Property{
					"limit": {Type: "integer", Description: "Number of students.", Default: service.DefaultRecentLimit, Minimum: bound(1), Maximum: bound(100)},
				},
			},
			Handler: func(ctx context.Context, args Args) (interface{}, error) {
				return svc.Analytics.Recent(ctx, args.Int("limit", service.DefaultRecentLimit))
			},
		},
		{
			Name:        "get_active_students",
			Description: "List activity logs recorded in the last N days.",
			Effect:      EffectRead,
			Class:       IntentAnalytics,
			Parameters: &Schema{
				Properties: map[string]Property{
					"days": {Type: "integer", Description: "Window size in days.", Default: service.DefaultActiveWindowDays, Minimum: bound(1), Maximum: bound(365)},
				},
			},
			Handler: func(ctx context.Context, args Args) (interface{}, error) {
				return svc.Analytics.ActiveInWindow(ctx, args.Int("days", service.DefaultActiveWindowDays))
			},
		},
		{
			Name:        "record_activity",
			Description: "Record an activity for a student and mark them active.",
			Effect:      EffectWrite,
			Class:       IntentRecordMutation,
			Parameters: &Schema{
				Properties: map[string]Property{
					"student_id": {Type: "string", Description: "Student id."},
					"action":     {Type: "string", Description: "Activity label.", Default: "login"},
				},
				Required: []string{"student_id"},
			},
			Handler: func(ctx context.Context, args Args) (interface{}, error) {
				return svc.Students.RecordActivity(ctx, args.String("student_id"), dto.ActivityCreateRequest{Action: args.String("action")})
			},
		},
		{
			Name:        "send_email",
			Description: "Send an email notification to a student.",
			Effect:      EffectWrite,
			Class:       IntentRecordMutation,
			Parameters: &Schema{
				Properties: map[string]Property{
					"student_id": {Type: "string", Description: "Student id."},
					"message":    {Type: "string", Description: "Message body."},
				},
				Required: []string{"student_id", "message"},
			},
			Handler: func(ctx context.Context, args Args) (interface{}, error) {
				sent, err := svc.Notifications.Notify(ctx, args.String("student_id"), dto.NotifyRequest{Message: args.String("message")})
				if err != nil {
					return nil, err
				}
				return successResult(sent, fmt.Sprintf("Email sent to %s", sent.To)), nil
			},
		},
		{
			Name:        "faq_lookup",
			Description: "Answer questions about how to use this admin system from the FAQ table.",
			Effect:      EffectRead,
			Class:       IntentFAQ,
			Parameters: &Schema{
				Properties: map[string]Property{"question": {Type: "string", Description: "The user's question."}},
				Required:   []string{"question"},
			},
			Handler: func(_ context.Context, args Args) (interface{}, error) {
				if svc.FAQ == nil {
					return nil, errors.New("faq table is not available")
				}
				entry, err := svc.FAQ.Lookup(args.String("question"))
				if errors.Is(err, knowledge.ErrNoMatch) {
					return successResult(nil, "No matching FAQ entry."), nil
				}
				if err != nil {
					return nil, err
				}
				return dto.FAQResponse{Question: entry.Question, Answer: entry.Answer}, nil
			},
		},
		{
			Name:        "faq_rag",
			Description: "Answer questions about the institute from the indexed guide.",
			Effect:      EffectRead,
			Class:       IntentFAQ,
			Parameters: &Schema{
				Properties: map[string]Property{"question": {Type: "string", Description: "The user's question."}},
				Required:   []string{"question"},
			},
			Handler: func(ctx context.Context, args Args) (interface{}, error) {
				if svc.Retriever == nil {
					return nil, errors.New("knowledge base is not available")
				}
				answer, err := svc.Retriever.Answer(ctx, args.String("question"))
				if err != nil {
					return nil, err
				}
				return dto.SearchResponse{Answer: answer.Text, Sources: answer.Sources, Degraded: answer.Degraded}, nil
			},
		},
	}
}
