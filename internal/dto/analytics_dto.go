package dto

import "time"

// TotalStudentsResponse wraps the roster size.
type TotalStudentsResponse struct {
	TotalStudents int64 `json:"total_students"`
}

// DepartmentCountResponse is one department group. A nil department is the unassigned group.
type DepartmentCountResponse struct {
	Department *string `json:"department"`
	Count      int64   `json:"count"`
}

// RecentStudentResponse is the compact recency projection used by the dashboard.
type RecentStudentResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     *string   `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// ActiveWindowResponse lists raw activity rows inside a trailing window.
type ActiveWindowResponse struct {
	Days  int                `json:"days"`
	Since time.Time          `json:"since"`
	Items []ActivityResponse `json:"items"`
}

// AnalyticsSummaryResponse aggregates the dashboard numbers.
type AnalyticsSummaryResponse struct {
	TotalStudents   int64                   `json:"total_students"`
	RecentOnboarded []RecentStudentResponse `json:"recent_onboarded"`
}
