package models

import "time"

// DefaultActivityAction is recorded when no action label is supplied.
const DefaultActivityAction = "login"

// ActivityLog captures a single student activity event. Rows are append-only.
type ActivityLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	StudentID string    `gorm:"size:64;not null;index" json:"student_id"`
	Action    string    `gorm:"type:text;not null;default:login" json:"action"`
	Timestamp time.Time `gorm:"not null;index" json:"timestamp"`
}
