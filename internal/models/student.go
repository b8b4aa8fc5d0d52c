package models

import "time"

// Student represents an enrolled learner managed by campus administrators.
type Student struct {
	ID         string        `gorm:"primaryKey;size:64" json:"id"`
	Name       string        `gorm:"size:255;not null" json:"name"`
	Department *string       `gorm:"size:128;index" json:"department"`
	Email      *string       `gorm:"size:255;uniqueIndex" json:"email"`
	CreatedAt  time.Time     `gorm:"index" json:"created_at"`
	LastActive time.Time     `json:"last_active"`
	Activities []ActivityLog `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"-"`
}

// StudentChanges lists the columns an update is allowed to touch. Nil pointers are left untouched.
type StudentChanges struct {
	Name       *string
	Department *string
	Email      *string
	// ClearEmail stores NULL instead of the Email pointer.
	ClearEmail bool
}

// Empty reports whether no column would change.
func (c StudentChanges) Empty() bool {
	return c.Name == nil && c.Department == nil && c.Email == nil && !c.ClearEmail
}

// Columns converts the changes into a column map for the store.
func (c StudentChanges) Columns() map[string]interface{} {
	columns := make(map[string]interface{})
	if c.Name != nil {
		columns["name"] = *c.Name
	}
	if c.Department != nil {
		columns["department"] = *c.Department
	}
	switch {
	case c.ClearEmail:
		columns["email"] = nil
	case c.Email != nil:
		columns["email"] = *c.Email
	}
	return columns
}
