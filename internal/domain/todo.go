package domain

import (
	"time"
	"unicode/utf8"
)

const maxTitleLength = 200

// Priority classifies how urgent a todo is.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is one of the three enumerated values.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Rank orders priorities low < medium < high for sorting.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityHigh:
		return 3
	default:
		return 2
	}
}

// Todo is a single task owned by exactly one user. The reminder flags are
// mutated only by the reminder scheduler and are monotone: once true they
// never revert.
type Todo struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	UserID            uint       `gorm:"index;not null" json:"user_id"`
	Title             string     `gorm:"size:200;not null" json:"title"`
	Description       string     `gorm:"type:text" json:"description"`
	Completed         bool       `gorm:"not null;default:false" json:"completed"`
	Priority          Priority   `gorm:"size:10;not null;default:medium" json:"priority"`
	DueDate           *Date      `json:"due_date"`
	DueDatetime       *time.Time `json:"due_datetime"`
	ReminderSent      bool       `gorm:"not null;default:false" json:"reminder_sent"`
	FollowupEmailSent bool       `gorm:"not null;default:false" json:"followup_email_sent"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`

	User User `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// Validate checks the field-level invariants before a todo is persisted.
func (t *Todo) Validate() error {
	n := utf8.RuneCountInString(t.Title)
	if n < 1 {
		return &ValidationError{Field: "title", Message: "title cannot be empty"}
	}
	if n > maxTitleLength {
		return &ValidationError{Field: "title", Message: "title cannot exceed 200 characters"}
	}
	if !t.Priority.Valid() {
		return &ValidationError{Field: "priority", Message: "priority must be one of low, medium, high"}
	}
	return nil
}

// IsOverdue derives the overdue status at the given instant. It is never
// stored. A completed todo is never overdue; due_datetime takes precedence
// over due_date when both are set.
func (t *Todo) IsOverdue(now time.Time) bool {
	if t.Completed {
		return false
	}
	if t.DueDatetime != nil {
		return now.After(*t.DueDatetime)
	}
	if t.DueDate != nil {
		y, m, d := now.UTC().Date()
		today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		return today.After(t.DueDate.Time())
	}
	return false
}

// Stats aggregates a user's todos by completion and priority. Pending is
// always total minus completed, and the three priority counts sum to total.
type Stats struct {
	Total          int64 `json:"total"`
	Completed      int64 `json:"completed"`
	Pending        int64 `json:"pending"`
	HighPriority   int64 `json:"high_priority"`
	MediumPriority int64 `json:"medium_priority"`
	LowPriority    int64 `json:"low_priority"`
}
