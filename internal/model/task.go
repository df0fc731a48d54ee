package model

import (
	"fmt"
	"time"

	apperrors "taskapi/internal/errors"
)

// Priority is the urgency of a task.
type Priority string

// Priority levels.
const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// ParsePriority converts a raw value into a Priority.
func ParsePriority(raw string) (Priority, error) {
	switch p := Priority(raw); p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return p, nil
	default:
		return "", apperrors.NewValidationError("priority", fmt.Sprintf("%q is not a valid choice.", raw))
	}
}

// Status is the lifecycle state of a task.
type Status string

// Task statuses.
const (
	StatusPending   Status = "Pending"
	StatusCompleted Status = "Completed"
)

// ParseStatus converts a raw value into a Status.
func ParseStatus(raw string) (Status, error) {
	switch s := Status(raw); s {
	case StatusPending, StatusCompleted:
		return s, nil
	default:
		return "", apperrors.NewValidationError("status", fmt.Sprintf("%q is not a valid choice.", raw))
	}
}

// StatusFor returns the status matching a completion flag.
func StatusFor(completed bool) Status {
	if completed {
		return StatusCompleted
	}
	return StatusPending
}

// Task is a unit of work owned by a user.
type Task struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Title       string    `json:"title" gorm:"size:255;not null"`
	Description string    `json:"description" gorm:"type:text"`
	DueDate     time.Time `json:"due_date" gorm:"not null;index"`
	Priority    Priority  `json:"priority" gorm:"size:10;not null;default:'Medium'"`
	Status      Status    `json:"status" gorm:"size:10;not null;default:'Pending'"`
	IsCompleted bool      `json:"is_completed" gorm:"not null;default:false"`
	UserID      uint      `json:"user" gorm:"not null;index"`
	CategoryID  uint      `json:"category" gorm:"not null;index"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relations
	User     *User         `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Category *TaskCategory `json:"-" gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE"`
}

// ToggleComplete flips the completion flag and keeps the status in step with it.
func (t *Task) ToggleComplete() {
	t.IsCompleted = !t.IsCompleted
	t.Status = StatusFor(t.IsCompleted)
}

// MarkIncomplete forces the task back to pending.
func (t *Task) MarkIncomplete() {
	t.IsCompleted = false
	t.Status = StatusPending
}

// TaskPatch is a validated partial task update. Status and IsCompleted are
// applied independently of each other.
type TaskPatch struct {
	Title       *string
	Description *string
	DueDate     *time.Time
	Priority    *Priority
	Status      *Status
	IsCompleted *bool
	CategoryID  *uint
}

// Apply copies the present fields onto t.
func (p TaskPatch) Apply(t *Task) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.DueDate != nil {
		t.DueDate = *p.DueDate
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.IsCompleted != nil {
		t.IsCompleted = *p.IsCompleted
	}
	if p.CategoryID != nil {
		t.CategoryID = *p.CategoryID
		t.Category = nil
	}
}
