package models

import "time"

// TaskStatus represents the workflow state of a task
type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

// TaskPriority represents the priority of a task
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

// Task belongs to a project. CompletedAt is set exactly when the status
// transitions into completed and cleared on any transition out.
// PreviousStatus records the pre-completion status so that toggling
// completion twice restores the original state.
type Task struct {
	Base
	UserID         string       `gorm:"type:uuid;not null;index" json:"user_id"`
	ProjectID      string       `gorm:"type:uuid;not null;index" json:"project_id"`
	Title          string       `gorm:"not null" json:"title"`
	Description    string       `json:"description"`
	Status         TaskStatus   `gorm:"not null;default:'todo'" json:"status"`
	PreviousStatus TaskStatus   `json:"-"`
	Priority       TaskPriority `gorm:"not null;default:'medium'" json:"priority"`
	DueDate        *time.Time   `json:"due_date,omitempty"`
	Tags           []string     `gorm:"serializer:json" json:"tags,omitempty"`
	CompletedAt    *time.Time   `json:"completed_at,omitempty"`
	DisplayOrder   int          `gorm:"default:0" json:"display_order"`

	// Relationships
	Project Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
}

// IsOverdue reports whether the task has a due date in the past and is not
// completed.
func (t *Task) IsOverdue(now time.Time) bool {
	return t.DueDate != nil && t.DueDate.Before(now) && t.Status != TaskStatusCompleted
}
