package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	TaskStatusTodo       = "todo"
	TaskStatusInProgress = "in_progress"
	TaskStatusCompleted  = "completed"

	TaskPriorityLow    = "low"
	TaskPriorityMedium = "medium"
	TaskPriorityHigh   = "high"
)

// ValidTaskStatus reports whether status is one of the closed task status
// set. Transitions between statuses are intentionally unconstrained.
func ValidTaskStatus(status string) bool {
	switch status {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusCompleted:
		return true
	}
	return false
}

// ValidTaskPriority reports whether priority is one of the closed set.
func ValidTaskPriority(priority string) bool {
	switch priority {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	}
	return false
}

// Task belongs to exactly one project. TenantID is denormalized from the
// owning project so every query can be tenant-scoped without a join.
// AssignedTo is a weak reference to an active user of the same tenant.
type Task struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	ProjectID  string    `gorm:"size:36;not null;index" json:"project_id"`
	TenantID   string    `gorm:"size:36;not null;index" json:"tenant_id"`
	Title      string    `gorm:"size:255;not null" json:"title"`
	Status     string    `gorm:"size:50;default:todo" json:"status"`      // todo, in_progress, completed
	Priority   string    `gorm:"size:50;default:medium" json:"priority"`  // low, medium, high
	AssignedTo *string   `gorm:"size:36;index" json:"assigned_to"`
	Assignee   *User     `gorm:"foreignKey:AssignedTo" json:"assignee,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Task) TableName() string { return "tasks" }

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
