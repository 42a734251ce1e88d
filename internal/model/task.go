package model

import (
	"strings"
	"time"
)

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusActive     TaskStatus = "active"
	TaskStatusPaused     TaskStatus = "paused"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

// TaskStatuses lists every valid status in display order.
var TaskStatuses = []TaskStatus{
	TaskStatusPending,
	TaskStatusInProgress,
	TaskStatusActive,
	TaskStatusPaused,
	TaskStatusCompleted,
	TaskStatusCancelled,
}

// Valid reports whether s is a known status.
func (s TaskStatus) Valid() bool {
	for _, v := range TaskStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// TaskPriority is the urgency of a task.
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
	TaskPriorityUrgent TaskPriority = "urgent"
)

// TaskPriorities lists every valid priority from lowest to highest.
var TaskPriorities = []TaskPriority{
	TaskPriorityLow,
	TaskPriorityMedium,
	TaskPriorityHigh,
	TaskPriorityUrgent,
}

// Valid reports whether p is a known priority.
func (p TaskPriority) Valid() bool {
	for _, v := range TaskPriorities {
		if p == v {
			return true
		}
	}
	return false
}

// Task is a unit of work owned by the current user. The automation fields
// (Prompt, LinkedAccounts, Actions, execution counters) are display data
// and play no part in synchronization.
type Task struct {
	// ID is the server-assigned identity.
	ID ID `json:"id"`

	// Title is the human-readable summary of the task.
	Title string `json:"title"`

	// Description is the optional long-form body.
	Description string `json:"description,omitempty"`

	Status   TaskStatus   `json:"status"`
	Priority TaskPriority `json:"priority"`

	// Completed mirrors Status == completed on the server.
	Completed bool `json:"completed"`

	Prompt         string `json:"prompt,omitempty"`
	IsActive       bool   `json:"isActive"`
	MaxExecutions  int    `json:"maxExecutions,omitempty"`
	ExecutionCount int    `json:"executionCount,omitempty"`

	DueDate        *time.Time `json:"dueDate,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
	LastExecutedAt *time.Time `json:"lastExecutedAt,omitempty"`

	LinkedAccounts []LinkedAccount `json:"linkedAccounts,omitempty"`
	Actions        []Action        `json:"actions,omitempty"`
	Owner          *Ref            `json:"owner,omitempty"`
}

// IsOverdue reports whether the task has a due date before now and is
// not yet completed.
func (t Task) IsOverdue(now time.Time) bool {
	return t.DueDate != nil && t.DueDate.Before(now) && t.Status != TaskStatusCompleted
}

// TaskRef is the {id, title} projection embedded in messages and executions.
type TaskRef struct {
	ID    ID     `json:"id"`
	Title string `json:"title"`
}

// TaskInput is the payload for creating or updating a task.
type TaskInput struct {
	Title         string       `json:"title"`
	Description   string       `json:"description,omitempty"`
	Status        TaskStatus   `json:"status,omitempty"`
	Priority      TaskPriority `json:"priority,omitempty"`
	Prompt        string       `json:"prompt,omitempty"`
	DueDate       *time.Time   `json:"dueDate,omitempty"`
	IsActive      *bool        `json:"isActive,omitempty"`
	MaxExecutions *int         `json:"maxExecutions,omitempty"`
}

// Validate returns the client-side validation messages for the input.
// An empty slice means the input may be sent.
func (in TaskInput) Validate() []string {
	var errs []string
	if strings.TrimSpace(in.Title) == "" {
		errs = append(errs, "Title is required")
	}
	if in.Status != "" && !in.Status.Valid() {
		errs = append(errs, "Status must be one of: "+joinStatuses())
	}
	if in.Priority != "" && !in.Priority.Valid() {
		errs = append(errs, "Priority must be one of: low, medium, high, urgent")
	}
	if in.MaxExecutions != nil && *in.MaxExecutions < 0 {
		errs = append(errs, "Max executions must not be negative")
	}
	return errs
}

func joinStatuses() string {
	parts := make([]string, len(TaskStatuses))
	for i, s := range TaskStatuses {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}
