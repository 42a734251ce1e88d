package state

import (
	"time"

	"github.com/nhle/taskpilot/internal/model"
)

// TaskFilter selects tasks. Zero fields match everything.
type TaskFilter struct {
	Status   model.TaskStatus
	Priority model.TaskPriority
	Query    string

	// OverdueAt, when set, keeps only tasks overdue at that instant.
	OverdueAt time.Time
}

// Match reports whether t passes the filter.
func (f TaskFilter) Match(t model.Task) bool {
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	if !f.OverdueAt.IsZero() && !t.IsOverdue(f.OverdueAt) {
		return false
	}
	return t.Matches(f.Query)
}

// MessageFilter selects messages. Zero fields match everything.
type MessageFilter struct {
	Status model.MessageStatus
	Type   model.MessageType
	Unread bool
	Query  string
}

// Match reports whether m passes the filter.
func (f MessageFilter) Match(m model.Message) bool {
	if f.Status != "" && m.Status != f.Status {
		return false
	}
	if f.Type != "" && m.MessageType != f.Type {
		return false
	}
	if f.Unread && m.IsRead {
		return false
	}
	return m.Matches(f.Query)
}

// FilterTasks returns a live view of the tasks matching f.
func (s *Store) FilterTasks(f TaskFilter) *View[model.Task] {
	return s.Tasks.Derive(f.Match)
}

// FilterMessages returns a live view of the messages matching f.
func (s *Store) FilterMessages(f MessageFilter) *View[model.Message] {
	return s.Messages.Derive(f.Match)
}
