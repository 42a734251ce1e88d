package state

import (
	"sort"
	"time"

	"github.com/nhle/taskpilot/internal/model"
)

// TaskStats summarizes a task list. Pending counts both pending and
// in-progress tasks.
type TaskStats struct {
	Total          int
	Pending        int
	Active         int
	Paused         int
	Completed      int
	Cancelled      int
	Overdue        int
	ByStatus       map[model.TaskStatus]int
	ByPriority     map[model.TaskPriority]int
	CompletionRate float64
}

// ComputeTaskStats derives TaskStats from tasks as of now.
func ComputeTaskStats(tasks []model.Task, now time.Time) TaskStats {
	st := TaskStats{
		Total:      len(tasks),
		ByStatus:   make(map[model.TaskStatus]int),
		ByPriority: make(map[model.TaskPriority]int),
	}
	for _, t := range tasks {
		st.ByStatus[t.Status]++
		if t.Priority != "" {
			st.ByPriority[t.Priority]++
		}
		switch t.Status {
		case model.TaskStatusPending, model.TaskStatusInProgress:
			st.Pending++
		case model.TaskStatusActive:
			st.Active++
		case model.TaskStatusPaused:
			st.Paused++
		case model.TaskStatusCompleted:
			st.Completed++
		case model.TaskStatusCancelled:
			st.Cancelled++
		}
		if t.IsOverdue(now) {
			st.Overdue++
		}
	}
	if st.Total > 0 {
		st.CompletionRate = float64(st.Completed) / float64(st.Total) * 100
	}
	return st
}

// MessageStats summarizes a message list.
type MessageStats struct {
	Total       int
	Unread      int
	Unprocessed int
	Processing  int
	Processed   int
	Failed      int
	ByType      map[model.MessageType]int
}

// ComputeMessageStats derives MessageStats from messages.
func ComputeMessageStats(messages []model.Message) MessageStats {
	st := MessageStats{
		Total:  len(messages),
		ByType: make(map[model.MessageType]int),
	}
	for _, m := range messages {
		if !m.IsRead {
			st.Unread++
		}
		if m.MessageType != "" {
			st.ByType[m.MessageType]++
		}
		switch m.Status {
		case model.MessageStatusUnprocessed:
			st.Unprocessed++
		case model.MessageStatusProcessing:
			st.Processing++
		case model.MessageStatusProcessed:
			st.Processed++
		case model.MessageStatusFailed:
			st.Failed++
		}
	}
	return st
}

// ExecutionStats summarizes action executions.
type ExecutionStats struct {
	Total       int
	Pending     int
	Running     int
	Completed   int
	Failed      int
	SuccessRate float64
}

// ComputeExecutionStats derives ExecutionStats from executions. The
// success rate is taken over finished executions only.
func ComputeExecutionStats(execs []model.ActionExecution) ExecutionStats {
	st := ExecutionStats{Total: len(execs)}
	for _, e := range execs {
		switch e.Status {
		case model.ExecutionPending:
			st.Pending++
		case model.ExecutionRunning:
			st.Running++
		case model.ExecutionCompleted:
			st.Completed++
		case model.ExecutionFailed:
			st.Failed++
		}
	}
	if finished := st.Completed + st.Failed; finished > 0 {
		st.SuccessRate = float64(st.Completed) / float64(finished) * 100
	}
	return st
}

// recentWindow is how far back an account counts as recently added.
const recentWindow = 24 * time.Hour

// AccountStats summarizes linked accounts.
type AccountStats struct {
	Total         int
	Connected     int
	RecentlyAdded int
	ByService     map[model.ServiceName]int
}

// ComputeAccountStats derives AccountStats from accounts as of now.
func ComputeAccountStats(accounts []model.LinkedAccount, now time.Time) AccountStats {
	st := AccountStats{
		Total:     len(accounts),
		ByService: make(map[model.ServiceName]int),
	}
	for _, a := range accounts {
		st.ByService[a.ServiceName]++
		if a.Connected() {
			st.Connected++
		}
		if !a.AddedAt.IsZero() && now.Sub(a.AddedAt) <= recentWindow {
			st.RecentlyAdded++
		}
	}
	return st
}

// DashboardStats bundles every summary shown on the dashboard.
type DashboardStats struct {
	Tasks      TaskStats
	Messages   MessageStats
	Executions ExecutionStats
	Accounts   AccountStats
}

// TaskStats computes task statistics over the current collection.
func (s *Store) TaskStats() TaskStats {
	return ComputeTaskStats(s.Tasks.Items(), s.now())
}

// MessageStats computes message statistics over the current collection.
func (s *Store) MessageStats() MessageStats {
	return ComputeMessageStats(s.Messages.Items())
}

// ExecutionStats computes execution statistics over the current
// collection.
func (s *Store) ExecutionStats() ExecutionStats {
	return ComputeExecutionStats(s.Executions.Items())
}

// AccountStats computes account statistics over the current collection.
func (s *Store) AccountStats() AccountStats {
	return ComputeAccountStats(s.Accounts.Items(), s.now())
}

// DashboardStats computes every summary at once.
func (s *Store) DashboardStats() DashboardStats {
	return DashboardStats{
		Tasks:      s.TaskStats(),
		Messages:   s.MessageStats(),
		Executions: s.ExecutionStats(),
		Accounts:   s.AccountStats(),
	}
}

// RecentTasks returns up to n tasks, newest first.
func (s *Store) RecentTasks(n int) []model.Task {
	tasks := s.Tasks.Items()
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
	return head(tasks, n)
}

// RecentExecutions returns up to n executions, most recently started
// first.
func (s *Store) RecentExecutions(n int) []model.ActionExecution {
	execs := s.Executions.Items()
	sort.SliceStable(execs, func(i, j int) bool {
		return execs[i].StartedAt.After(execs[j].StartedAt)
	})
	return head(execs, n)
}

// ConnectedAccount returns the first active account for service.
func (s *Store) ConnectedAccount(service model.ServiceName) (model.LinkedAccount, bool) {
	return s.Accounts.Find(func(a model.LinkedAccount) bool {
		return a.ServiceName == service && a.Connected()
	})
}

// AccountsByService returns every account linked for service.
func (s *Store) AccountsByService(service model.ServiceName) []model.LinkedAccount {
	return s.Accounts.Filter(func(a model.LinkedAccount) bool {
		return a.ServiceName == service
	})
}

func head[T any](items []T, n int) []T {
	if n < 0 || n >= len(items) {
		return items
	}
	return items[:n]
}
