package gateway

import (
	"context"

	"github.com/nhle/taskpilot/internal/model"
)

// FetchTasks loads the current user's tasks and replaces the collection.
func (g *Gateway) FetchTasks(ctx context.Context) Result[[]model.Task] {
	r := fetch[[]model.Task](ctx, g, queryMyTasks, nil, "myTasks", "")
	if r.OK() && live(ctx) {
		g.store.Tasks.SetAll(r.Value)
	}
	return r
}

// FetchTask loads one task and merges it.
func (g *Gateway) FetchTask(ctx context.Context, id model.ID) Result[model.Task] {
	r := fetch[model.Task](ctx, g, queryTask, map[string]any{"id": id}, "task", "Task not found")
	if r.OK() && live(ctx) {
		g.store.Tasks.Merge(r.Value)
	}
	return r
}

// FetchTasksByStatus returns the tasks in one status without touching the
// store.
func (g *Gateway) FetchTasksByStatus(ctx context.Context, status model.TaskStatus) Result[[]model.Task] {
	if !status.Valid() {
		return Invalid[[]model.Task]("Invalid status: " + string(status))
	}
	return fetch[[]model.Task](ctx, g, queryTasksByStatus, map[string]any{"status": status}, "tasksByStatus", "")
}

// CreateTask creates a task and prepends it to the collection.
func (g *Gateway) CreateTask(ctx context.Context, in model.TaskInput) Result[model.Task] {
	if errs := in.Validate(); len(errs) > 0 {
		return Invalid[model.Task](errs...)
	}

	r := mutate[model.Task](ctx, g, mutationCreateTask, map[string]any{"taskData": in}, "createTask", "task")
	if r.OK() && live(ctx) {
		g.store.Tasks.Merge(r.Value)
	}
	return r
}

// UpdateTask updates a task. The response is dropped when the task was
// removed locally while the request was in flight.
func (g *Gateway) UpdateTask(ctx context.Context, id model.ID, in model.TaskInput) Result[model.Task] {
	if errs := in.Validate(); len(errs) > 0 {
		return Invalid[model.Task](errs...)
	}

	mark := g.store.Mark()
	r := mutate[model.Task](ctx, g, mutationUpdateTask, map[string]any{
		"taskId":   id,
		"taskData": in,
	}, "updateTask", "task")
	if r.OK() && live(ctx) && !g.store.Tasks.MergeSince(r.Value, mark) {
		g.logger.Info("dropped update for removed task", "id", id)
	}
	return r
}

// DeleteTask deletes a task and removes it from the collection.
func (g *Gateway) DeleteTask(ctx context.Context, id model.ID) Result[model.ID] {
	r := mutate[model.ID](ctx, g, mutationDeleteTask, map[string]any{"taskId": id}, "deleteTask", "")
	if !r.OK() {
		return r
	}
	if live(ctx) {
		g.store.Tasks.Remove(string(id))
	}
	return Ok(id)
}

// ToggleTaskCompletion flips a task between completed and active.
func (g *Gateway) ToggleTaskCompletion(ctx context.Context, id model.ID) Result[model.Task] {
	t, ok := g.store.Tasks.Get(string(id))
	if !ok {
		return Invalid[model.Task]("Task not found")
	}

	status := model.TaskStatusCompleted
	if t.Status == model.TaskStatusCompleted {
		status = model.TaskStatusActive
	}
	return g.UpdateTask(ctx, id, model.TaskInput{
		Title:       t.Title,
		Description: t.Description,
		Status:      status,
		Priority:    t.Priority,
		DueDate:     t.DueDate,
	})
}
