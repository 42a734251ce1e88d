package gateway

import (
	"context"
	"encoding/json"

	"github.com/nhle/taskpilot/internal/model"
)

// FetchActions loads the available actions and replaces the collection.
func (g *Gateway) FetchActions(ctx context.Context) Result[[]model.Action] {
	r := fetch[[]model.Action](ctx, g, queryAvailableActions, nil, "availableActions", "")
	if r.OK() && live(ctx) {
		g.store.Actions.SetAll(r.Value)
	}
	return r
}

// FetchExecutions loads the current user's action executions and
// replaces the collection.
func (g *Gateway) FetchExecutions(ctx context.Context) Result[[]model.ActionExecution] {
	r := fetch[[]model.ActionExecution](ctx, g, queryMyExecutions, nil, "myActionExecutions", "")
	if r.OK() && live(ctx) {
		g.store.Executions.SetAll(r.Value)
	}
	return r
}

// ExecuteAction runs an action. When the action is known locally its
// config is checked against the action type's schema first.
func (g *Gateway) ExecuteAction(ctx context.Context, in model.ExecuteActionInput) Result[model.ActionExecution] {
	if in.ActionID == "" {
		return Invalid[model.ActionExecution]("Action is required")
	}
	if a, ok := g.store.Actions.Get(string(in.ActionID)); ok && a.RequiresConfig {
		if errs := model.ValidateActionConfig(a.ActionType, in.ConfigData); len(errs) > 0 {
			return Invalid[model.ActionExecution](errs...)
		}
	}

	data := map[string]any{"actionId": in.ActionID}
	if in.TaskID != "" {
		data["taskId"] = in.TaskID
	}
	if len(in.ConfigData) > 0 {
		// configData is a JSONString scalar on the backend.
		raw, err := json.Marshal(in.ConfigData)
		if err != nil {
			return Invalid[model.ActionExecution]("Configuration is not valid JSON")
		}
		data["configData"] = string(raw)
	}

	r := mutate[model.ActionExecution](ctx, g, mutationExecuteAction, map[string]any{"executionData": data}, "executeAction", "execution")
	if r.OK() && live(ctx) {
		g.store.Executions.Merge(r.Value)
	}
	return r
}
