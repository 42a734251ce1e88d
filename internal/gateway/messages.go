package gateway

import (
	"context"

	"github.com/nhle/taskpilot/internal/model"
)

// FetchMessages loads the current user's messages and replaces the
// collection.
func (g *Gateway) FetchMessages(ctx context.Context) Result[[]model.Message] {
	r := fetch[[]model.Message](ctx, g, queryMyMessages, nil, "myMessages", "")
	if r.OK() && live(ctx) {
		g.store.Messages.SetAll(r.Value)
	}
	return r
}

// FetchUnreadMessages returns unread messages without touching the store.
func (g *Gateway) FetchUnreadMessages(ctx context.Context) Result[[]model.Message] {
	return fetch[[]model.Message](ctx, g, queryUnreadMessages, nil, "unreadMessages", "")
}

// FetchUnprocessedMessages returns messages still awaiting processing
// without touching the store.
func (g *Gateway) FetchUnprocessedMessages(ctx context.Context) Result[[]model.Message] {
	return fetch[[]model.Message](ctx, g, queryUnprocessedMessages, nil, "unprocessedMessages", "")
}

// FetchMessage loads one message and merges it.
func (g *Gateway) FetchMessage(ctx context.Context, id model.ID) Result[model.Message] {
	r := fetch[model.Message](ctx, g, queryMessage, map[string]any{"id": id}, "message", "Message not found")
	if r.OK() && live(ctx) {
		g.store.Messages.Merge(r.Value)
	}
	return r
}

// CreateMessage creates a message and prepends it to the collection.
func (g *Gateway) CreateMessage(ctx context.Context, in model.MessageInput) Result[model.Message] {
	if errs := in.Validate(); len(errs) > 0 {
		return Invalid[model.Message](errs...)
	}

	r := mutate[model.Message](ctx, g, mutationCreateMessage, map[string]any{"messageData": in}, "createMessage", "message")
	if r.OK() && live(ctx) {
		g.store.Messages.Merge(r.Value)
	}
	return r
}

// MarkMessageRead marks a message as read. The backend returns only the
// changed fields; they are patched onto the stored message. A message
// that is not in the store stays out of it and the partial message is
// returned as is.
func (g *Gateway) MarkMessageRead(ctx context.Context, id model.ID) Result[model.Message] {
	mark := g.store.Mark()
	r := mutate[model.Message](ctx, g, mutationMarkMessageRead, map[string]any{"messageId": id}, "markMessageAsRead", "message")
	if !r.OK() || !live(ctx) {
		return r
	}

	cur, ok := g.store.Messages.Get(string(id))
	if !ok {
		return r
	}
	cur.IsRead = r.Value.IsRead
	cur.ReadAt = r.Value.ReadAt
	g.store.Messages.MergeSince(cur, mark)
	return Ok(cur)
}

// SummarizeMessage asks the backend to summarize a message and patches
// the summary, status and processing time onto the stored message, if any.
func (g *Gateway) SummarizeMessage(ctx context.Context, id model.ID) Result[model.Message] {
	mark := g.store.Mark()
	r := mutate[model.Message](ctx, g, mutationSummarizeMessage, map[string]any{"messageId": id}, "summarizeMessage", "message")
	if !r.OK() || !live(ctx) {
		return r
	}

	cur, ok := g.store.Messages.Get(string(id))
	if !ok {
		return r
	}
	cur.Summary = r.Value.Summary
	if r.Value.Status != "" {
		cur.Status = r.Value.Status
	}
	if r.Value.ProcessedAt != nil {
		cur.ProcessedAt = r.Value.ProcessedAt
	}
	if !g.store.Messages.MergeSince(cur, mark) {
		g.logger.Info("dropped summary for removed message", "id", id)
	}
	return Ok(cur)
}

// DeleteMessage deletes a message and removes it from the collection.
func (g *Gateway) DeleteMessage(ctx context.Context, id model.ID) Result[model.ID] {
	r := mutate[model.ID](ctx, g, mutationDeleteMessage, map[string]any{"messageId": id}, "deleteMessage", "")
	if !r.OK() {
		return r
	}
	if live(ctx) {
		g.store.Messages.Remove(string(id))
	}
	return Ok(id)
}
