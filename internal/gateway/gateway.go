// Package gateway performs backend mutations and queries on behalf of the
// UI. Each operation issues at most one request, normalizes the response
// envelope into a Result and applies the outcome to the local store only
// on success.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/nhle/taskpilot/internal/graphql"
	"github.com/nhle/taskpilot/internal/model"
	"github.com/nhle/taskpilot/internal/oauth"
	"github.com/nhle/taskpilot/internal/state"
	"github.com/nhle/taskpilot/internal/store"
)

// Default REST paths of the auth endpoints.
const (
	DefaultLoginPath    = "/auth/login/"
	DefaultRegisterPath = "/auth/register/"
	DefaultRefreshPath  = "/token/refresh/"
)

// Gateway is the single entry point for remote operations.
type Gateway struct {
	client  *graphql.Client
	store   *state.Store
	storage store.Storage
	oauth   *oauth.Provider
	logger  *slog.Logger

	authTransport string
	logoutPath    string
	refreshPath   string

	accounts singleflight.Group
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithOAuth enables InitiateOAuth and CompleteOAuth.
func WithOAuth(p *oauth.Provider) Option {
	return func(g *Gateway) { g.oauth = p }
}

// WithAuthConfig selects the login transport and the optional logout path.
func WithAuthConfig(cfg model.AuthConfig) Option {
	return func(g *Gateway) {
		if cfg.Transport != "" {
			g.authTransport = cfg.Transport
		}
		g.logoutPath = cfg.LogoutPath
	}
}

// WithRefreshPath overrides the REST token refresh path.
func WithRefreshPath(path string) Option {
	return func(g *Gateway) { g.refreshPath = path }
}

// New returns a Gateway that talks through client, applies results to st
// and persists the session in storage.
func New(client *graphql.Client, st *state.Store, storage store.Storage, opts ...Option) *Gateway {
	g := &Gateway{
		client:        client,
		store:         st,
		storage:       storage,
		logger:        slog.Default(),
		authTransport: model.AuthTransportGraphQL,
		refreshPath:   DefaultRefreshPath,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// AccessToken returns a token source reading the access token from
// storage, for use with graphql.WithTokenSource.
func AccessToken(storage store.Storage) graphql.TokenFunc {
	return func(ctx context.Context) (string, error) {
		tok, _, err := storage.Get(ctx, store.KeyAccessToken)
		return tok, err
	}
}

// call runs one GraphQL operation, tracking loading and connection state.
func (g *Gateway) call(ctx context.Context, query string, vars map[string]any, out any) error {
	done := g.store.BeginLoading()
	defer done()

	err := g.client.Do(ctx, query, vars, out)
	g.observe(ctx, err)
	if err != nil {
		g.logger.Warn("request failed", "op", graphql.OperationName(query), "err", err)
	}
	return err
}

// post runs one REST call, tracking loading and connection state.
func (g *Gateway) post(ctx context.Context, path string, body, out any) error {
	done := g.store.BeginLoading()
	defer done()

	err := g.client.Post(ctx, path, body, out)
	g.observe(ctx, err)
	if err != nil {
		g.logger.Warn("request failed", "op", "POST "+path, "err", err)
	}
	return err
}

func (g *Gateway) observe(ctx context.Context, err error) {
	if ctx.Err() != nil {
		return
	}
	var te *graphql.TransportError
	if errors.As(err, &te) && te.Unreachable() {
		g.store.SetConnected(false)
		return
	}
	g.store.SetConnected(true)
}

// live reports whether the caller still wants the result applied.
func live(ctx context.Context) bool { return ctx.Err() == nil }

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func malformed[T any](g *Gateway, op, what string) Result[T] {
	err := fmt.Errorf("%s: %w: %s", op, ErrMalformed, what)
	g.logger.Warn("unexpected response", "op", op, "err", err)
	return Failed[T](err)
}

// fetch runs a query and decodes data[field] into T. A null field yields
// a business failure carrying notFound, or the zero value when notFound
// is empty.
func fetch[T any](ctx context.Context, g *Gateway, query string, vars map[string]any, field, notFound string) Result[T] {
	var data map[string]json.RawMessage
	if err := g.call(ctx, query, vars, &data); err != nil {
		return Failed[T](err)
	}

	raw, ok := data[field]
	if !ok {
		return malformed[T](g, field, "missing field")
	}
	var v T
	if isNull(raw) {
		if notFound != "" {
			return Business[T](notFound)
		}
		return Ok(v)
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return malformed[T](g, field, err.Error())
	}
	return Ok(v)
}

// mutate runs a mutation whose payload is the envelope plus, when entity
// is set, the affected entity under that key.
func mutate[T any](ctx context.Context, g *Gateway, query string, vars map[string]any, field, entity string) Result[T] {
	var data map[string]json.RawMessage
	if err := g.call(ctx, query, vars, &data); err != nil {
		return Failed[T](err)
	}

	raw, ok := data[field]
	if !ok || isNull(raw) {
		return malformed[T](g, field, "missing payload")
	}
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return malformed[T](g, field, err.Error())
	}
	if !env.Success {
		g.logger.Info("rejected", "op", field, "errors", env.Errors)
		return Business[T](env.Messages()...)
	}

	var v T
	if entity == "" {
		return Ok(v)
	}
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(raw, &payload); err != nil {
		return malformed[T](g, field, err.Error())
	}
	if isNull(payload[entity]) {
		return malformed[T](g, field, "success without "+entity)
	}
	if err := json.Unmarshal(payload[entity], &v); err != nil {
		return malformed[T](g, field, err.Error())
	}
	return Ok(v)
}
