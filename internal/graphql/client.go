// Package graphql is a thin HTTP client for the backend's GraphQL
// endpoint and the handful of REST auth endpoints beside it.
package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TokenSource yields the current access token. An empty token sends the
// request unauthenticated.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func(ctx context.Context) (string, error)

func (f TokenFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

// Client posts GraphQL operations with Bearer token authentication and
// retries HTTP 429 with backoff.
type Client struct {
	endpoint   string
	restBase   string
	tokens     TokenSource
	httpClient *http.Client
	maxRetries int
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithTokenSource sets where access tokens come from.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithMaxRetries sets how many times a rate-limited request is retried.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithRESTBase sets the base URL used by Post.
func WithRESTBase(base string) Option {
	return func(c *Client) { c.restBase = strings.TrimRight(base, "/") }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a client for the GraphQL endpoint at endpoint.
func NewClient(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		maxRetries: 3,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type request struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
	OperationName string         `json:"operationName,omitempty"`
}

type response struct {
	Data   json.RawMessage `json:"data"`
	Errors QueryErrors     `json:"errors"`
}

var operationPattern = regexp.MustCompile(`^\s*(?:query|mutation|subscription)\s+(\w+)`)

// OperationName returns the name declared by a GraphQL document, or "".
func OperationName(query string) string {
	if m := operationPattern.FindStringSubmatch(query); m != nil {
		return m[1]
	}
	return ""
}

// Do executes a GraphQL operation and decodes its data into out. A
// response carrying top-level errors is a TransportError even when
// partial data is present.
func (c *Client) Do(ctx context.Context, query string, vars map[string]any, out any) error {
	op := OperationName(query)
	if op == "" {
		op = "graphql"
	}

	status, body, err := c.send(ctx, op, c.endpoint, request{
		Query:         query,
		Variables:     vars,
		OperationName: OperationName(query),
	})
	if err != nil {
		return err
	}

	if status == http.StatusUnauthorized {
		return &AuthError{Op: op, Message: "access token rejected"}
	}
	if status < 200 || status >= 300 {
		return &TransportError{Op: op, Status: status, Err: fmt.Errorf("unexpected response: %s", truncate(body))}
	}

	var resp response
	if err := json.Unmarshal(body, &resp); err != nil {
		return &TransportError{Op: op, Status: status, Err: fmt.Errorf("decoding response: %w", err)}
	}
	if len(resp.Errors) > 0 {
		return &TransportError{Op: op, Status: status, Err: resp.Errors}
	}
	if out == nil {
		return nil
	}
	if len(resp.Data) == 0 || bytes.Equal(resp.Data, []byte("null")) {
		return &TransportError{Op: op, Status: status, Err: errors.New("response has no data")}
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return &TransportError{Op: op, Status: status, Err: fmt.Errorf("decoding data: %w", err)}
	}
	return nil
}

// Post sends a JSON body to a REST path under the configured base URL and
// decodes the JSON response into out. 4xx responses are StatusErrors.
func (c *Client) Post(ctx context.Context, path string, body any, out any) error {
	op := "POST " + path

	status, respBody, err := c.send(ctx, op, c.restBase+path, body)
	if err != nil {
		return err
	}

	if status >= 400 && status < 500 {
		return &StatusError{Method: http.MethodPost, Path: path, Status: status, Body: respBody}
	}
	if status < 200 || status >= 300 {
		return &TransportError{Op: op, Status: status, Err: fmt.Errorf("unexpected response: %s", truncate(respBody))}
	}

	// No content to parse (e.g. 204).
	if out == nil || status == http.StatusNoContent || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return &TransportError{Op: op, Status: status, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}

// send posts body as JSON, retrying on 429. It returns the final status
// and body; err is set only when no usable response arrived.
func (c *Client) send(ctx context.Context, op, url string, body any) (int, []byte, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return 0, nil, fmt.Errorf("marshaling request body: %w", err)
	}

	token := ""
	if c.tokens != nil {
		token, err = c.tokens.Token(ctx)
		if err != nil {
			return 0, nil, &TransportError{Op: op, Err: fmt.Errorf("reading access token: %w", err)}
		}
	}

	requestID := uuid.NewString()
	log := c.logger.With("op", op, "request_id", requestID)

	var lastStatus int
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
		if err != nil {
			return 0, nil, &TransportError{Op: op, Err: fmt.Errorf("creating request: %w", err)}
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Request-ID", requestID)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		if err != nil {
			log.Warn("request failed", "attempt", attempt, "err", err)
			return 0, nil, &TransportError{Op: op, Err: err}
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return 0, nil, &TransportError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("reading response body: %w", readErr)}
		}

		log.Debug("request done",
			"attempt", attempt,
			"status", resp.StatusCode,
			"duration", time.Since(start),
		)

		if resp.StatusCode == http.StatusTooManyRequests {
			lastStatus = resp.StatusCode
			wait := retryAfterDuration(resp, attempt)
			log.Info("rate limited", "wait", wait)

			select {
			case <-ctx.Done():
				return 0, nil, &TransportError{Op: op, Err: ctx.Err()}
			case <-time.After(wait):
				continue
			}
		}

		return resp.StatusCode, respBody, nil
	}

	return 0, nil, &TransportError{
		Op:     op,
		Status: lastStatus,
		Err:    fmt.Errorf("max retries (%d) exceeded: rate limited", c.maxRetries),
	}
}

// retryAfterDuration reads the Retry-After header and computes a wait
// duration. Falls back to exponential backoff if the header is missing.
func retryAfterDuration(resp *http.Response, attempt int) time.Duration {
	if header := resp.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.Atoi(header); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}

	// Exponential backoff: 1s, 2s, 4s, ...
	backoff := time.Duration(1<<uint(attempt)) * time.Second
	if backoff > 30*time.Second {
		backoff = 30 * time.Second
	}
	return backoff
}

func truncate(b []byte) string {
	const limit = 200
	if len(b) > limit {
		return string(b[:limit]) + "..."
	}
	return string(b)
}
