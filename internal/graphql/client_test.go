package graphql

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func staticToken(tok string) TokenFunc {
	return func(context.Context) (string, error) { return tok, nil }
}

func TestDoSendsOperationWithBearerToken(t *testing.T) {
	var got request
	var auth, requestID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		requestID = r.Header.Get("X-Request-ID")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"data":{"task":{"id":"7","title":"Ship"}}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithTokenSource(staticToken("tok1")), WithLogger(quietLogger()))

	var out struct {
		Task struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"task"`
	}
	err := c.Do(context.Background(), `query GetTask($id: ID!) { task(id: $id) { id title } }`,
		map[string]any{"id": "7"}, &out)
	if err != nil {
		t.Fatalf("do: %v", err)
	}

	if auth != "Bearer tok1" {
		t.Errorf("expected bearer token, got %q", auth)
	}
	if requestID == "" {
		t.Error("expected X-Request-ID header")
	}
	if got.OperationName != "GetTask" {
		t.Errorf("expected operationName GetTask, got %q", got.OperationName)
	}
	if got.Variables["id"] != "7" {
		t.Errorf("expected id variable, got %v", got.Variables)
	}
	if out.Task.Title != "Ship" {
		t.Errorf("expected decoded task, got %+v", out.Task)
	}
}

func TestDoWithoutTokenOmitsAuthorization(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.Write([]byte(`{"data":{}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithTokenSource(staticToken("")), WithLogger(quietLogger()))
	if err := c.Do(context.Background(), `query Q { me { id } }`, nil, nil); err != nil {
		t.Fatalf("do: %v", err)
	}
	if auth != "" {
		t.Errorf("expected no Authorization header, got %q", auth)
	}
}

func TestDoErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		check   func(error) bool
		wantMsg string
	}{
		{
			name:   "unauthorized",
			status: http.StatusUnauthorized,
			body:   `{}`,
			check:  IsAuthError,
		},
		{
			name:   "top-level errors",
			status: http.StatusOK,
			body:   `{"errors":[{"message":"Cannot query field"}]}`,
			check: func(err error) bool {
				var qe QueryErrors
				return errors.As(err, &qe) && qe[0].Message == "Cannot query field"
			},
		},
		{
			name:   "malformed body",
			status: http.StatusOK,
			body:   `<html>`,
			check: func(err error) bool {
				var te *TransportError
				return errors.As(err, &te) && te.Status == http.StatusOK
			},
		},
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			body:   `boom`,
			check: func(err error) bool {
				var te *TransportError
				return errors.As(err, &te) && te.Status == http.StatusInternalServerError && !te.Unreachable()
			},
		},
		{
			name:   "null data",
			status: http.StatusOK,
			body:   `{"data":null}`,
			check: func(err error) bool {
				var te *TransportError
				return errors.As(err, &te)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient(srv.URL, WithLogger(quietLogger()))
			var out map[string]any
			err := c.Do(context.Background(), `query Q { me { id } }`, nil, &out)
			if err == nil {
				t.Fatal("expected error")
			}
			if !tt.check(err) {
				t.Errorf("unexpected error %T: %v", err, err)
			}
		})
	}
}

func TestDoRetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	var ids []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids = append(ids, r.Header.Get("X-Request-ID"))
		if calls.Add(1) < 3 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"data":{"ok":true}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithLogger(quietLogger()))
	var out struct {
		OK bool `json:"ok"`
	}
	if err := c.Do(context.Background(), `query Ping { ok }`, nil, &out); err != nil {
		t.Fatalf("do: %v", err)
	}
	if calls.Load() != 3 || !out.OK {
		t.Errorf("expected success on third attempt, calls=%d", calls.Load())
	}
	if ids[0] != ids[2] {
		t.Error("expected retries to reuse the request id")
	}
}

func TestDoGivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithMaxRetries(1), WithLogger(quietLogger()))
	err := c.Do(context.Background(), `query Ping { ok }`, nil, nil)

	var te *TransportError
	if !errors.As(err, &te) || te.Status != http.StatusTooManyRequests {
		t.Fatalf("expected rate limit transport error, got %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("expected 2 attempts, got %d", calls.Load())
	}
}

func TestDoUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient(url, WithLogger(quietLogger()))
	err := c.Do(context.Background(), `query Ping { ok }`, nil, nil)

	var te *TransportError
	if !errors.As(err, &te) || !te.Unreachable() {
		t.Fatalf("expected unreachable transport error, got %v", err)
	}
}

func TestPostStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login/" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"Invalid credentials"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/graphql/", WithRESTBase(srv.URL+"/"), WithLogger(quietLogger()))
	err := c.Post(context.Background(), "/auth/login/", map[string]string{"email": "a@b.com"}, nil)

	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.Status != http.StatusBadRequest || string(se.Body) != `{"error":"Invalid credentials"}` {
		t.Errorf("unexpected status error %+v", se)
	}
}

func TestOperationName(t *testing.T) {
	tests := map[string]string{
		"query GetMyTasks { myTasks { id } }":          "GetMyTasks",
		"\n  mutation CreateTask($d: TaskInput!) { x }": "CreateTask",
		"{ me { id } }": "",
	}
	for q, want := range tests {
		if got := OperationName(q); got != want {
			t.Errorf("OperationName(%q) = %q, want %q", q, got, want)
		}
	}
}
