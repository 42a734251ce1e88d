package graphql

import (
	"errors"
	"fmt"
	"strings"
)

// TransportError is any failure to obtain a usable response: network
// errors, unexpected statuses, undecodable bodies and top-level GraphQL
// errors. Status is zero when no response was received.
type TransportError struct {
	Op     string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Unreachable reports whether the server could not be reached at all.
func (e *TransportError) Unreachable() bool { return e.Status == 0 }

// AuthError indicates that the access token was rejected (HTTP 401).
type AuthError struct {
	Op      string
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error (%s): %s", e.Op, e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// StatusError is a REST 4xx response. The body is kept so callers can
// extract field or business messages.
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d on %s %s: %s", e.Status, e.Method, e.Path, string(e.Body))
}

// ErrorEntry is one element of a GraphQL response's top-level errors.
type ErrorEntry struct {
	Message string `json:"message"`
	Path    []any  `json:"path,omitempty"`
}

// QueryErrors is the top-level errors array of a GraphQL response.
type QueryErrors []ErrorEntry

func (e QueryErrors) Error() string {
	msgs := make([]string, len(e))
	for i, entry := range e {
		msgs[i] = entry.Message
	}
	return "graphql: " + strings.Join(msgs, "; ")
}
