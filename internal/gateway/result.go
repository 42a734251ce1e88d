package gateway

import (
	"errors"
	"strings"

	"github.com/nhle/taskpilot/internal/graphql"
)

// Kind classifies the outcome of a gateway operation.
type Kind int

const (
	// KindOK means the backend accepted the operation.
	KindOK Kind = iota

	// KindValidation means the input was rejected before any request.
	KindValidation

	// KindBusiness means the backend answered success=false.
	KindBusiness

	// KindTransport means no usable answer was obtained.
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindValidation:
		return "validation"
	case KindBusiness:
		return "business"
	case KindTransport:
		return "transport"
	default:
		return "unknown"
	}
}

// Result is the single outcome type of every gateway operation. Errors
// holds displayable messages for validation and business failures; Err
// holds the cause of a transport failure.
type Result[T any] struct {
	Kind   Kind
	Value  T
	Errors []string
	Err    error
}

// OK reports whether the operation succeeded.
func (r Result[T]) OK() bool { return r.Kind == KindOK }

// Message returns a single displayable message for a failed result.
func (r Result[T]) Message() string {
	switch r.Kind {
	case KindOK:
		return ""
	case KindValidation, KindBusiness:
		return strings.Join(r.Errors, "; ")
	}

	if graphql.IsAuthError(r.Err) {
		return "Your session has expired. Please sign in again."
	}
	var te *graphql.TransportError
	if errors.As(r.Err, &te) && te.Unreachable() {
		return "Unable to reach the server. Please try again."
	}
	return "The server returned an unexpected response. Please try again."
}

// Ok wraps a successful value.
func Ok[T any](v T) Result[T] {
	return Result[T]{Kind: KindOK, Value: v}
}

// Invalid is a client-side validation failure.
func Invalid[T any](errs ...string) Result[T] {
	return Result[T]{Kind: KindValidation, Errors: errs}
}

// Business is a success=false answer from the backend.
func Business[T any](errs ...string) Result[T] {
	return Result[T]{Kind: KindBusiness, Errors: errs}
}

// Failed is a transport failure.
func Failed[T any](err error) Result[T] {
	return Result[T]{Kind: KindTransport, Err: err}
}

// ErrMalformed marks a response that decoded but lacks what the operation
// promised, such as success=true without the entity.
var ErrMalformed = errors.New("malformed response")

// Envelope is the {success, errors} part shared by every mutation payload.
type Envelope struct {
	Success bool     `json:"success"`
	Errors  []string `json:"errors"`
}

// Messages returns the envelope's errors, or a generic message when the
// backend failed without saying why.
func (e Envelope) Messages() []string {
	var out []string
	for _, m := range e.Errors {
		if strings.TrimSpace(m) != "" {
			out = append(out, m)
		}
	}
	if len(out) == 0 {
		return []string{"Unknown error"}
	}
	return out
}
