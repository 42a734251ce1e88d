// Package lifecycle ties asynchronous operations to the surface that
// started them, so responses arriving after teardown are discarded.
package lifecycle

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Scope owns a cancellable context and the operations running under it.
// One failing operation does not cancel the others.
type Scope struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
	g      errgroup.Group
}

// New derives a scope from parent.
func New(parent context.Context) *Scope {
	ctx, cancel := context.WithCancel(parent)
	return &Scope{ctx: ctx, cancel: cancel}
}

// Context returns the scope's context. It is cancelled by Close.
func (s *Scope) Context() context.Context { return s.ctx }

// Go runs fn under the scope. It reports false, without running fn, once
// the scope is closed.
func (s *Scope) Go(fn func(ctx context.Context) error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.g.Go(func() error { return fn(s.ctx) })
	return true
}

// Close cancels every outstanding operation and waits for them. It returns
// the first error other than cancellation.
func (s *Scope) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	err := s.g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
