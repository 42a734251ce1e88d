package state

import (
	"sync"
	"sync/atomic"
)

// Name identifies a collection (or the session slot) for observers.
type Name string

const (
	Tasks         Name = "tasks"
	Messages      Name = "messages"
	Accounts      Name = "accounts"
	Actions       Name = "actions"
	Executions    Name = "executions"
	Notifications Name = "notifications"

	// Session covers the current user, selections, loading and connection
	// status.
	Session Name = "session"
)

// ChangeKind describes what a mutation did.
type ChangeKind int

const (
	ChangeReset ChangeKind = iota
	ChangeMerged
	ChangeRemoved
	ChangeCleared
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeReset:
		return "reset"
	case ChangeMerged:
		return "merged"
	case ChangeRemoved:
		return "removed"
	case ChangeCleared:
		return "cleared"
	default:
		return "unknown"
	}
}

// Change is delivered to observers after every mutation. ID is set for
// merges and removals.
type Change struct {
	Collection Name
	Kind       ChangeKind
	ID         string
}

// Observer receives changes synchronously on the mutating goroutine.
type Observer func(Change)

type subscription struct {
	id     int
	fn     Observer
	filter map[Name]bool
}

// hub fans changes out to observers and owns the operation sequence shared
// by every collection of a store.
type hub struct {
	mu     sync.Mutex
	nextID int
	subs   []subscription

	seq atomic.Uint64
}

func (h *hub) subscribe(fn Observer, names ...Name) func() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	sub := subscription{id: h.nextID, fn: fn}
	if len(names) > 0 {
		sub.filter = make(map[Name]bool, len(names))
		for _, n := range names {
			sub.filter[n] = true
		}
	}
	h.subs = append(h.subs, sub)

	id := sub.id
	var once sync.Once
	return func() {
		once.Do(func() { h.unsubscribe(id) })
	}
}

func (h *hub) unsubscribe(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i, s := range h.subs {
		if s.id == id {
			h.subs = append(h.subs[:i:i], h.subs[i+1:]...)
			return
		}
	}
}

// emit calls every matching observer in registration order. The
// subscriber list is snapshotted so observers may subscribe or
// unsubscribe while being notified.
func (h *hub) emit(c Change) {
	h.mu.Lock()
	subs := h.subs
	h.mu.Unlock()

	for _, s := range subs {
		if s.filter != nil && !s.filter[c.Collection] {
			continue
		}
		s.fn(c)
	}
}

func (h *hub) next() uint64 { return h.seq.Add(1) }

func (h *hub) mark() uint64 { return h.seq.Load() }
