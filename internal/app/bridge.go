package app

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/taskpilot/internal/state"
)

// ChangeMsg is a tea.Msg sent when an observed store collection changes.
type ChangeMsg struct {
	state.Change
}

// Bridge forwards store observer notifications to a Bubble Tea program.
// Observers run synchronously in the mutating goroutine, so the bridge
// never blocks: when the program is behind, changes are dropped and the
// next render reads the store anyway.
type Bridge struct {
	ch          chan state.Change
	done        chan struct{}
	once        sync.Once
	unsubscribe func()
}

// NewBridge subscribes to the named collections of st, or to all of them
// when none are named.
func NewBridge(st *state.Store, names ...state.Name) *Bridge {
	b := &Bridge{
		ch:   make(chan state.Change, 64),
		done: make(chan struct{}),
	}
	b.unsubscribe = st.Subscribe(b.forward, names...)
	return b
}

func (b *Bridge) forward(c state.Change) {
	select {
	case <-b.done:
	case b.ch <- c:
	default:
	}
}

// Wait returns a tea.Cmd that delivers the next change. It returns nil
// once the bridge is closed.
func (b *Bridge) Wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case c := <-b.ch:
			return ChangeMsg{Change: c}
		case <-b.done:
			return nil
		}
	}
}

// Close unsubscribes from the store and releases pending Wait commands.
func (b *Bridge) Close() {
	b.once.Do(func() {
		b.unsubscribe()
		close(b.done)
	})
}
