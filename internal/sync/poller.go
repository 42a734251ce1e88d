// Package sync watches for external account linking to complete. The
// provider redirect lands outside the client, so completion is detected
// by polling the local store for a newly active account.
package sync

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/taskpilot/internal/model"
	"github.com/nhle/taskpilot/internal/oauth"
	"github.com/nhle/taskpilot/internal/state"
)

// State is the lifecycle state of a completion flow.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateConnected
	StateTimedOut
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateTimedOut:
		return "timed out"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether the flow has finished.
func (s State) Terminal() bool { return s >= StateConnected }

// Defaults for the poll interval and flow lifetime.
const (
	DefaultInterval = time.Second
	DefaultTimeout  = 5 * time.Minute
)

// refreshTimeout bounds the list re-fetch after a successful link.
const refreshTimeout = 30 * time.Second

// RefreshFunc re-fetches the linked account list.
type RefreshFunc func(ctx context.Context) error

// FlowDoneMsg is a tea.Msg sent when a flow reaches a terminal state.
type FlowDoneMsg struct {
	Service model.ServiceName
	State   State
}

// Status is the latest known state of the flow for one service.
type Status struct {
	Service    model.ServiceName
	State      State
	StartedAt  time.Time
	FinishedAt time.Time
}

// Flow is one in-progress wait for a service to become connected.
type Flow struct {
	Service   model.ServiceName
	StartedAt time.Time

	mu         gosync.Mutex
	state      State
	finishedAt time.Time
	cancel     context.CancelFunc
	done       chan struct{}
}

// State returns the current state of the flow.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Done is closed when the flow reaches a terminal state.
func (f *Flow) Done() <-chan struct{} { return f.done }

// Wait blocks until the flow finishes or ctx is done.
func (f *Flow) Wait(ctx context.Context) (State, error) {
	select {
	case <-f.done:
		return f.State(), nil
	case <-ctx.Done():
		return f.State(), ctx.Err()
	}
}

// Cancel stops the flow. It has no effect once the flow has finished.
func (f *Flow) Cancel() { f.cancel() }

func (f *Flow) set(s State) {
	f.mu.Lock()
	f.state = s
	if s.Terminal() {
		f.finishedAt = time.Now()
	}
	f.mu.Unlock()
}

func (f *Flow) status() Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Status{Service: f.Service, State: f.state, StartedAt: f.StartedAt, FinishedAt: f.finishedAt}
}

// Poller starts and tracks completion flows.
type Poller struct {
	store    *state.Store
	refresh  RefreshFunc
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger

	mu     gosync.Mutex
	latest map[model.ServiceName]*Flow
	active map[*Flow]struct{}
	wg     gosync.WaitGroup
}

// Option configures a Poller.
type Option func(*Poller)

// WithInterval sets how often the store is checked.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithTimeout sets how long a flow waits before giving up.
func WithTimeout(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Poller) {
		if l != nil {
			p.logger = l
		}
	}
}

// New creates a Poller that reads accounts from st and calls refresh once
// per completed flow.
func New(st *state.Store, refresh RefreshFunc, opts ...Option) *Poller {
	p := &Poller{
		store:    st,
		refresh:  refresh,
		interval: DefaultInterval,
		timeout:  DefaultTimeout,
		logger:   slog.Default(),
		latest:   make(map[model.ServiceName]*Flow),
		active:   make(map[*Flow]struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Watch starts a flow that completes when an active account for service
// appears that was not present when the flow started. Concurrent flows
// for the same service are not deduplicated.
func (p *Poller) Watch(ctx context.Context, service model.ServiceName) *Flow {
	ctx, cancel := context.WithCancel(ctx)
	f := &Flow{
		Service:   service,
		StartedAt: time.Now(),
		state:     StateConnecting,
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	baseline := p.activeIDs(service)

	p.mu.Lock()
	p.latest[service] = f
	p.active[f] = struct{}{}
	p.wg.Add(1)
	p.mu.Unlock()

	p.logger.Info("waiting for account", "service", service, "timeout", p.timeout)
	go p.run(ctx, f, baseline)
	return f
}

func (p *Poller) run(ctx context.Context, f *Flow, baseline map[string]bool) {
	defer p.wg.Done()
	defer func() {
		f.cancel()
		p.mu.Lock()
		delete(p.active, f)
		p.mu.Unlock()
		close(f.done)
	}()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	deadline := time.NewTimer(p.timeout)
	defer deadline.Stop()

	for {
		select {
		case <-ctx.Done():
			f.set(StateCancelled)
			p.logger.Info("account wait cancelled", "service", f.Service)
			return

		case <-deadline.C:
			f.set(StateTimedOut)
			p.logger.Info("account wait timed out", "service", f.Service)
			return

		case <-ticker.C:
			if !p.newlyActive(f.Service, baseline) {
				continue
			}
			f.set(StateConnected)
			p.complete(ctx, f.Service)
			return
		}
	}
}

// complete refreshes the account list once and announces the connection.
func (p *Poller) complete(ctx context.Context, service model.ServiceName) {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
	defer cancel()

	if err := p.refresh(rctx); err != nil {
		p.logger.Warn("refreshing accounts", "service", service, "err", err)
	}
	p.store.ShowSuccess("Success", fmt.Sprintf("%s connected successfully!", oauth.DisplayName(service)))
	p.logger.Info("account connected", "service", service)
}

func (p *Poller) activeIDs(service model.ServiceName) map[string]bool {
	ids := make(map[string]bool)
	for _, a := range p.store.AccountsByService(service) {
		if a.IsActive {
			ids[a.GetID()] = true
		}
	}
	return ids
}

func (p *Poller) newlyActive(service model.ServiceName, baseline map[string]bool) bool {
	for _, a := range p.store.AccountsByService(service) {
		if a.IsActive && !baseline[a.GetID()] {
			return true
		}
	}
	return false
}

// Statuses returns the latest flow state per service, ordered by service.
func (p *Poller) Statuses() []Status {
	p.mu.Lock()
	flows := make([]*Flow, 0, len(p.latest))
	for _, f := range p.latest {
		flows = append(flows, f)
	}
	p.mu.Unlock()

	out := make([]Status, len(flows))
	for i, f := range flows {
		out[i] = f.status()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Service < out[j].Service })
	return out
}

// Stop cancels every running flow and waits for them to finish.
func (p *Poller) Stop() {
	p.mu.Lock()
	for f := range p.active {
		f.cancel()
	}
	p.mu.Unlock()

	p.wg.Wait()
}

// WaitForFlow returns a tea.Cmd that blocks until f finishes and reports
// its final state.
func WaitForFlow(f *Flow) tea.Cmd {
	return func() tea.Msg {
		<-f.done
		return FlowDoneMsg{Service: f.Service, State: f.State()}
	}
}
