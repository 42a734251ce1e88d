package app

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/taskpilot/internal/gateway"
	"github.com/nhle/taskpilot/internal/keys"
	"github.com/nhle/taskpilot/internal/lifecycle"
	"github.com/nhle/taskpilot/internal/model"
	"github.com/nhle/taskpilot/internal/oauth"
	"github.com/nhle/taskpilot/internal/state"
	appsync "github.com/nhle/taskpilot/internal/sync"
)

// Pane is one of the lists shown by the live view.
type Pane int

const (
	PaneTasks Pane = iota
	PaneMessages
	PaneAccounts
	paneCount
)

func (p Pane) String() string {
	switch p {
	case PaneTasks:
		return "Tasks"
	case PaneMessages:
		return "Messages"
	case PaneAccounts:
		return "Accounts"
	default:
		return ""
	}
}

// resultMsg carries the outcome of a gateway call started from the view.
// Failure is empty on success.
type resultMsg struct {
	op      string
	failure string
}

// Model is the root Bubble Tea model of the live view. It renders
// straight from the store and re-renders whenever the bridge reports a
// change.
type Model struct {
	store  *state.Store
	gw     *gateway.Gateway
	poller *appsync.Poller
	scope  *lifecycle.Scope
	bridge *Bridge

	keys    *keys.KeyMap
	help    help.Model
	spinner spinner.Model
	layout  Layout

	pane    Pane
	cursors [paneCount]int

	// flow is the pending account connection, if any.
	flow    *appsync.Flow
	authURL string

	ready bool
}

// New creates the live view over st.
func New(st *state.Store, gw *gateway.Gateway, poller *appsync.Poller) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		store:   st,
		gw:      gw,
		poller:  poller,
		scope:   lifecycle.New(context.Background()),
		bridge:  NewBridge(st),
		keys:    keys.DefaultKeyMap(),
		help:    help.New(),
		spinner: sp,
	}
}

// Init starts listening for store changes and loads every collection.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.bridge.Wait(), m.refresh())
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = Layout{Width: msg.Width, Height: msg.Height}
		m.help.Width = msg.Width
		m.ready = true
		return m, nil

	case ChangeMsg:
		m.clampCursors()
		return m, m.bridge.Wait()

	case resultMsg:
		if msg.failure != "" {
			m.store.ShowError(msg.op, msg.failure)
		}
		return m, nil

	case appsync.FlowDoneMsg:
		if m.flow != nil && m.flow.Service == msg.Service {
			m.flow = nil
			m.authURL = ""
		}
		if msg.State == appsync.StateTimedOut {
			m.store.ShowWarning("Connect", oauth.DisplayName(msg.Service)+" was not connected in time")
		}
		return m, nil

	case spinner.TickMsg:
		if m.flow == nil {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.Shutdown()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.NextPane):
		m.pane = (m.pane + 1) % paneCount
		return m, nil

	case key.Matches(msg, m.keys.PrevPane):
		m.pane = (m.pane + paneCount - 1) % paneCount
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.cursors[m.pane] < m.rows()-1 {
			m.cursors[m.pane]++
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.cursors[m.pane] > 0 {
			m.cursors[m.pane]--
		}
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		return m, m.refresh()

	case key.Matches(msg, m.keys.Cancel):
		if m.flow != nil {
			m.flow.Cancel()
		}
		return m, nil
	}

	switch m.pane {
	case PaneTasks:
		return m.handleTaskKey(msg)
	case PaneMessages:
		return m.handleMessageKey(msg)
	case PaneAccounts:
		return m.handleAccountKey(msg)
	}
	return m, nil
}

func (m Model) handleTaskKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	t, ok := m.selectedTask()
	if !ok {
		return m, nil
	}
	gw := m.gw

	switch {
	case key.Matches(msg, m.keys.Toggle):
		return m, m.run("Update task", func(ctx context.Context) string {
			return failure(gw.ToggleTaskCompletion(ctx, t.ID))
		})
	case key.Matches(msg, m.keys.Delete):
		return m, m.run("Delete task", func(ctx context.Context) string {
			return failure(gw.DeleteTask(ctx, t.ID))
		})
	}
	return m, nil
}

func (m Model) handleMessageKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	msgs := m.store.Messages.Items()
	i := m.cursors[PaneMessages]
	if i >= len(msgs) {
		return m, nil
	}
	id := msgs[i].ID
	gw := m.gw

	switch {
	case key.Matches(msg, m.keys.MarkRead):
		return m, m.run("Mark read", func(ctx context.Context) string {
			return failure(gw.MarkMessageRead(ctx, id))
		})
	case key.Matches(msg, m.keys.Summarize):
		return m, m.run("Summarize", func(ctx context.Context) string {
			return failure(gw.SummarizeMessage(ctx, id))
		})
	case key.Matches(msg, m.keys.Delete):
		return m, m.run("Delete message", func(ctx context.Context) string {
			return failure(gw.DeleteMessage(ctx, id))
		})
	}
	return m, nil
}

func (m Model) handleAccountKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	i := m.cursors[PaneAccounts]
	if i >= len(model.ServiceNames) {
		return m, nil
	}
	service := model.ServiceNames[i]

	switch {
	case key.Matches(msg, m.keys.Connect):
		return m.connect(service)

	case key.Matches(msg, m.keys.Test):
		acct, ok := m.store.ConnectedAccount(service)
		if !ok {
			return m, nil
		}
		gw, st := m.gw, m.store
		return m, m.run("Test connection", func(ctx context.Context) string {
			r := gw.TestConnection(ctx, acct.ID)
			if r.OK() {
				st.ShowSuccess("Success", oauth.DisplayName(service)+" connection is working")
			}
			return failure(r)
		})
	}
	return m, nil
}

// connect starts the provider authorization for service and waits for the
// linked account to show up.
func (m Model) connect(service model.ServiceName) (tea.Model, tea.Cmd) {
	if m.flow != nil {
		return m, nil
	}

	r := m.gw.InitiateOAuth(service)
	if !r.OK() {
		text := r.Message()
		if errors.Is(r.Err, gateway.ErrOAuthDisabled) {
			text = "Account linking is not configured"
		}
		m.store.ShowError("Connect", text)
		return m, nil
	}

	m.authURL = r.Value
	m.flow = m.poller.Watch(m.scope.Context(), service)
	return m, tea.Batch(appsync.WaitForFlow(m.flow), m.spinner.Tick)
}

// refresh reloads tasks, messages and linked accounts.
func (m Model) refresh() tea.Cmd {
	gw := m.gw
	return m.run("Refresh", func(ctx context.Context) string {
		if r := gw.FetchTasks(ctx); !r.OK() {
			return r.Message()
		}
		if r := gw.FetchMessages(ctx); !r.OK() {
			return r.Message()
		}
		return failure(gw.FetchLinkedAccounts(ctx))
	})
}

// run executes fn under the view's scope so that closing the view
// cancels it.
func (m Model) run(op string, fn func(ctx context.Context) string) tea.Cmd {
	scope := m.scope
	return func() tea.Msg {
		out := make(chan string, 1)
		if !scope.Go(func(ctx context.Context) error {
			out <- fn(ctx)
			return nil
		}) {
			return nil
		}
		return resultMsg{op: op, failure: <-out}
	}
}

// Shutdown cancels outstanding work and detaches from the store.
func (m Model) Shutdown() {
	m.bridge.Close()
	m.poller.Stop()
	_ = m.scope.Close()
}

func failure[T any](r gateway.Result[T]) string {
	if r.OK() {
		return ""
	}
	return r.Message()
}

func (m Model) rows() int {
	switch m.pane {
	case PaneTasks:
		return m.store.Tasks.Len()
	case PaneMessages:
		return m.store.Messages.Len()
	case PaneAccounts:
		return len(model.ServiceNames)
	}
	return 0
}

func (m *Model) clampCursors() {
	counts := [paneCount]int{
		m.store.Tasks.Len(),
		m.store.Messages.Len(),
		len(model.ServiceNames),
	}
	for p, n := range counts {
		if m.cursors[p] >= n {
			m.cursors[p] = max(n-1, 0)
		}
	}
}

func (m Model) selectedTask() (model.Task, bool) {
	tasks := m.store.Tasks.Items()
	i := m.cursors[PaneTasks]
	if i >= len(tasks) {
		return model.Task{}, false
	}
	return tasks[i], true
}
