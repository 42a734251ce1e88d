// Package state holds the client's in-memory view of the backend: one
// identity-keyed collection per entity kind, the session slot (current
// user, selections, loading and connection status) and ephemeral
// notifications. It is the single source of truth the gateway merges
// responses into and the views observe.
package state

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/taskpilot/internal/model"
)

// DefaultNotificationDuration is the auto-hide delay used when neither the
// notification nor the store configures one.
const DefaultNotificationDuration = 5 * time.Second

// Store is the local reactive store.
type Store struct {
	Tasks         *Collection[model.Task]
	Messages      *Collection[model.Message]
	Accounts      *Collection[model.LinkedAccount]
	Actions       *Collection[model.Action]
	Executions    *Collection[model.ActionExecution]
	Notifications *Collection[model.Notification]

	hub *hub
	now func() time.Time

	notifyDuration time.Duration

	mu              sync.Mutex
	user            *model.User
	selectedTask    string
	selectedMessage string
	loading         int
	connected       bool
	timers          map[string]*time.Timer
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for timestamps and overdue
// checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithNotificationDuration sets the default auto-hide delay.
func WithNotificationDuration(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.notifyDuration = d
		}
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	h := &hub{}
	s := &Store{
		Tasks:          newCollection[model.Task](Tasks, h),
		Messages:       newCollection[model.Message](Messages, h),
		Accounts:       newCollection[model.LinkedAccount](Accounts, h),
		Actions:        newCollection[model.Action](Actions, h),
		Executions:     newCollection[model.ActionExecution](Executions, h),
		Notifications:  newCollection[model.Notification](Notifications, h),
		hub:            h,
		now:            time.Now,
		notifyDuration: DefaultNotificationDuration,
		timers:         make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(s)
	}

	// Selections never point at entities that are gone.
	h.subscribe(s.dropStaleSelection, Tasks, Messages)
	return s
}

// Subscribe registers fn for changes to the named collections, or to every
// collection when none are named. The returned function unsubscribes.
func (s *Store) Subscribe(fn Observer, names ...Name) func() {
	return s.hub.subscribe(fn, names...)
}

// Now returns the store's notion of the current time.
func (s *Store) Now() time.Time { return s.now() }

// CurrentUser returns the signed-in user, if any.
func (s *Store) CurrentUser() (model.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil {
		return model.User{}, false
	}
	return *s.user, true
}

// SetCurrentUser replaces the signed-in user. A nil user signs out locally.
func (s *Store) SetCurrentUser(u *model.User) {
	s.mu.Lock()
	if u == nil {
		s.user = nil
	} else {
		cp := *u
		s.user = &cp
	}
	s.mu.Unlock()

	s.emitSession()
}

// SelectTask marks the task with id as selected. An empty id clears it.
func (s *Store) SelectTask(id string) {
	s.mu.Lock()
	s.selectedTask = id
	s.mu.Unlock()
	s.emitSession()
}

// SelectedTask returns the selected task when it is still in the store.
func (s *Store) SelectedTask() (model.Task, bool) {
	s.mu.Lock()
	id := s.selectedTask
	s.mu.Unlock()

	if id == "" {
		return model.Task{}, false
	}
	return s.Tasks.Get(id)
}

// SelectMessage marks the message with id as selected. An empty id clears
// it.
func (s *Store) SelectMessage(id string) {
	s.mu.Lock()
	s.selectedMessage = id
	s.mu.Unlock()
	s.emitSession()
}

// SelectedMessage returns the selected message when it is still in the
// store.
func (s *Store) SelectedMessage() (model.Message, bool) {
	s.mu.Lock()
	id := s.selectedMessage
	s.mu.Unlock()

	if id == "" {
		return model.Message{}, false
	}
	return s.Messages.Get(id)
}

// BeginLoading marks one operation as in flight. The returned function
// ends it and is safe to call more than once.
func (s *Store) BeginLoading() func() {
	s.mu.Lock()
	s.loading++
	s.mu.Unlock()
	s.emitSession()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			if s.loading > 0 {
				s.loading--
			}
			s.mu.Unlock()
			s.emitSession()
		})
	}
}

// Loading reports whether any operation is in flight.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading > 0
}

// SetConnected records whether the backend was reachable on the last
// request. Only transitions notify observers.
func (s *Store) SetConnected(ok bool) {
	s.mu.Lock()
	changed := s.connected != ok
	s.connected = ok
	s.mu.Unlock()

	if changed {
		s.emitSession()
	}
}

// Connected reports the last known backend reachability.
func (s *Store) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// Notify adds a notification. AutoHide defaults to true and Duration to
// the store default; an auto-hiding notification is removed once its
// duration has elapsed.
func (s *Store) Notify(in model.NotificationInput) model.Notification {
	n := model.Notification{
		ID:        model.ID(uuid.NewString()),
		Type:      in.Type,
		Title:     in.Title,
		Message:   in.Message,
		CreatedAt: s.now(),
		AutoHide:  true,
		Duration:  in.Duration,
	}
	if n.Type == "" {
		n.Type = model.SeverityInfo
	}
	if in.AutoHide != nil {
		n.AutoHide = *in.AutoHide
	}
	if n.Duration <= 0 {
		n.Duration = s.notifyDuration
	}

	s.Notifications.Merge(n)

	if n.AutoHide {
		id := string(n.ID)
		s.mu.Lock()
		s.timers[id] = time.AfterFunc(n.Duration, func() { s.expire(id) })
		s.mu.Unlock()
	}
	return n
}

// ShowSuccess adds an auto-hiding success notification.
func (s *Store) ShowSuccess(title, message string) model.Notification {
	return s.Notify(model.NotificationInput{Type: model.SeveritySuccess, Title: title, Message: message})
}

// ShowInfo adds an auto-hiding info notification.
func (s *Store) ShowInfo(title, message string) model.Notification {
	return s.Notify(model.NotificationInput{Type: model.SeverityInfo, Title: title, Message: message})
}

// ShowWarning adds an auto-hiding warning notification.
func (s *Store) ShowWarning(title, message string) model.Notification {
	return s.Notify(model.NotificationInput{Type: model.SeverityWarning, Title: title, Message: message})
}

// ShowError adds an error notification that stays until dismissed.
func (s *Store) ShowError(title, message string) model.Notification {
	keep := false
	return s.Notify(model.NotificationInput{
		Type: model.SeverityError, Title: title, Message: message, AutoHide: &keep,
	})
}

// Dismiss removes a notification and cancels its auto-hide timer.
func (s *Store) Dismiss(id string) {
	s.mu.Lock()
	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
	}
	s.mu.Unlock()

	s.Notifications.Remove(id)
}

func (s *Store) expire(id string) {
	s.mu.Lock()
	delete(s.timers, id)
	s.mu.Unlock()

	s.Notifications.Remove(id)
}

// Snapshot is the session state persisted between runs.
type Snapshot struct {
	CurrentUser       *model.User `json:"currentUser"`
	SelectedTaskID    string      `json:"selectedTask,omitempty"`
	SelectedMessageID string      `json:"selectedMessage,omitempty"`
}

// Snapshot captures the current session state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		SelectedTaskID:    s.selectedTask,
		SelectedMessageID: s.selectedMessage,
	}
	if s.user != nil {
		u := *s.user
		snap.CurrentUser = &u
	}
	return snap
}

// Restore re-applies a snapshot taken by Snapshot.
func (s *Store) Restore(snap Snapshot) {
	s.mu.Lock()
	if snap.CurrentUser != nil {
		u := *snap.CurrentUser
		s.user = &u
	}
	s.selectedTask = snap.SelectedTaskID
	s.selectedMessage = snap.SelectedMessageID
	s.mu.Unlock()

	s.emitSession()
}

// Reset returns the store to its initial state: every collection is
// cleared, the session is emptied and pending auto-hide timers are
// stopped.
func (s *Store) Reset() {
	s.mu.Lock()
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
	s.user = nil
	s.selectedTask = ""
	s.selectedMessage = ""
	s.loading = 0
	s.mu.Unlock()

	s.Tasks.Clear()
	s.Messages.Clear()
	s.Accounts.Clear()
	s.Actions.Clear()
	s.Executions.Clear()
	s.Notifications.Clear()
	s.emitSession()
}

// Mark returns the store-wide operation sequence for MergeSince.
func (s *Store) Mark() uint64 { return s.hub.mark() }

func (s *Store) emitSession() {
	s.hub.emit(Change{Collection: Session, Kind: ChangeMerged})
}

func (s *Store) dropStaleSelection(c Change) {
	if c.Kind != ChangeRemoved && c.Kind != ChangeCleared {
		return
	}

	s.mu.Lock()
	changed := false
	switch c.Collection {
	case Tasks:
		if s.selectedTask != "" && (c.Kind == ChangeCleared || s.selectedTask == c.ID) {
			s.selectedTask = ""
			changed = true
		}
	case Messages:
		if s.selectedMessage != "" && (c.Kind == ChangeCleared || s.selectedMessage == c.ID) {
			s.selectedMessage = ""
			changed = true
		}
	}
	s.mu.Unlock()

	if changed {
		s.emitSession()
	}
}
