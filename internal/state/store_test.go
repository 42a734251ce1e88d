package state

import (
	"reflect"
	"testing"
	"time"

	"github.com/nhle/taskpilot/internal/model"
)

var fixedNow = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestNotificationAutoDismiss(t *testing.T) {
	s := New()
	keep := s.ShowError("Failed", "stays")

	autoHide := true
	n := s.Notify(model.NotificationInput{
		Type: model.SeverityInfo, Title: "Saved", AutoHide: &autoHide, Duration: 100 * time.Millisecond,
	})

	if _, ok := s.Notifications.Get(string(n.ID)); !ok {
		t.Fatal("expected notification present immediately after creation")
	}

	gone := waitFor(t, time.Second, func() bool {
		_, ok := s.Notifications.Get(string(n.ID))
		return !ok
	})
	if !gone {
		t.Fatal("expected notification removed after its duration")
	}
	if _, ok := s.Notifications.Get(string(keep.ID)); !ok {
		t.Error("expected error notification to be unaffected")
	}
}

func TestNotificationDefaults(t *testing.T) {
	s := New(WithClock(clock), WithNotificationDuration(2*time.Second))
	defer s.Reset()

	n := s.Notify(model.NotificationInput{Title: "Hello"})
	if !n.AutoHide {
		t.Error("expected auto-hide by default")
	}
	if n.Duration != 2*time.Second {
		t.Errorf("expected configured default duration, got %v", n.Duration)
	}
	if n.Type != model.SeverityInfo {
		t.Errorf("expected info severity, got %q", n.Type)
	}
	if !n.CreatedAt.Equal(fixedNow) {
		t.Errorf("expected store clock timestamp, got %v", n.CreatedAt)
	}
	if n.ID == "" {
		t.Error("expected generated id")
	}

	if e := s.ShowError("x", "y"); e.AutoHide {
		t.Error("expected error notifications to stay")
	}
}

func TestDismissStopsTimer(t *testing.T) {
	s := New()
	n := s.Notify(model.NotificationInput{Title: "x", Duration: 20 * time.Millisecond})

	removals := 0
	s.Subscribe(func(c Change) {
		if c.Kind == ChangeRemoved {
			removals++
		}
	}, Notifications)

	s.Dismiss(string(n.ID))
	time.Sleep(60 * time.Millisecond)

	if removals != 1 {
		t.Errorf("expected exactly one removal, got %d", removals)
	}
}

func TestResetClearsEverything(t *testing.T) {
	s := New()
	s.SetCurrentUser(&model.User{ID: "u1", Username: "ann"})
	s.Tasks.Merge(task("1", "a"))
	s.Messages.Merge(model.Message{ID: "m1"})
	s.Accounts.Merge(model.LinkedAccount{ID: "a1", ServiceName: model.ServiceSlack, IsActive: true})
	s.SelectTask("1")
	n := s.Notify(model.NotificationInput{Title: "x", Duration: 30 * time.Millisecond})

	cleared := map[Name]bool{}
	s.Subscribe(func(c Change) {
		if c.Kind == ChangeCleared {
			cleared[c.Collection] = true
		}
	})

	s.Reset()

	if _, ok := s.CurrentUser(); ok {
		t.Error("expected current user cleared")
	}
	if _, ok := s.SelectedTask(); ok {
		t.Error("expected selection cleared")
	}
	for _, name := range []Name{Tasks, Messages, Accounts, Actions, Executions, Notifications} {
		if !cleared[name] {
			t.Errorf("expected %s cleared notification", name)
		}
	}
	if s.Tasks.Len()+s.Messages.Len()+s.Accounts.Len()+s.Notifications.Len() != 0 {
		t.Error("expected empty collections")
	}

	time.Sleep(60 * time.Millisecond)
	if _, ok := s.Notifications.Get(string(n.ID)); ok {
		t.Error("unexpected notification after reset")
	}
}

func TestSelectionDroppedOnRemove(t *testing.T) {
	s := New()
	s.Tasks.Merge(task("1", "a"))
	s.SelectTask("1")

	if got, ok := s.SelectedTask(); !ok || got.ID != "1" {
		t.Fatalf("expected selected task 1")
	}

	s.Tasks.Remove("1")
	if s.Snapshot().SelectedTaskID != "" {
		t.Error("expected selection cleared when the task is removed")
	}
}

func TestSnapshotRestore(t *testing.T) {
	s := New()
	s.SetCurrentUser(&model.User{ID: "u1", Username: "ann"})
	s.SelectTask("t1")
	s.SelectMessage("m1")
	snap := s.Snapshot()

	other := New()
	other.Restore(snap)

	if !reflect.DeepEqual(other.Snapshot(), snap) {
		t.Errorf("restore mismatch: %+v vs %+v", other.Snapshot(), snap)
	}
	if u, _ := other.CurrentUser(); u.Username != "ann" {
		t.Errorf("expected ann, got %q", u.Username)
	}
}

func TestLoadingCounter(t *testing.T) {
	s := New()
	done1 := s.BeginLoading()
	done2 := s.BeginLoading()

	done1()
	done1()
	if !s.Loading() {
		t.Fatal("expected still loading with one operation outstanding")
	}
	done2()
	if s.Loading() {
		t.Error("expected idle")
	}
}

func TestSetConnectedNotifiesOnTransition(t *testing.T) {
	s := New()
	changes := 0
	s.Subscribe(func(Change) { changes++ }, Session)

	s.SetConnected(true)
	s.SetConnected(true)
	s.SetConnected(false)

	if changes != 2 {
		t.Errorf("expected 2 session changes, got %d", changes)
	}
}
