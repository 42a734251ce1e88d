package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/nhle/taskpilot/internal/store"
	"github.com/nhle/taskpilot/tests/testutil"
)

// storageContract runs the behaviour every Storage backend shares.
func storageContract(t *testing.T, s store.Storage) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, store.KeyAccessToken); err != nil || ok {
		t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
	}

	if err := s.Set(ctx, store.KeyAccessToken, "tok1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set(ctx, store.KeyAccessToken, "tok2"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	v, ok, err := s.Get(ctx, store.KeyAccessToken)
	if err != nil || !ok || v != "tok2" {
		t.Fatalf("expected tok2, got %q ok=%v err=%v", v, ok, err)
	}

	if err := s.Set(ctx, store.KeyCurrentUser, `{"id":"1"}`); err != nil {
		t.Fatalf("set user: %v", err)
	}
	if err := s.Delete(ctx, store.SessionKeys...); err != nil {
		t.Fatalf("delete: %v", err)
	}
	for _, k := range store.SessionKeys {
		if _, ok, _ := s.Get(ctx, k); ok {
			t.Errorf("expected %s deleted", k)
		}
	}
}

func TestMemoryStore(t *testing.T) {
	storageContract(t, store.NewMemoryStore())
}

func TestSQLiteStore(t *testing.T) {
	storageContract(t, testutil.NewTestStore(t))
}

func TestSQLiteStoreMigrations(t *testing.T) {
	s := testutil.NewTestStore(t)
	v, err := s.SchemaVersion(context.Background())
	if err != nil {
		t.Fatalf("schema version: %v", err)
	}
	if v != 2 {
		t.Errorf("expected schema version 2, got %d", v)
	}
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	ctx := context.Background()

	s, err := store.NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Set(ctx, store.KeyRefreshToken, "r1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	s.Close()

	s, err = store.NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	v, ok, err := s.Get(ctx, store.KeyRefreshToken)
	if err != nil || !ok || v != "r1" {
		t.Fatalf("expected r1 after reopen, got %q ok=%v err=%v", v, ok, err)
	}
	keys, err := s.Keys(ctx)
	if err != nil || len(keys) != 1 {
		t.Errorf("expected one key, got %v err=%v", keys, err)
	}
}

func TestRoutedSendsTokensToSecrets(t *testing.T) {
	ctx := context.Background()
	plain := store.NewMemoryStore()
	secrets := store.NewMemoryStore()
	r := store.Routed{Default: plain, Secrets: secrets}

	storageContract(t, r)

	_ = r.Set(ctx, store.KeyAccessToken, "tok")
	_ = r.Set(ctx, store.KeyAppState, "{}")

	if _, ok, _ := plain.Get(ctx, store.KeyAccessToken); ok {
		t.Error("token leaked into default backend")
	}
	if _, ok, _ := secrets.Get(ctx, store.KeyAccessToken); !ok {
		t.Error("expected token in secret backend")
	}
	if _, ok, _ := plain.Get(ctx, store.KeyAppState); !ok {
		t.Error("expected appState in default backend")
	}
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()

	type snap struct {
		Selected string `json:"selected"`
	}
	if err := store.SetJSON(ctx, s, store.KeyAppState, snap{Selected: "t1"}); err != nil {
		t.Fatalf("set json: %v", err)
	}

	var got snap
	ok, err := store.GetJSON(ctx, s, store.KeyAppState, &got)
	if err != nil || !ok || got.Selected != "t1" {
		t.Fatalf("unexpected %+v ok=%v err=%v", got, ok, err)
	}

	_ = s.Set(ctx, store.KeyCurrentUser, "{not json")
	ok, err = store.GetJSON(ctx, s, store.KeyCurrentUser, &got)
	if !ok || err == nil {
		t.Errorf("expected decode error for corrupt value, got ok=%v err=%v", ok, err)
	}

	ok, err = store.GetJSON(ctx, s, "missing", &got)
	if ok || err != nil {
		t.Errorf("expected missing key, got ok=%v err=%v", ok, err)
	}
}
