package testutil

import (
	"testing"

	"github.com/nhle/taskpilot/internal/store"
)

// NewTestStore opens a migrated in-memory SQLite token store that is
// closed when the test ends.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("opening sqlite store: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing sqlite store: %v", err)
		}
	})
	return s
}
