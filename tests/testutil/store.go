package testutil

import (
	"testing"

	"github.com/nhle/crm-dashboard/internal/store"
)

// NewTestStore opens an empty task and notification cache in memory,
// closed on test cleanup.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}
