package testutil

import (
	"testing"

	"resourcehub/internal/database"
	"resourcehub/internal/database/migrations"
	"resourcehub/internal/ingest"
)

// NewTestStore creates an in-memory SQLite metadata store migrated to the
// latest schema. The store is closed automatically when the test completes.
// clock may be nil for wall-clock time.
func NewTestStore(t *testing.T, clock ingest.Clock) *database.SQLiteStore {
	t.Helper()

	store, err := database.NewSQLiteStore(":memory:", clock)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	if err := migrations.MigrateUp(store.DB()); err != nil {
		store.Close()
		t.Fatalf("failed to migrate database: %v", err)
	}

	t.Cleanup(func() {
		store.Close()
	})

	return store
}
