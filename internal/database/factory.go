package database

import (
	"fmt"
	"path/filepath"

	"resourcehub/internal/config"
	"resourcehub/internal/database/migrations"
	"resourcehub/internal/ingest"
)

// NewStoreFromConfig creates a metadata store based on the database config
// type and migrates it to the latest schema.
func NewStoreFromConfig(cfg config.DatabaseConfig, clock ingest.Clock) (*SQLiteStore, error) {
	var path string
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		path = filepath.Join(cfg.DataDir, "resourcehub.db")
	case "memory":
		path = ":memory:"
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}

	store, err := NewSQLiteStore(path, clock)
	if err != nil {
		return nil, err
	}
	if err := migrations.MigrateUp(store.DB()); err != nil {
		store.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	return store, nil
}
