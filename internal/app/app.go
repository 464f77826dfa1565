// Package app wires configuration into the store and registry shared by the
// server, the Lambda function and the CLI.
package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bcnelson/cidr-group-central/internal/config"
	"github.com/bcnelson/cidr-group-central/internal/registry"
	"github.com/bcnelson/cidr-group-central/internal/storage"
	"github.com/bcnelson/cidr-group-central/internal/storage/memory"
	"github.com/bcnelson/cidr-group-central/internal/storage/object"
	"github.com/bcnelson/cidr-group-central/internal/storage/sql"
)

// OpenStore creates the object store selected by cfg.Backend.
func OpenStore(cfg config.StoreConfig) (storage.ObjectStore, error) {
	switch cfg.Backend {
	case storage.BackendMemory:
		return memory.New(), nil

	case storage.BackendSQL:
		// Create data directory if needed (for SQLite)
		if cfg.Driver == "sqlite3" {
			if dir := filepath.Dir(cfg.DSN); dir != "." {
				if err := os.MkdirAll(dir, 0755); err != nil {
					return nil, fmt.Errorf("creating data directory: %w", err)
				}
			}
		}
		return sql.New(cfg.Driver, cfg.DSN, sql.WithTimeout(cfg.Timeout), sql.WithPageSize(cfg.PageSize))

	case storage.BackendObject:
		return object.New(cfg.URL, cfg.Timeout)

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// NewRegistry opens the configured store and returns a registry over it.
// The caller owns the store and must close it.
func NewRegistry(cfg config.StoreConfig) (*registry.Registry, storage.ObjectStore, error) {
	store, err := OpenStore(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing storage: %w", err)
	}
	return registry.New(store), store, nil
}
