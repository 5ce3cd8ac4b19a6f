// Package storage selects a LeadStore implementation from configuration.
package storage

import (
	"fmt"

	"github.com/ZackHiRo/revops-lead-router/internal/config"
	"github.com/ZackHiRo/revops-lead-router/internal/ports"
	"github.com/ZackHiRo/revops-lead-router/internal/storage/memory"
	"github.com/ZackHiRo/revops-lead-router/internal/storage/sqlite"
)

// New builds the lead store named by cfg.Type. The returned closer is a
// no-op for the memory store.
func New(cfg config.StorageConfig) (ports.LeadStore, func() error, error) {
	switch cfg.Type {
	case "memory":
		return memory.New(), func() error { return nil }, nil
	case "sqlite", "":
		store, err := sqlite.New(cfg.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}
