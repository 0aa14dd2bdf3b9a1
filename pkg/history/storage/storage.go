package storage

import (
	"fmt"
	"log/slog"

	"bastion-hq/bastion/pkg/config"
	"bastion-hq/bastion/pkg/history"
)

// New opens the backend selected by cfg.Backend.
func New(cfg *config.HistoryConfig, logger *slog.Logger) (history.Storage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("history config cannot be nil")
	}

	switch cfg.Backend {
	case "sqlite", "":
		return NewSQLiteStorage(cfg.SQLite, logger)
	case "memory":
		return NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("unknown history backend: %s", cfg.Backend)
	}
}
