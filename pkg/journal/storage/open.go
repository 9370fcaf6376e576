package storage

import (
	"fmt"
	"log/slog"

	"gaia-relay/llamagate/pkg/config"
	"gaia-relay/llamagate/pkg/journal"
)

// Backend names accepted in journal.backend.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// Open creates the storage backend selected by cfg.Backend.
func Open(cfg config.JournalConfig, logger *slog.Logger) (journal.Storage, error) {
	switch cfg.Backend {
	case BackendMemory:
		return NewMemoryStorage(), nil
	case BackendSQLite, "":
		return NewSQLiteStorage(SQLiteConfig{
			Path:         cfg.SQLite.Path,
			Driver:       cfg.SQLite.Driver,
			MaxOpenConns: cfg.SQLite.MaxOpenConns,
			WALMode:      cfg.SQLite.WALMode,
			BusyTimeout:  cfg.SQLite.BusyTimeout,
		}, logger)
	default:
		return nil, journal.NewStorageError(cfg.Backend, "open", fmt.Errorf("unknown journal backend %q", cfg.Backend))
	}
}
