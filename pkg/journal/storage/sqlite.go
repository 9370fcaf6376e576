package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // registers "sqlite3" (cgo)
	_ "modernc.org/sqlite"          // registers "sqlite" (pure Go)

	"gaia-relay/llamagate/pkg/journal"
)

// Supported database/sql driver names.
const (
	DriverModernC = "sqlite"
	DriverMattn   = "sqlite3"
)

const backendSQLite = "sqlite"

// SQLiteConfig contains configuration for the SQLite storage backend.
type SQLiteConfig struct {
	// Path is the database file path. Parent directories are created.
	Path string

	// Driver is DriverModernC or DriverMattn.
	// Default: DriverModernC
	Driver string

	// MaxOpenConns is the maximum number of open connections to the database.
	// Default: 4
	MaxOpenConns int

	// WALMode enables Write-Ahead Logging mode for better concurrency.
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// SQLiteStorage implements journal.Storage using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	config SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStorage opens (creating if needed) the database at cfg.Path and
// initializes the schema.
func NewSQLiteStorage(cfg SQLiteConfig, logger *slog.Logger) (*SQLiteStorage, error) {
	if cfg.Path == "" {
		return nil, journal.NewStorageError(backendSQLite, "open", errors.New("database path cannot be empty"))
	}
	if cfg.Driver == "" {
		cfg.Driver = DriverModernC
	}
	if cfg.MaxOpenConns <= 0 {
		cfg.MaxOpenConns = 4
	}
	if cfg.BusyTimeout <= 0 {
		cfg.BusyTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "journal.storage.sqlite")

	dsn, err := buildDSN(cfg)
	if err != nil {
		return nil, journal.NewStorageError(backendSQLite, "open", err)
	}

	if dir := filepath.Dir(cfg.Path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, journal.NewStorageError(backendSQLite, "mkdir", err)
		}
	}

	db, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, journal.NewStorageError(backendSQLite, "open", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxOpenConns)

	s := &SQLiteStorage{
		db:     db,
		config: cfg,
		logger: logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite journal initialized",
		"path", cfg.Path,
		"driver", cfg.Driver,
		"wal_mode", cfg.WALMode,
		"max_open_conns", cfg.MaxOpenConns,
	)

	return s, nil
}

// buildDSN encodes the pragmas in the DSN so that every pooled connection
// gets them. The two drivers spell them differently.
func buildDSN(cfg SQLiteConfig) (string, error) {
	busy := cfg.BusyTimeout.Milliseconds()
	params := url.Values{}

	switch cfg.Driver {
	case DriverModernC:
		params.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busy))
		if cfg.WALMode {
			params.Add("_pragma", "journal_mode(WAL)")
		}
	case DriverMattn:
		params.Set("_busy_timeout", fmt.Sprint(busy))
		if cfg.WALMode {
			params.Set("_journal_mode", "WAL")
		}
	default:
		return "", fmt.Errorf("unsupported sqlite driver %q (want %q or %q)", cfg.Driver, DriverModernC, DriverMattn)
	}

	return "file:" + cfg.Path + "?" + params.Encode(), nil
}

// initialize creates the schema and verifies its version.
func (s *SQLiteStorage) initialize() error {
	ctx := context.Background()

	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return journal.NewStorageError(backendSQLite, "create_schema", err)
	}

	if _, err := s.db.ExecContext(ctx, InsertSchemaVersion, SchemaVersion); err != nil {
		return journal.NewStorageError(backendSQLite, "insert_schema_version", err)
	}

	var version int
	err := s.db.QueryRowContext(ctx, GetSchemaVersion).Scan(&version)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return journal.NewStorageError(backendSQLite, "get_schema_version", err)
	}
	if version != SchemaVersion {
		return journal.NewStorageError(backendSQLite, "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	return nil
}

// Store persists a journal entry.
func (s *SQLiteStorage) Store(ctx context.Context, e *journal.Entry) error {
	_, err := s.db.ExecContext(ctx, insertEntry,
		e.ID, e.RequestID, e.ReceivedAt.UnixNano(), e.RecordedAt.UnixNano(),
		e.Method, e.Path, e.RemoteAddr, e.UserAgent, e.MessageCount, e.RequestBytes,
		e.UpstreamURL, e.Temperature, e.MaxTokens,
		e.StatusCode, e.UpstreamStatus, e.ResponseBytes, e.Outcome, nullString(e.ErrorKind), nullString(e.Error),
		int64(e.UpstreamLatency), int64(e.Duration),
	)
	if err != nil {
		return journal.NewStorageError(backendSQLite, "store", err)
	}
	return nil
}

// Query retrieves entries matching q, newest first.
func (s *SQLiteStorage) Query(ctx context.Context, q *journal.Query) ([]*journal.Entry, error) {
	where, args := buildWhereClause(q)

	limit := journal.DefaultQueryLimit
	if q != nil && q.Limit > 0 {
		limit = q.Limit
	}

	sqlQuery := "SELECT " + selectColumns + " FROM journal" + where +
		" ORDER BY received_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, journal.NewStorageError(backendSQLite, "query", err)
	}
	defer rows.Close()

	entries := []*journal.Entry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, journal.NewStorageError(backendSQLite, "scan", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, journal.NewStorageError(backendSQLite, "query", err)
	}

	return entries, nil
}

// Count returns the number of entries matching q.
func (s *SQLiteStorage) Count(ctx context.Context, q *journal.Query) (int64, error) {
	where, args := buildWhereClause(q)

	var count int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM journal"+where, args...).Scan(&count); err != nil {
		return 0, journal.NewStorageError(backendSQLite, "count", err)
	}
	return count, nil
}

// DeleteBefore removes entries received before cutoff.
func (s *SQLiteStorage) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM journal WHERE received_at < ?", cutoff.UnixNano())
	if err != nil {
		return 0, journal.NewStorageError(backendSQLite, "delete", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, journal.NewStorageError(backendSQLite, "delete", err)
	}
	return count, nil
}

// Trim removes the oldest entries so that at most keep remain.
func (s *SQLiteStorage) Trim(ctx context.Context, keep int64) (int64, error) {
	result, err := s.db.ExecContext(ctx, trimEntries, keep)
	if err != nil {
		return 0, journal.NewStorageError(backendSQLite, "trim", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, journal.NewStorageError(backendSQLite, "trim", err)
	}
	return count, nil
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	if err := s.db.Close(); err != nil {
		return journal.NewStorageError(backendSQLite, "close", err)
	}
	s.logger.Debug("SQLite journal closed")
	return nil
}

// Ping checks that the database is reachable. It matches health.CheckFunc.
func (s *SQLiteStorage) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return journal.NewStorageError(backendSQLite, "ping", err)
	}
	return nil
}

func buildWhereClause(q *journal.Query) (string, []any) {
	if q == nil {
		return "", nil
	}

	var conditions []string
	var args []any

	if q.Since != nil {
		conditions = append(conditions, "received_at >= ?")
		args = append(args, q.Since.UnixNano())
	}
	if q.Until != nil {
		conditions = append(conditions, "received_at < ?")
		args = append(args, q.Until.UnixNano())
	}
	if q.Outcome != "" {
		conditions = append(conditions, "outcome = ?")
		args = append(args, q.Outcome)
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func scanEntry(rows *sql.Rows) (*journal.Entry, error) {
	var e journal.Entry
	var receivedAt, recordedAt, upstreamLatency, duration int64
	var remoteAddr, userAgent, errorKind, errorMsg sql.NullString

	err := rows.Scan(
		&e.ID, &e.RequestID, &receivedAt, &recordedAt,
		&e.Method, &e.Path, &remoteAddr, &userAgent, &e.MessageCount, &e.RequestBytes,
		&e.UpstreamURL, &e.Temperature, &e.MaxTokens,
		&e.StatusCode, &e.UpstreamStatus, &e.ResponseBytes, &e.Outcome, &errorKind, &errorMsg,
		&upstreamLatency, &duration,
	)
	if err != nil {
		return nil, err
	}

	e.ReceivedAt = time.Unix(0, receivedAt).UTC()
	e.RecordedAt = time.Unix(0, recordedAt).UTC()
	e.RemoteAddr = remoteAddr.String
	e.UserAgent = userAgent.String
	e.ErrorKind = errorKind.String
	e.Error = errorMsg.String
	e.UpstreamLatency = time.Duration(upstreamLatency)
	e.Duration = time.Duration(duration)

	return &e, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
