package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema contains the SQL statements to create the journal database schema.
// Timestamps and durations are stored as integer nanoseconds so both SQLite
// drivers round-trip them identically.
const Schema = `
CREATE TABLE IF NOT EXISTS journal (
    id TEXT PRIMARY KEY,
    request_id TEXT NOT NULL,

    received_at INTEGER NOT NULL,
    recorded_at INTEGER NOT NULL,

    method TEXT NOT NULL,
    path TEXT NOT NULL,
    remote_addr TEXT,
    user_agent TEXT,
    message_count INTEGER NOT NULL,
    request_bytes INTEGER NOT NULL,

    upstream_url TEXT NOT NULL,
    temperature REAL NOT NULL,
    max_tokens INTEGER NOT NULL,

    status_code INTEGER NOT NULL,
    upstream_status INTEGER NOT NULL,
    response_bytes INTEGER NOT NULL,
    outcome TEXT NOT NULL,
    error_kind TEXT,
    error TEXT,

    upstream_latency INTEGER NOT NULL,
    duration INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_journal_received_at ON journal(received_at);
CREATE INDEX IF NOT EXISTS idx_journal_outcome ON journal(outcome);
CREATE INDEX IF NOT EXISTS idx_journal_request_id ON journal(request_id);
`

// InsertSchemaVersion inserts the schema version into the schema_version table.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version from the database.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`

const insertEntry = `
INSERT INTO journal (
    id, request_id, received_at, recorded_at,
    method, path, remote_addr, user_agent, message_count, request_bytes,
    upstream_url, temperature, max_tokens,
    status_code, upstream_status, response_bytes, outcome, error_kind, error,
    upstream_latency, duration
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const selectColumns = `
    id, request_id, received_at, recorded_at,
    method, path, remote_addr, user_agent, message_count, request_bytes,
    upstream_url, temperature, max_tokens,
    status_code, upstream_status, response_bytes, outcome, error_kind, error,
    upstream_latency, duration
`

const trimEntries = `
DELETE FROM journal WHERE id IN (
    SELECT id FROM journal ORDER BY received_at DESC LIMIT -1 OFFSET ?
)
`
