package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema creates the history tables. recorded_at and duration are stored as
// integer nanoseconds so range filters compare numerically.
const Schema = `
CREATE TABLE IF NOT EXISTS validations (
    id TEXT PRIMARY KEY,
    schema_name TEXT NOT NULL,
    schema_fingerprint TEXT NOT NULL,
    payload_hash TEXT NOT NULL,
    payload_size INTEGER NOT NULL,
    valid BOOLEAN NOT NULL,
    error_count INTEGER NOT NULL,
    errors TEXT NOT NULL,
    source TEXT NOT NULL,
    duration INTEGER NOT NULL,
    recorded_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_validations_recorded_at ON validations(recorded_at);
CREATE INDEX IF NOT EXISTS idx_validations_schema_name ON validations(schema_name);
CREATE INDEX IF NOT EXISTS idx_validations_valid ON validations(valid);
`

// InsertSchemaVersion records the schema version once.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion returns the newest applied schema version.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`

const selectColumns = `id, schema_name, schema_fingerprint, payload_hash, payload_size,
	valid, error_count, errors, source, duration, recorded_at`
