package history

import (
	"context"
	"encoding/json"
	"time"
)

// Record is the stored outcome of validating one payload against one schema.
type Record struct {
	ID                string          `json:"id"`                 // UUID v4
	SchemaName        string          `json:"schema_name"`        // Schema the payload was checked against
	SchemaFingerprint string          `json:"schema_fingerprint"` // Fingerprint of that schema version
	PayloadHash       string          `json:"payload_hash"`       // SHA-256 of the payload bytes
	PayloadSize       int             `json:"payload_size"`       // Payload length in bytes
	Valid             bool            `json:"valid"`              // True when no errors were reported
	ErrorCount        int             `json:"error_count"`        // Number of validation errors
	Errors            json.RawMessage `json:"errors"`             // Error list in wire form
	Source            string          `json:"source"`             // "http", "cli"
	Duration          time.Duration   `json:"duration"`           // Time spent validating
	RecordedAt        time.Time       `json:"recorded_at"`        // When the outcome was recorded
}

// Query defines filter parameters for history records. Zero values match
// everything.
type Query struct {
	// IDs restricts the query to specific records.
	IDs []string `json:"ids,omitempty"`

	// SchemaName filters by schema.
	SchemaName string `json:"schema_name,omitempty"`

	// Valid filters by outcome when set.
	Valid *bool `json:"valid,omitempty"`

	// Source filters by the origin of the validation.
	Source string `json:"source,omitempty"`

	// Time range, both inclusive.
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`

	// Pagination
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`

	// SortOrder orders by RecordedAt: "asc" or "desc" (default).
	SortOrder string `json:"sort_order,omitempty"`
}

// Storage defines the interface for history storage backends.
// Implementations must be safe for concurrent use.
type Storage interface {
	// Store persists a record.
	Store(ctx context.Context, record *Record) error

	// Query returns records matching the filters, or an empty slice.
	Query(ctx context.Context, query *Query) ([]*Record, error)

	// Count returns the number of records matching the filters. Limit and
	// Offset are ignored.
	Count(ctx context.Context, query *Query) (int64, error)

	// Delete removes records matching the filters and returns how many were
	// removed. Limit and Offset are ignored.
	Delete(ctx context.Context, query *Query) (int64, error)

	// Close releases any resources held by the backend.
	Close() error
}
