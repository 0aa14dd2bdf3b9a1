package history

import "fmt"

// StorageError wraps a failure inside a storage backend.
type StorageError struct {
	Backend   string // "sqlite", "memory"
	Operation string // "store", "query", "delete", ...
	Cause     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("history %s backend: %s: %v", e.Backend, e.Operation, e.Cause)
}

func (e *StorageError) Unwrap() error { return e.Cause }

// NewStorageError creates a StorageError.
func NewStorageError(backend, operation string, cause error) *StorageError {
	return &StorageError{Backend: backend, Operation: operation, Cause: cause}
}

// QueryError reports a history query that was rejected before reaching a
// backend.
type QueryError struct {
	Query *Query
	Cause error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("invalid history query: %v", e.Cause)
}

func (e *QueryError) Unwrap() error { return e.Cause }

// NewQueryError creates a QueryError.
func NewQueryError(query *Query, cause error) *QueryError {
	return &QueryError{Query: query, Cause: cause}
}

// RecorderError reports an outcome that was not queued for writing.
// RecordID is empty when the record could not be built.
type RecorderError struct {
	RecordID string
	Cause    error
}

func (e *RecorderError) Error() string {
	if e.RecordID == "" {
		return fmt.Sprintf("history recorder: %v", e.Cause)
	}
	return fmt.Sprintf("history recorder: record %s: %v", e.RecordID, e.Cause)
}

func (e *RecorderError) Unwrap() error { return e.Cause }

// NewRecorderError creates a RecorderError.
func NewRecorderError(recordID string, cause error) *RecorderError {
	return &RecorderError{RecordID: recordID, Cause: cause}
}
