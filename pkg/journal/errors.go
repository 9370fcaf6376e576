package journal

import (
	"errors"
	"fmt"
)

// ErrBufferFull is returned by Recorder.Record when the async buffer is full
// and the entry was dropped.
var ErrBufferFull = errors.New("journal buffer full")

// ErrClosed is returned by Recorder.Record after Close.
var ErrClosed = errors.New("journal recorder closed")

// StorageError represents a storage backend operation error.
type StorageError struct {
	Backend   string // Storage backend type ("sqlite", "memory")
	Operation string // Operation that failed ("store", "query", "delete", etc.)
	Cause     error  // Underlying error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a new StorageError.
func NewStorageError(backend, operation string, cause error) *StorageError {
	return &StorageError{
		Backend:   backend,
		Operation: operation,
		Cause:     cause,
	}
}

// RetentionError represents a pruning failure.
type RetentionError struct {
	RetentionDays int   // Configured retention period
	MaxRecords    int64 // Configured record cap
	Cause         error // Underlying error
}

// Error implements the error interface.
func (e *RetentionError) Error() string {
	return fmt.Sprintf("retention error [retention_days=%d, max_records=%d]: %v", e.RetentionDays, e.MaxRecords, e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *RetentionError) Unwrap() error {
	return e.Cause
}
