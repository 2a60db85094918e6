// Package store provides standardized persistence for the aggregation state:
// the instance list, the per-instance status map, and the unified workflow
// cache, each an independently versioned JSON blob.
package store

import (
	"errors"
	"fmt"
)

// Standard store error types that all backends should use.
var (
	// ErrParse indicates a persisted blob could not be decoded. Backends
	// recover from it internally by treating the blob as absent; it is
	// exported so that recovery can be tested.
	ErrParse = errors.New("corrupt persisted state")

	// ErrUnavailable indicates the backing storage cannot be reached.
	ErrUnavailable = errors.New("store unavailable")
)

// BlobError wraps blob-level store errors with operation context.
type BlobError struct {
	Op   string // Operation being performed (e.g., "Workflows", "SaveInstances")
	Blob string // Blob name
	Err  error  // Underlying error
}

func (e *BlobError) Error() string {
	return fmt.Sprintf("%s failed for blob %s: %v", e.Op, e.Blob, e.Err)
}

func (e *BlobError) Unwrap() error {
	return e.Err
}

func (e *BlobError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsParse checks if an error indicates corrupt persisted state.
func IsParse(err error) bool {
	return errors.Is(err, ErrParse)
}
