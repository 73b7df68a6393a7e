// Package types holds the shared error taxonomy and configuration
// structures used across the quarry store, repositories, and CLI.
package types

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors callers branch on with errors.Is.
var (
	// ErrNotFound indicates a requested document or work item does not exist.
	ErrNotFound = errors.New("not found")

	// ErrExists indicates an attempt to create a document that is already present.
	ErrExists = errors.New("already exists")

	// ErrLockTimeout indicates an advisory lock could not be acquired
	// within the configured budget.
	ErrLockTimeout = errors.New("lock acquisition timed out")
)

// ValidationError aggregates field-level violations for a single work item.
// Violations are reported in struct field order so output is deterministic.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Violations, "; "))
}

// NewValidationError wraps a non-empty violation list.
func NewValidationError(violations []string) *ValidationError {
	return &ValidationError{Violations: violations}
}

// IsValidation reports whether err carries a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// StorageError annotates an underlying filesystem or codec failure with
// the operation and path (and item id, when raised by a repository) so
// failures stay diagnosable as they propagate.
type StorageError struct {
	Op   string // "read", "write", "delete", "list", "parse"
	Path string
	ID   string // optional work-item id
	Err  error
}

func (e *StorageError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("storage %s %s (item %s): %v", e.Op, e.Path, e.ID, e.Err)
	}
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// NewStorageError builds a StorageError for the given operation.
func NewStorageError(op, path string, err error) *StorageError {
	return &StorageError{Op: op, Path: path, Err: err}
}

// IsCorrupt reports whether err is a parse failure from the document
// store, i.e. the file exists but its contents could not be decoded.
func IsCorrupt(err error) bool {
	var se *StorageError
	return errors.As(err, &se) && se.Op == "parse"
}
