package tidy

import (
	"errors"
	"fmt"
)

var (
	// ErrDirectoryUnreadable means the target directory is missing or cannot be listed.
	ErrDirectoryUnreadable = errors.New("directory unreadable")

	// ErrInvalidModifier means a modifier is malformed or has a negative day count.
	ErrInvalidModifier = errors.New("invalid modifier")

	// ErrInvalidDateFormat means a date string could not be parsed.
	ErrInvalidDateFormat = errors.New("invalid date format")

	// ErrInvalidRule means a rule failed validation.
	ErrInvalidRule = errors.New("invalid rule")

	// ErrFileOperationFailed marks a per-file failure inside a batch.
	ErrFileOperationFailed = errors.New("file operation failed")
)

// FileError records a failed operation on one file of a batch.
type FileError struct {
	Op   Operation
	Name string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Name, e.Err)
}

// Unwrap exposes both ErrFileOperationFailed and the underlying cause.
func (e *FileError) Unwrap() []error {
	return []error{ErrFileOperationFailed, e.Err}
}
