package types

import (
	"errors"
	"fmt"
	"strings"

	"github.com/glebarez/go-sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ExecutionError is returned when a database command fails. It carries the
// failing command and the error output of the database verbatim.
type ExecutionError struct {
	Command  string
	Stderr   string
	ExitCode int
	Err      error
}

// Error returns a string representation of the error.
func (e ExecutionError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.ExitCode != 0 {
		return fmt.Sprintf("failed executing database command (exit status %d): %s", e.ExitCode, msg)
	}
	return fmt.Sprintf("failed executing database command: %s", msg)
}

// Unwrap returns the underlying error for error unwrapping.
func (e ExecutionError) Unwrap() error {
	return e.Err
}

// LockedError is returned when the database is locked by another connection.
type LockedError struct {
	Err error
}

// Error returns a string representation of the error.
func (e LockedError) Error() string {
	return fmt.Sprintf("database is locked: %s", e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e LockedError) Unwrap() error {
	return e.Err
}

// LoadError represents an error that occurred while loading data from the database.
type LoadError struct {
	ModelName string
	Msg       string
	Err       error
}

// Error returns a string representation of the error.
func (e LoadError) Error() string {
	msg := e.Msg
	if e.Err != nil {
		msg = e.Err.Error()
	}
	return fmt.Sprintf("failed loading %s: %s", e.ModelName, msg)
}

// Unwrap returns the underlying error for error unwrapping.
func (e LoadError) Unwrap() error {
	return e.Err
}

// ScanError represents an error that occurred while scanning database results
// into Go types.
type ScanError struct {
	ModelName string
	Err       error
}

// Error returns a string representation of the error.
func (e ScanError) Error() string {
	return fmt.Sprintf("failed scanning %s data: %s", e.ModelName, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e ScanError) Unwrap() error {
	return e.Err
}

// Err converts an expected error returned by SQLite into a friendly DB error
// of one of the types defined above.
func Err(err error) error {
	var sqlErr *sqlite.Error
	if !errors.As(err, &sqlErr) {
		return err
	}

	switch sqlErr.Code() & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return LockedError{Err: err}
	}

	return err
}
