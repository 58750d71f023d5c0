package migrator

import (
	"fmt"

	"go.hackfix.me/dbsync/migration"
)

// MissingChangeError is returned when a migration selected for a run doesn't
// define the change for the required direction.
type MissingChangeError struct {
	Version   uint64
	Direction migration.Direction
}

// Error returns a string representation of the error.
func (e MissingChangeError) Error() string {
	return fmt.Sprintf("migration %d has no %s change", e.Version, e.Direction)
}

// StepError is returned when applying a migration step fails.
type StepError struct {
	Version   uint64
	Direction migration.Direction
	Err       error
}

// Error returns a string representation of the error.
func (e StepError) Error() string {
	return fmt.Sprintf("failed applying %s migration %d: %s", e.Direction, e.Version, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e StepError) Unwrap() error {
	return e.Err
}

// InvalidInputError represents an error due to invalid input data.
type InvalidInputError struct {
	Msg string
}

// Error returns a string representation of the error.
func (e InvalidInputError) Error() string {
	return e.Msg
}
