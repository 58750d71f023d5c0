package migration

import "fmt"

// ConfigurationError is returned when the selection can't be computed from the
// given arguments, e.g. when no target version was given and there are no
// migrations to infer it from.
type ConfigurationError struct {
	Msg string
}

// Error returns a string representation of the error.
func (e ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Msg)
}

// DuplicateVersionError is returned when more than one migration has the same
// version.
type DuplicateVersionError struct {
	Version uint64
	Names   []string
}

// Error returns a string representation of the error.
func (e DuplicateVersionError) Error() string {
	if len(e.Names) == 0 {
		return fmt.Sprintf("duplicate migration version %d", e.Version)
	}
	return fmt.Sprintf("duplicate migration version %d: %v", e.Version, e.Names)
}

// ZeroVersionError is returned when a migration file has version 0. Version 0
// is the schema version of a database with no migrations applied, so such a
// migration could never be applied.
type ZeroVersionError struct {
	Name string
}

// Error returns a string representation of the error.
func (e ZeroVersionError) Error() string {
	return fmt.Sprintf("migration file '%s' has version 0, which is reserved for the empty schema", e.Name)
}
