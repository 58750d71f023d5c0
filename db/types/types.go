package types

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.hackfix.me/dbsync/migration"
)

// Querier exposes only methods for running SQL queries.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TxQuerier is a Querier that can also start transactions.
type TxQuerier interface {
	Querier
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// Driver are the supported database drivers.
type Driver string

// All supported database drivers.
const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// DriverFromString returns a valid Driver for the given string, or an error if
// the value is invalid.
func DriverFromString(val string) (Driver, error) {
	switch Driver(strings.ToLower(val)) {
	case DriverSQLite:
		return DriverSQLite, nil
	case DriverPostgres, "postgresql", "pgx":
		return DriverPostgres, nil
	}
	return "", fmt.Errorf("unsupported database driver '%s'", val)
}

// Placeholder returns the bind parameter placeholder for the n-th (1-based)
// query argument.
func (d Driver) Placeholder(n int) string {
	if d == DriverPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// HistoryEntry records a single migration step applied to the database.
type HistoryEntry struct {
	ID uint64
	// Version is the version of the migration that was applied or rolled back.
	Version   uint64
	Direction migration.Direction
	// SchemaVersion is the version of the schema after the step was applied.
	SchemaVersion uint64
	// Checksum identifies the SQL text that was executed.
	Checksum  string
	RunID     string
	AppliedAt time.Time
}
