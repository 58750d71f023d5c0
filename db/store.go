package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.hackfix.me/dbsync/db/types"
	"go.hackfix.me/dbsync/migration"
)

// DefaultVersionTable is the default name of the table that stores the current
// schema version. Step history is stored in a table with the same name and a
// "_history" suffix.
const DefaultVersionTable = "schema_version"

var identRx = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Store keeps track of the schema version of a database, and the history of
// migration steps applied to it.
type Store struct {
	d       types.TxQuerier
	driver  types.Driver
	table   string
	timeNow func() time.Time
}

// NewStore returns a new Store that keeps its records in the given table. If
// table is empty, DefaultVersionTable is used.
func NewStore(d types.TxQuerier, driver types.Driver, table string, timeNow func() time.Time) (*Store, error) {
	if table == "" {
		table = DefaultVersionTable
	}
	if !identRx.MatchString(table) {
		return nil, fmt.Errorf("invalid version table name '%s'", table)
	}
	if timeNow == nil {
		timeNow = time.Now
	}

	return &Store{d: d, driver: driver, table: table, timeNow: timeNow}, nil
}

// Init creates the version and history tables if they don't exist.
func (s *Store) Init(ctx context.Context) error {
	idCol, tsType := "INTEGER PRIMARY KEY AUTOINCREMENT", "TIMESTAMP"
	if s.driver == types.DriverPostgres {
		idCol, tsType = "BIGSERIAL PRIMARY KEY", "TIMESTAMPTZ"
	}

	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS "%s" (
			id      INTEGER PRIMARY KEY CHECK (id = 1),
			version BIGINT NOT NULL
		)`, s.table),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS "%s_history" (
			id             %s,
			version        BIGINT NOT NULL,
			direction      TEXT NOT NULL,
			schema_version BIGINT NOT NULL,
			checksum       TEXT NOT NULL,
			run_id         TEXT NOT NULL,
			applied_at     %s NOT NULL
		)`, s.table, idCol, tsType),
	}
	for _, stmt := range stmts {
		if _, err := s.d.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed creating schema version tables: %w", types.Err(err))
		}
	}

	return nil
}

// Version returns the current schema version. It returns 0 if no version was
// recorded yet.
func (s *Store) Version(ctx context.Context) (uint64, error) {
	var version uint64
	err := s.d.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT version FROM "%s" WHERE id = 1`, s.table)).Scan(&version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, types.LoadError{ModelName: "schema version", Err: types.Err(err)}
	}

	return version, nil
}

// SetVersion stores the schema version resulting from the step described by
// entry, and appends the entry to the history. Both writes happen in a single
// transaction. The entry's ID and AppliedAt fields are set on success.
func (s *Store) SetVersion(ctx context.Context, entry *types.HistoryEntry) (err error) {
	tx, err := s.d.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed starting transaction: %w", types.Err(err))
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	p := s.driver.Placeholder
	_, err = tx.ExecContext(ctx, fmt.Sprintf(`INSERT INTO "%s" (id, version) VALUES (1, %s)
		ON CONFLICT (id) DO UPDATE SET version = excluded.version`, s.table, p(1)),
		entry.SchemaVersion)
	if err != nil {
		return fmt.Errorf("failed updating schema version: %w", types.Err(err))
	}

	appliedAt := s.timeNow().UTC()
	var id uint64
	err = tx.QueryRowContext(ctx, fmt.Sprintf(`INSERT INTO "%s_history"
		(version, direction, schema_version, checksum, run_id, applied_at)
		VALUES (%s, %s, %s, %s, %s, %s)
		RETURNING id`, s.table, p(1), p(2), p(3), p(4), p(5), p(6)),
		entry.Version, string(entry.Direction), entry.SchemaVersion,
		entry.Checksum, entry.RunID, appliedAt,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("failed recording migration history: %w", types.Err(err))
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed committing schema version: %w", types.Err(err))
	}

	entry.ID = id
	entry.AppliedAt = appliedAt

	return nil
}

// History returns all recorded migration steps in the order they were applied.
func (s *Store) History(ctx context.Context) ([]*types.HistoryEntry, error) {
	rows, err := s.d.QueryContext(ctx, fmt.Sprintf(`SELECT
		id, version, direction, schema_version, checksum, run_id, applied_at
		FROM "%s_history" ORDER BY id`, s.table))
	if err != nil {
		return nil, types.LoadError{ModelName: "migration history", Err: types.Err(err)}
	}
	defer rows.Close()

	history := []*types.HistoryEntry{}
	for rows.Next() {
		var (
			e   types.HistoryEntry
			dir string
		)
		err = rows.Scan(&e.ID, &e.Version, &dir, &e.SchemaVersion, &e.Checksum, &e.RunID, &e.AppliedAt)
		if err != nil {
			return nil, types.ScanError{ModelName: "migration history", Err: err}
		}
		e.Direction = migration.Direction(dir)
		history = append(history, &e)
	}
	if err = rows.Err(); err != nil {
		return nil, types.LoadError{ModelName: "migration history", Err: err}
	}

	return history, nil
}
