package migrator

import (
	"cmp"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"go.hackfix.me/dbsync/crypto"
	"go.hackfix.me/dbsync/db/types"
	"go.hackfix.me/dbsync/migration"
)

// Executor runs a single migration step against the database.
type Executor interface {
	// Exec runs the SQL query and returns any output produced by the database.
	Exec(ctx context.Context, query string) (string, error)
}

// Store persists the schema version of the database.
type Store interface {
	// Version returns the current schema version, or 0 if none was recorded.
	Version(ctx context.Context) (uint64, error)
	// SetVersion records the schema version resulting from a migration step.
	SetVersion(ctx context.Context, entry *types.HistoryEntry) error
}

// Migrator moves the database schema between versions by applying migration
// steps sequentially.
type Migrator struct {
	store  Store
	exec   Executor
	logger *slog.Logger
	runID  func() string
	dryRun bool
	mx     sync.Mutex
}

// Result describes a migration run.
type Result struct {
	RunID       string
	FromVersion uint64
	// ToVersion is the schema version after the run. If the run failed, it's the
	// version after the last successfully applied step.
	ToVersion uint64
	// Steps are all the steps planned for the run.
	Steps []migration.Step
	// Applied are the history entries of the steps applied during the run.
	Applied []*types.HistoryEntry
	DryRun  bool
}

// New returns a new Migrator instance.
func New(store Store, exec Executor, opts ...Option) (*Migrator, error) {
	if store == nil {
		return nil, errors.New("schema version store is required")
	}
	if exec == nil {
		return nil, errors.New("migration executor is required")
	}

	m := &Migrator{store: store, exec: exec}

	opts = append(DefaultOptions(), opts...)
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Plan returns the current schema version and the steps needed to migrate to
// the target version. If target is invalid, the latest migration version is
// used.
func (m *Migrator) Plan(
	ctx context.Context, migrations []migration.Migration, target sql.Null[uint64],
) (uint64, []migration.Step, error) {
	current, err := m.store.Version(ctx)
	if err != nil {
		return 0, nil, fmt.Errorf("failed reading schema version: %w", err)
	}

	steps, err := migration.Select(migrations, current, target)
	if err != nil {
		return current, nil, err //nolint:wrapcheck // Errors from Select are descriptive enough.
	}

	return current, steps, nil
}

// Migrate moves the schema to the target version. If target is invalid, the
// latest migration version is used.
//
// All steps are validated before any of them is executed. Steps are then
// applied in order, and the stored schema version is updated after each one.
// If a step fails, no further steps are applied, and the stored version stays
// at the last successfully applied step.
func (m *Migrator) Migrate(
	ctx context.Context, migrations []migration.Migration, target sql.Null[uint64],
) (*Result, error) {
	m.mx.Lock()
	defer m.mx.Unlock()

	current, steps, err := m.Plan(ctx, migrations, target)
	if err != nil {
		return nil, err
	}

	if !target.Valid && len(migrations) > 0 {
		target = sql.Null[uint64]{V: latest(migrations), Valid: true}
	}

	return m.apply(ctx, migrations, current, target.V, steps)
}

// Rollback rolls back the n latest applied migrations.
func (m *Migrator) Rollback(ctx context.Context, migrations []migration.Migration, n int) (*Result, error) {
	if n <= 0 {
		return nil, InvalidInputError{Msg: fmt.Sprintf("invalid number of migrations to roll back: %d", n)}
	}

	m.mx.Lock()
	defer m.mx.Unlock()

	current, err := m.store.Version(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed reading schema version: %w", err)
	}

	target := rollbackTarget(migrations, current, n)
	steps, err := migration.Select(migrations, current, sql.Null[uint64]{V: target, Valid: true})
	if err != nil {
		return nil, err //nolint:wrapcheck // Errors from Select are descriptive enough.
	}

	return m.apply(ctx, migrations, current, target, steps)
}

func (m *Migrator) apply(
	ctx context.Context, migrations []migration.Migration, current, target uint64, steps []migration.Step,
) (*Result, error) {
	res := &Result{
		RunID:       m.runID(),
		FromVersion: current,
		ToVersion:   current,
		Steps:       steps,
		DryRun:      m.dryRun,
	}
	logger := m.logger.With("run_id", res.RunID)

	if len(steps) == 0 {
		logger.Info("schema is up to date", "version", current)
		return res, nil
	}

	for _, step := range steps {
		if !step.SQL.Valid {
			return res, MissingChangeError{Version: step.Version, Direction: step.Direction}
		}
	}

	logger.Info("migrating schema",
		"from_version", current, "to_version", target, "steps", len(steps), "dry_run", m.dryRun)

	for _, step := range steps {
		stepLogger := logger.With("version", step.Version, "direction", step.Direction)

		if m.dryRun {
			stepLogger.Info("would apply migration")
			continue
		}

		if err := ctx.Err(); err != nil {
			return res, StepError{Version: step.Version, Direction: step.Direction, Err: err}
		}

		if step.SQL.V == "" {
			stepLogger.Debug("empty migration change, only updating schema version")
		} else {
			stepLogger.Debug("applying migration")
			out, err := m.exec.Exec(ctx, step.SQL.V)
			if err != nil {
				stepLogger.Error("failed applying migration", "error", err)
				return res, StepError{Version: step.Version, Direction: step.Direction, Err: err}
			}
			if out != "" {
				stepLogger.Debug("database output", "output", out)
			}
		}

		entry := &types.HistoryEntry{
			Version:       step.Version,
			Direction:     step.Direction,
			SchemaVersion: versionAfter(migrations, step, target),
			Checksum:      crypto.Checksum([]byte(step.SQL.V)),
			RunID:         res.RunID,
		}
		if err := m.store.SetVersion(ctx, entry); err != nil {
			return res, StepError{
				Version: step.Version, Direction: step.Direction,
				Err: fmt.Errorf("failed updating schema version: %w", err),
			}
		}

		res.ToVersion = entry.SchemaVersion
		res.Applied = append(res.Applied, entry)
		stepLogger.Info("applied migration", "schema_version", entry.SchemaVersion)
	}

	return res, nil
}

// versionAfter returns the schema version after applying step. Rolling back a
// migration leaves the schema at the closest lower migration version, but
// never below the target.
func versionAfter(migrations []migration.Migration, step migration.Step, target uint64) uint64 {
	if step.Direction == migration.Up {
		return step.Version
	}

	v := target
	for _, mig := range migrations {
		if mig.Version < step.Version && mig.Version > v {
			v = mig.Version
		}
	}

	return v
}

// rollbackTarget returns the version the schema should be rolled back to in
// order to undo the n latest applied migrations.
func rollbackTarget(migrations []migration.Migration, current uint64, n int) uint64 {
	applied := make([]uint64, 0, len(migrations))
	for _, mig := range migrations {
		if mig.Version <= current {
			applied = append(applied, mig.Version)
		}
	}
	if n >= len(applied) {
		return 0
	}

	slices.SortFunc(applied, func(a, b uint64) int { return cmp.Compare(b, a) })

	return applied[n]
}

func latest(migrations []migration.Migration) uint64 {
	var v uint64
	for _, mig := range migrations {
		v = max(v, mig.Version)
	}
	return v
}
