package cli

import (
	"errors"
	"os"
	"strings"

	actx "go.hackfix.me/dbsync/app/context"
	aerrors "go.hackfix.me/dbsync/app/errors"
	"go.hackfix.me/dbsync/db"
	"go.hackfix.me/dbsync/db/migrator"
	"go.hackfix.me/dbsync/db/process"
	"go.hackfix.me/dbsync/db/types"
	"go.hackfix.me/dbsync/migration"
)

// connect returns the application database connection, opening it if needed.
func connect(appCtx *actx.Context, g *Globals) (*db.DB, error) {
	if appCtx.DB != nil {
		return appCtx.DB, nil
	}

	driver, err := g.driver()
	if err != nil {
		return nil, err
	}
	if g.DSN == "" {
		return nil, aerrors.NewWith("no database DSN was configured",
			"hint", "Set it with --dsn, DBSYNC_DSN or in the configuration file.")
	}

	dsn := g.DSN
	if appCtx.Env != nil {
		dsn = os.Expand(dsn, appCtx.Env.Get)
	}

	d, err := db.Open(appCtx.Ctx, driver, dsn, appCtx.Logger)
	if err != nil {
		return nil, aerrors.NewWithCause("failed opening database", err, "driver", driver)
	}
	appCtx.DB = d

	return d, nil
}

func newStore(appCtx *actx.Context, g *Globals) (*db.Store, error) {
	d, err := connect(appCtx, g)
	if err != nil {
		return nil, err
	}

	store, err := db.NewStore(d, d.Driver(), g.Table, appCtx.TimeNow)
	if err != nil {
		return nil, aerrors.NewWithCause("failed creating schema version store", err, "table", g.Table)
	}

	return store, nil
}

func newExecutor(appCtx *actx.Context, g *Globals, d *db.DB) (migrator.Executor, error) {
	if strings.TrimSpace(g.Client) == "" {
		return db.NewTxExecutor(d), nil
	}

	e, err := process.New(strings.Fields(g.Client),
		process.WithEnv(g.clientEnv...), process.WithLogger(appCtx.Logger))
	if err != nil {
		return nil, aerrors.NewWithCause("failed creating database client executor", err, "client", g.Client)
	}

	return e, nil
}

func loadMigrations(appCtx *actx.Context, g *Globals) ([]migration.Migration, error) {
	migs, err := migration.Load(appCtx.FS, g.Dir)
	if err != nil {
		return nil, aerrors.NewWithCause("failed loading migrations", err, "dir", g.Dir)
	}
	appCtx.Logger.Debug("loaded migrations", "dir", g.Dir, "count", len(migs))

	return migs, nil
}

// newMigrator loads the migrations and creates a Migrator. If initStore is
// true, the schema version tables are created if they don't exist.
func newMigrator(
	appCtx *actx.Context, g *Globals, initStore bool, opts ...migrator.Option,
) (*migrator.Migrator, *db.Store, []migration.Migration, error) {
	migs, err := loadMigrations(appCtx, g)
	if err != nil {
		return nil, nil, nil, err
	}

	store, err := newStore(appCtx, g)
	if err != nil {
		return nil, nil, nil, err
	}
	if initStore {
		if err = store.Init(appCtx.Ctx); err != nil {
			return nil, nil, nil, aerrors.NewWithCause("failed initializing schema version store", err)
		}
	}

	exec, err := newExecutor(appCtx, g, appCtx.DB)
	if err != nil {
		return nil, nil, nil, err
	}

	opts = append([]migrator.Option{migrator.WithLogger(appCtx.Logger)}, opts...)
	m, err := migrator.New(store, exec, opts...)
	if err != nil {
		return nil, nil, nil, err //nolint:wrapcheck // It's descriptive enough.
	}

	return m, store, migs, nil
}

// migrationErr converts migration errors into structured errors that render
// the failing version and direction.
func migrationErr(err error) error {
	var stepErr migrator.StepError
	if errors.As(err, &stepErr) {
		return aerrors.NewWithCause("migration failed", stepErr.Err,
			"version", stepErr.Version, "direction", stepErr.Direction)
	}

	var missingErr migrator.MissingChangeError
	if errors.As(err, &missingErr) {
		return aerrors.With(err,
			"version", missingErr.Version, "direction", missingErr.Direction,
			"hint", "Add a '-- @"+strings.ToUpper(string(missingErr.Direction))+"' section to the migration file.")
	}

	var loadErr types.LoadError
	if errors.As(err, &loadErr) {
		return aerrors.WithCause(errors.New("failed reading schema version"), err,
			"hint", "Did you forget to run 'dbsync init'?")
	}

	return err
}

func migrationNames(migs []migration.Migration) map[uint64]string {
	names := make(map[uint64]string, len(migs))
	for _, m := range migs {
		names[m.Version] = m.Name
	}
	return names
}
