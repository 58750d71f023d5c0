package cli

import (
	"database/sql"
	"fmt"
	"strings"

	actx "go.hackfix.me/dbsync/app/context"
	aerrors "go.hackfix.me/dbsync/app/errors"
	"go.hackfix.me/dbsync/db/types"
)

// The Init command creates the migrations directory and the schema version
// tables, and saves the effective settings to the configuration file.
type Init struct {
	NoSave bool `help:"Don't write the settings to the configuration file."`
}

// Run the init command.
func (c *Init) Run(appCtx *actx.Context, g *Globals) error {
	if err := appCtx.FS.MkdirAll(g.Dir, 0o755); err != nil {
		return aerrors.NewWithCause("failed creating migrations directory", err, "dir", g.Dir)
	}

	store, err := newStore(appCtx, g)
	if err != nil {
		return err
	}
	if err = store.Init(appCtx.Ctx); err != nil {
		return aerrors.NewWithCause("failed initializing schema version store", err, "table", g.Table)
	}

	if !c.NoSave {
		cfg := appCtx.Config
		cfg.Migrations.Dir = sql.Null[string]{V: g.Dir, Valid: true}
		cfg.Database.Driver = sql.Null[types.Driver]{V: appCtx.DB.Driver(), Valid: true}
		cfg.Database.DSN = sql.Null[string]{V: g.DSN, Valid: true}
		cfg.Database.VersionTable = sql.Null[string]{V: g.Table, Valid: true}
		if cmd := strings.Fields(g.Client); len(cmd) > 0 {
			cfg.Executor.Command = sql.Null[[]string]{V: cmd, Valid: true}
		}
		if err = cfg.Save(); err != nil {
			return aerrors.NewWithCause("failed saving configuration", err, "path", cfg.Path())
		}
	}

	appCtx.Logger.Info("initialized", "dir", g.Dir, "table", g.Table)
	_, err = fmt.Fprintf(appCtx.Stdout, "Initialized migrations directory '%s' and version table '%s'.\n",
		g.Dir, g.Table)

	return err //nolint:wrapcheck // Writing to stdout rarely fails.
}
