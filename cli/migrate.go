package cli

import (
	"database/sql"
	"fmt"
	"io"

	actx "go.hackfix.me/dbsync/app/context"
	"go.hackfix.me/dbsync/db/migrator"
)

// The Migrate command moves the database schema to a version, applying up or
// down migrations as needed.
type Migrate struct {
	To     sql.Null[uint64] `kong:"type='version',default='latest',help='Target schema version, or \"latest\" for the highest migration version.'"`
	DryRun bool             `kong:"help='Only show the steps that would be applied.'"`
}

// Run the migrate command.
func (c *Migrate) Run(appCtx *actx.Context, g *Globals) error {
	m, _, migs, err := newMigrator(appCtx, g, !c.DryRun, migrator.WithDryRun(c.DryRun))
	if err != nil {
		return migrationErr(err)
	}

	res, err := m.Migrate(appCtx.Ctx, migs, c.To)
	if err != nil {
		return migrationErr(err)
	}

	return printResult(appCtx.Stdout, res, migrationNames(migs))
}

func printResult(w io.Writer, res *migrator.Result, names map[uint64]string) error {
	if len(res.Steps) == 0 {
		_, err := fmt.Fprintf(w, "Schema is up to date at version %d.\n", res.FromVersion)
		return err //nolint:wrapcheck // Writing to stdout rarely fails.
	}

	if res.DryRun {
		if err := renderSteps(w, res.Steps, names); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, "Dry run: %d steps would be applied.\n", len(res.Steps))
		return err //nolint:wrapcheck // Writing to stdout rarely fails.
	}

	_, err := fmt.Fprintf(w, "Migrated schema from version %d to %d (%d steps applied).\n",
		res.FromVersion, res.ToVersion, len(res.Applied))

	return err //nolint:wrapcheck // Writing to stdout rarely fails.
}
