package cli

import (
	"fmt"

	actx "go.hackfix.me/dbsync/app/context"
	"go.hackfix.me/dbsync/db/migrator"
)

// The Rollback command rolls back the latest applied migrations.
type Rollback struct {
	Steps  int  `kong:"short='n',default='1',help='Number of migrations to roll back.'"`
	DryRun bool `kong:"help='Only show the steps that would be applied.'"`
}

// Validate the number of steps.
func (c *Rollback) Validate() error {
	if c.Steps < 1 {
		return fmt.Errorf("invalid number of steps %d: must be at least 1", c.Steps)
	}
	return nil
}

// Run the rollback command.
func (c *Rollback) Run(appCtx *actx.Context, g *Globals) error {
	m, _, migs, err := newMigrator(appCtx, g, !c.DryRun, migrator.WithDryRun(c.DryRun))
	if err != nil {
		return migrationErr(err)
	}

	res, err := m.Rollback(appCtx.Ctx, migs, c.Steps)
	if err != nil {
		return migrationErr(err)
	}

	return printResult(appCtx.Stdout, res, migrationNames(migs))
}
