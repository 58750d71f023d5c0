package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	actx "go.hackfix.me/dbsync/app/context"
	aerrors "go.hackfix.me/dbsync/app/errors"
)

const migrationTemplate = `-- @UP


-- @DOWN

`

var migrationNameRx = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// The NewMigration command creates a new migration file, whose version is the current
// UTC time.
type NewMigration struct {
	Name string `arg:"" help:"Short description of the migration, e.g. 'create_users'. Only letters, digits, '_' and '-' are allowed."`
}

// Validate the migration name.
func (c *NewMigration) Validate() error {
	if !migrationNameRx.MatchString(c.Name) {
		return fmt.Errorf("invalid migration name '%s'", c.Name)
	}
	return nil
}

// Run the new command.
func (c *NewMigration) Run(appCtx *actx.Context, g *Globals) error {
	if err := appCtx.FS.MkdirAll(g.Dir, 0o755); err != nil {
		return aerrors.NewWithCause("failed creating migrations directory", err, "dir", g.Dir)
	}

	version := appCtx.TimeNow().UTC().Format("20060102150405")
	path := filepath.Join(g.Dir, fmt.Sprintf("%s_%s.sql", version, c.Name))

	if _, err := appCtx.FS.Stat(path); err == nil {
		return aerrors.NewWith("failed creating migration file: file already exists", "path", path)
	}

	f, err := appCtx.FS.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return aerrors.NewWithCause("failed creating migration file", err, "path", path)
	}
	if _, err = f.Write([]byte(migrationTemplate)); err != nil {
		_ = f.Close()
		return aerrors.NewWithCause("failed writing migration file", err, "path", path)
	}
	if err = f.Close(); err != nil {
		return aerrors.NewWithCause("failed writing migration file", err, "path", path)
	}

	appCtx.Logger.Debug("created migration file", "path", path)
	_, err = fmt.Fprintln(appCtx.Stdout, path)

	return err //nolint:wrapcheck // Writing to stdout rarely fails.
}
