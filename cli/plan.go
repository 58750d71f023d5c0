package cli

import (
	"database/sql"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter/tw"

	actx "go.hackfix.me/dbsync/app/context"
	"go.hackfix.me/dbsync/migration"
)

// The Plan command shows the steps needed to migrate the schema to a version,
// without applying them.
type Plan struct {
	To sql.Null[uint64] `kong:"type='version',default='latest',help='Target schema version, or \"latest\" for the highest migration version.'"`
}

// Run the plan command.
func (c *Plan) Run(appCtx *actx.Context, g *Globals) error {
	m, _, migs, err := newMigrator(appCtx, g, false)
	if err != nil {
		return migrationErr(err)
	}

	current, steps, err := m.Plan(appCtx.Ctx, migs, c.To)
	if err != nil {
		return migrationErr(err)
	}

	if len(steps) == 0 {
		_, err = fmt.Fprintf(appCtx.Stdout, "Schema is up to date at version %d.\n", current)
		return err //nolint:wrapcheck // Writing to stdout rarely fails.
	}

	if _, err = fmt.Fprintf(appCtx.Stdout, "Current version: %d\n\n", current); err != nil {
		return err //nolint:wrapcheck // Writing to stdout rarely fails.
	}

	return renderSteps(appCtx.Stdout, steps, migrationNames(migs))
}

func renderSteps(w io.Writer, steps []migration.Step, names map[uint64]string) error {
	data := make([][]string, 0, len(steps))
	for _, step := range steps {
		lines := "missing"
		if step.SQL.Valid {
			lines = strconv.Itoa(countLines(step.SQL.V))
		}
		data = append(data, []string{
			strconv.FormatUint(step.Version, 10), string(step.Direction), names[step.Version], lines,
		})
	}

	if err := renderTable(w, []column{
		colVersion, {name: "Direction", align: tw.AlignLeft}, colName, {name: "Lines", align: tw.AlignRight},
	}, data); err != nil {
		return fmt.Errorf("failed rendering migration steps: %w", err)
	}

	return nil
}

// countLines returns the number of non-blank lines in s.
func countLines(s string) int {
	var n int
	for line := range strings.Lines(s) {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n
}
