package cli

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter/tw"

	actx "go.hackfix.me/dbsync/app/context"
	"go.hackfix.me/dbsync/migration"
)

// The Status command shows all migrations, whether they're applied, and the
// current schema version.
type Status struct{}

// Run the status command.
func (c *Status) Run(appCtx *actx.Context, g *Globals) error {
	migs, err := loadMigrations(appCtx, g)
	if err != nil {
		return err
	}

	store, err := newStore(appCtx, g)
	if err != nil {
		return err
	}

	current, err := store.Version(appCtx.Ctx)
	if err != nil {
		return migrationErr(err)
	}

	history, err := store.History(appCtx.Ctx)
	if err != nil {
		return migrationErr(err)
	}

	// The time each version was last applied, if it's still applied.
	appliedAt := map[uint64]time.Time{}
	for _, e := range history {
		switch e.Direction {
		case migration.Up:
			appliedAt[e.Version] = e.AppliedAt
		case migration.Down:
			delete(appliedAt, e.Version)
		}
	}

	names := migrationNames(migs)
	versions := slices.Collect(maps.Keys(names))
	for v := range appliedAt {
		if _, ok := names[v]; !ok {
			versions = append(versions, v)
		}
	}
	slices.Sort(versions)

	data := make([][]string, 0, len(versions))
	for _, v := range versions {
		name, ok := names[v]
		if !ok {
			name = "(file missing)"
		}
		state, at := "pending", "-"
		if t, ok := appliedAt[v]; ok {
			state, at = "applied", t.Local().Format(time.DateTime)
		} else if v <= current {
			// Applied before history was recorded, or skipped over.
			state = "skipped"
		}
		data = append(data, []string{strconv.FormatUint(v, 10), name, state, at})
	}

	if len(data) > 0 {
		if err = renderTable(appCtx.Stdout, []column{
			colVersion, colName, {name: "State", align: tw.AlignLeft}, {name: "Applied At", align: tw.AlignLeft},
		}, data); err != nil {
			return fmt.Errorf("failed rendering migration status: %w", err)
		}
		if _, err = fmt.Fprintln(appCtx.Stdout); err != nil {
			return err //nolint:wrapcheck // Writing to stdout rarely fails.
		}
	}

	_, err = fmt.Fprintf(appCtx.Stdout, "Current version: %d\n", current)

	return err //nolint:wrapcheck // Writing to stdout rarely fails.
}
