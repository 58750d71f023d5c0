package migration

import (
	"cmp"
	"database/sql"
	"slices"
)

// Direction is the direction in which a migration step moves the schema.
type Direction string

// Valid migration directions.
const (
	Up   Direction = "up"
	Down Direction = "down"
)

// Migration is a parsed migration file combined with its version.
type Migration struct {
	Version uint64
	// Name is the base name of the file the migration was loaded from. It may
	// be empty for migrations built in memory.
	Name string
	Changes
}

// Step is a single change to execute, with the direction already resolved.
type Step struct {
	Version   uint64
	Direction Direction
	SQL       sql.Null[string]
}

// Select returns the ordered steps needed to move the schema from
// schemaVersion to target. If target is invalid, the highest migration version
// is used.
//
// Moving up applies the up changes of all migrations in (schemaVersion, target]
// in ascending order. Moving down applies the down changes of all migrations in
// (target, schemaVersion] in descending order, so the target version itself is
// never rolled back.
func Select(migrations []Migration, schemaVersion uint64, target sql.Null[uint64]) ([]Step, error) {
	if err := checkUnique(migrations); err != nil {
		return nil, err
	}

	if !target.Valid {
		if len(migrations) == 0 {
			return nil, ConfigurationError{Msg: "no migrations found and no target version given"}
		}
		target = sql.Null[uint64]{V: maxVersion(migrations), Valid: true}
	}

	steps := []Step{}
	switch {
	case target.V > schemaVersion:
		for _, m := range migrations {
			if m.Version > schemaVersion && m.Version <= target.V {
				steps = append(steps, Step{Version: m.Version, Direction: Up, SQL: m.Up})
			}
		}
		slices.SortFunc(steps, func(a, b Step) int { return cmp.Compare(a.Version, b.Version) })
	case target.V < schemaVersion:
		for _, m := range migrations {
			if m.Version > target.V && m.Version <= schemaVersion {
				steps = append(steps, Step{Version: m.Version, Direction: Down, SQL: m.Down})
			}
		}
		slices.SortFunc(steps, func(a, b Step) int { return cmp.Compare(b.Version, a.Version) })
	}

	return steps, nil
}

// Sort sorts migrations by ascending version.
func Sort(migrations []Migration) {
	slices.SortStableFunc(migrations, func(a, b Migration) int {
		return cmp.Compare(a.Version, b.Version)
	})
}

func checkUnique(migrations []Migration) error {
	seen := make(map[uint64]string, len(migrations))
	for _, m := range migrations {
		if name, ok := seen[m.Version]; ok {
			return DuplicateVersionError{Version: m.Version, Names: []string{name, m.Name}}
		}
		seen[m.Version] = m.Name
	}

	return nil
}

func maxVersion(migrations []Migration) uint64 {
	var v uint64
	for _, m := range migrations {
		v = max(v, m.Version)
	}
	return v
}
