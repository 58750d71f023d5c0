package migration

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strconv"
)

// VersionFromName extracts the migration version from a file name. The version
// is the run of decimal digits at the start of the base name. If the name
// doesn't start with a digit, the returned value is invalid.
func VersionFromName(name string) (sql.Null[uint64], error) {
	base := filepath.Base(name)

	end := 0
	for end < len(base) && base[end] >= '0' && base[end] <= '9' {
		end++
	}
	if end == 0 {
		return sql.Null[uint64]{}, nil
	}

	v, err := strconv.ParseUint(base[:end], 10, 64)
	if err != nil {
		return sql.Null[uint64]{}, fmt.Errorf("invalid version in migration file name '%s': %w", base, err)
	}

	return sql.Null[uint64]{V: v, Valid: true}, nil
}
