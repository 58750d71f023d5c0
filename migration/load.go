package migration

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mandelsoft/vfs/pkg/vfs"
)

// Load reads all migration files in dir and returns them sorted by version.
// Only regular files with the .sql extension are considered, and files whose
// name doesn't start with a version are skipped. Subdirectories are not read.
// It returns a DuplicateVersionError if two files share the same version, and
// a ZeroVersionError if a file has version 0.
func Load(fs vfs.FileSystem, dir string) ([]Migration, error) {
	entries, err := vfs.ReadDir(fs, dir)
	if err != nil {
		return nil, fmt.Errorf("failed reading migrations directory: %w", err)
	}

	migrations := make([]Migration, 0, len(entries))
	byVersion := make(map[uint64]string, len(entries))
	for _, e := range entries {
		if !e.Mode().IsRegular() || !strings.EqualFold(filepath.Ext(e.Name()), ".sql") {
			continue
		}

		version, err := VersionFromName(e.Name())
		if err != nil {
			return nil, err
		}
		if !version.Valid {
			continue
		}
		if version.V == 0 {
			return nil, ZeroVersionError{Name: e.Name()}
		}

		if prev, ok := byVersion[version.V]; ok {
			return nil, DuplicateVersionError{Version: version.V, Names: []string{prev, e.Name()}}
		}
		byVersion[version.V] = e.Name()

		src, err := vfs.ReadFile(fs, filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed reading migration file '%s': %w", e.Name(), err)
		}

		migrations = append(migrations, Migration{
			Version: version.V,
			Name:    e.Name(),
			Changes: Parse(string(src)),
		})
	}

	Sort(migrations)

	return migrations, nil
}
