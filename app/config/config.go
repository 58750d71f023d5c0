package config

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/mandelsoft/vfs/pkg/vfs"

	"go.hackfix.me/dbsync/db"
	"go.hackfix.me/dbsync/db/types"
)

// Config represents the application configuration, backed by a filesystem for
// persistence.
type Config struct {
	Migrations Migrations
	Database   Database
	Executor   Executor

	fs   vfs.FileSystem
	path string
}

// NewConfig creates a new Config instance with the specified filesystem
// and configuration file path.
func NewConfig(fs vfs.FileSystem, path string) *Config {
	return &Config{fs: fs, path: path}
}

// Load reads and parses the configuration file from the filesystem.
// If the file doesn't exist, it initializes with an empty configuration.
func (c *Config) Load() error {
	configJSON, err := vfs.ReadFile(c.fs, c.path)
	if err != nil && !vfs.IsErrNotExist(err) {
		return fmt.Errorf("failed reading configuration file: %w", err)
	}

	// Ensure that unmarshalling JSON doesn't fail if the file doesn't exist or is empty.
	if len(configJSON) == 0 {
		configJSON = []byte("{}")
	}

	if err = json.Unmarshal(configJSON, c); err != nil {
		return fmt.Errorf("failed parsing configuration file: %w", err)
	}

	return nil
}

// Path returns the filesystem path where the configuration is stored.
func (c *Config) Path() string {
	return c.path
}

// Save writes the current configuration to the filesystem as JSON.
func (c *Config) Save() error {
	if err := c.fs.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("failed creating configuration directory: %w", err)
	}
	configJSON, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed serializing configuration data: %w", err)
	}
	if err = vfs.WriteFile(c.fs, c.path, configJSON, 0o644); err != nil {
		return fmt.Errorf("failed writing configuration file: %w", err)
	}

	return nil
}

// Migrations defines where migration files are read from.
type Migrations struct {
	// Dir is the directory containing the migration files.
	Dir sql.Null[string] `json:"dir"`
}

// Database defines the database the migrations are applied to.
type Database struct {
	// Driver is the database driver. Valid values: sqlite, postgres.
	Driver sql.Null[types.Driver] `json:"driver"`
	// DSN is the data source name passed to the driver. References to
	// environment variables in ${VAR} form are expanded when connecting.
	DSN sql.Null[string] `json:"dsn"`
	// VersionTable is the name of the table that stores the schema version.
	VersionTable sql.Null[string] `json:"version_table"`
}

// Executor defines how migration steps are executed. If Command is unset,
// steps are executed through the database connection.
type Executor struct {
	// Command is the database client command and its arguments, e.g.
	// ["psql", "-X", "-q", "-v", "ON_ERROR_STOP=1"]. The SQL of each step is
	// written to its standard input.
	Command sql.Null[[]string] `json:"command"`
	// Env are additional environment variables in key=value form passed to the
	// client command.
	Env sql.Null[[]string] `json:"env"`
}

type cfgWrapper struct {
	Migrations migCfgWrapper  `json:"migrations"`
	Database   dbCfgWrapper   `json:"database"`
	Executor   execCfgWrapper `json:"executor"`
}
type migCfgWrapper struct {
	Dir string `json:"dir,omitempty"`
}
type dbCfgWrapper struct {
	Driver       string `json:"driver,omitempty"`
	DSN          string `json:"dsn,omitempty"`
	VersionTable string `json:"version_table,omitempty"`
}
type execCfgWrapper struct {
	Command []string `json:"command,omitempty"`
	Env     []string `json:"env,omitempty"`
}

// MarshalJSON implements custom JSON marshaling to convert sql.Null values
// to their underlying types, omitting invalid/null fields from the output.
func (c Config) MarshalJSON() ([]byte, error) {
	w := cfgWrapper{}

	if c.Migrations.Dir.Valid {
		w.Migrations.Dir = c.Migrations.Dir.V
	}

	if c.Database.Driver.Valid {
		w.Database.Driver = string(c.Database.Driver.V)
	}
	if c.Database.DSN.Valid {
		w.Database.DSN = c.Database.DSN.V
	}
	if c.Database.VersionTable.Valid {
		w.Database.VersionTable = c.Database.VersionTable.V
	}

	if c.Executor.Command.Valid {
		w.Executor.Command = c.Executor.Command.V
	}
	if c.Executor.Env.Valid {
		w.Executor.Env = c.Executor.Env.V
	}

	//nolint:wrapcheck // This is fine.
	return json.Marshal(w)
}

// UnmarshalJSON implements custom JSON unmarshaling to convert plain values
// into sql.Null types.
func (c *Config) UnmarshalJSON(data []byte) error {
	var w cfgWrapper
	if err := json.Unmarshal(data, &w); err != nil {
		//nolint:wrapcheck // This is fine.
		return err
	}

	if w.Migrations.Dir != "" {
		c.Migrations.Dir = sql.Null[string]{V: w.Migrations.Dir, Valid: true}
	}

	if w.Database.Driver != "" {
		driver, err := types.DriverFromString(w.Database.Driver)
		if err != nil {
			return err
		}
		c.Database.Driver = sql.Null[types.Driver]{V: driver, Valid: true}
	}
	if w.Database.DSN != "" {
		c.Database.DSN = sql.Null[string]{V: w.Database.DSN, Valid: true}
	}
	if w.Database.VersionTable != "" {
		c.Database.VersionTable = sql.Null[string]{V: w.Database.VersionTable, Valid: true}
	}

	if len(w.Executor.Command) > 0 {
		c.Executor.Command = sql.Null[[]string]{V: w.Executor.Command, Valid: true}
	}
	if len(w.Executor.Env) > 0 {
		c.Executor.Env = sql.Null[[]string]{V: w.Executor.Env, Valid: true}
	}

	return nil
}

// SetDefaults sets default configuration values if they weren't set already.
// The DSN has no default here, since it depends on the driver, which can be
// overridden on the command line. See DefaultSQLiteDSN.
func (c *Config) SetDefaults() {
	if !c.Migrations.Dir.Valid {
		c.Migrations.Dir = sql.Null[string]{V: "migrations", Valid: true}
	}
	if !c.Database.Driver.Valid {
		c.Database.Driver = sql.Null[types.Driver]{V: types.DriverSQLite, Valid: true}
	}
	if !c.Database.VersionTable.Valid {
		c.Database.VersionTable = sql.Null[string]{V: db.DefaultVersionTable, Valid: true}
	}
}

// DefaultSQLiteDSN returns the DSN of the default SQLite database stored in
// dataDir.
func DefaultSQLiteDSN(dataDir string) string {
	return filepath.Join(dataDir, "dbsync.db")
}
