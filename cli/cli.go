package cli

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/alecthomas/kong"

	"go.hackfix.me/dbsync/app/config"
	actx "go.hackfix.me/dbsync/app/context"
	"go.hackfix.me/dbsync/db/types"
)

// CLI is the command line interface of dbsync.
type CLI struct {
	Init     Init         `kong:"cmd,help='Create the migrations directory and the schema version tables.'"`
	New      NewMigration `kong:"cmd,help='Create a new migration file.'"`
	Migrate  Migrate      `kong:"cmd,help='Migrate the database schema to a version, up or down.'"`
	Rollback Rollback     `kong:"cmd,help='Roll back the latest applied migrations.'"`
	Plan     Plan         `kong:"cmd,help='Show the migration steps needed to reach a version.'"`
	Status   Status       `kong:"cmd,help='Show the status of all migrations.'"`

	Globals `embed:""`

	Log struct {
		Level slog.Level `enum:"DEBUG,INFO,WARN,ERROR" default:"INFO" help:"Set the app logging level."`
	} `embed:"" prefix:"log-"`
	// NOTE: kong.ConfigFlag isn't used on purpose, since configuration is
	// managed independently from the CLI.
	ConfigFile string           `kong:"default='${configFile}',help='Path to the dbsync configuration file.'"`
	Version    kong.VersionFlag `kong:"help='Output version and exit.'"`

	kong *kong.Kong
	kctx *kong.Context
}

// Globals are options shared by all commands. Unset options are filled in from
// the configuration file.
type Globals struct {
	Dir    string `kong:"short='d',help='Path to the migrations directory.'"`
	Driver string `kong:"help='Database driver. Valid values: sqlite, postgres.'"`
	DSN    string `kong:"name='dsn',help='Database data source name. References to environment variables in $${VAR} form are expanded.'"`
	Table  string `kong:"help='Name of the table that stores the schema version.'"`
	//nolint:lll // Long struct tags are unavoidable.
	Client string `kong:"help='Database client command used to execute migrations, e.g. \"psql -X -q -v ON_ERROR_STOP=1\". The SQL is written to its standard input. If unset, migrations are executed through the database connection.'"`

	// set by ApplyConfig
	clientEnv []string
}

// New initializes the command-line interface.
func New(appCtx *actx.Context, configFilePath, version string) (*CLI, error) {
	c := &CLI{}
	kparser, err := kong.New(c,
		kong.Name("dbsync"),
		kong.Description("Apply versioned SQL migrations to a database, forwards or backwards."),
		kong.UsageOnError(),
		kong.DefaultEnvars("DBSYNC"),
		kong.NamedMapper("version", VersionMapper{}),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			Summary:             true,
			NoExpandSubcommands: true,
		}),
		kong.Writers(appCtx.Stdout, appCtx.Stderr),
		kong.Vars{
			"configFile": configFilePath,
			"version":    version,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed creating the Kong parser: %w", err)
	}

	c.kong = kparser

	return c, nil
}

// Execute starts the command execution. Parse must be called before this method.
func (c *CLI) Execute(appCtx *actx.Context) error {
	if c.kctx == nil {
		panic("the CLI wasn't initialized properly")
	}
	c.kong.Stdout = appCtx.Stdout
	c.kong.Stderr = appCtx.Stderr

	//nolint:wrapcheck // This is fine.
	return c.kctx.Run(appCtx, &c.Globals)
}

// Parse the given command line arguments. This method must be called before
// Execute.
func (c *CLI) Parse(args []string) error {
	kctx, err := c.kong.Parse(args)
	if err != nil {
		return fmt.Errorf("failed parsing CLI arguments: %w", err)
	}
	c.kctx = kctx

	return nil
}

// Command returns the full path of the executed command.
func (c *CLI) Command() string {
	if c.kctx == nil {
		panic("the CLI wasn't initialized properly")
	}
	cmdPath := []string{}
	for _, p := range c.kctx.Path {
		if p.Command != nil {
			cmdPath = append(cmdPath, p.Command.Name)
		}
	}

	return strings.Join(cmdPath, " ")
}

// ApplyConfig applies configuration values to the CLI, but only if they weren't
// already set. If no DSN is set and the effective driver is SQLite, the
// database in dataDir is used.
func (c *CLI) ApplyConfig(cfg *config.Config, dataDir string) {
	if c.Dir == "" && cfg.Migrations.Dir.Valid {
		c.Dir = cfg.Migrations.Dir.V
	}
	if c.Driver == "" && cfg.Database.Driver.Valid {
		c.Driver = string(cfg.Database.Driver.V)
	}
	if c.DSN == "" && cfg.Database.DSN.Valid {
		c.DSN = cfg.Database.DSN.V
	}
	if c.Table == "" && cfg.Database.VersionTable.Valid {
		c.Table = cfg.Database.VersionTable.V
	}
	if c.Client == "" && cfg.Executor.Command.Valid {
		c.Client = strings.Join(cfg.Executor.Command.V, " ")
	}
	c.clientEnv = nil
	if cfg.Executor.Env.Valid {
		c.clientEnv = cfg.Executor.Env.V
	}

	if c.DSN == "" {
		if driver, err := c.driver(); err == nil && driver == types.DriverSQLite {
			c.DSN = config.DefaultSQLiteDSN(dataDir)
		}
	}
}

func (g *Globals) driver() (types.Driver, error) {
	if g.Driver == "" {
		return types.DriverSQLite, nil
	}
	return types.DriverFromString(g.Driver) //nolint:wrapcheck // It's descriptive enough.
}
