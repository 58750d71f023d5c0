package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/mandelsoft/vfs/pkg/memoryfs"

	"go.hackfix.me/dbsync/app/config"
	actx "go.hackfix.me/dbsync/app/context"
	"go.hackfix.me/dbsync/cli"
)

// App is the application.
type App struct {
	name    string
	ctx     *actx.Context
	cli     *cli.CLI
	dataDir string
	// the logging level is set via the CLI, if the app was initialized with the
	// WithLogger option.
	logLevel *slog.LevelVar
}

// New initializes a new application. configFile is the default path of the
// configuration file, and dataDir is the directory where the default SQLite
// database is stored.
func New(name, configFile, dataDir string, opts ...Option) (*App, error) {
	version, err := actx.GetVersion()
	if err != nil {
		return nil, err
	}

	defaultCtx := &actx.Context{
		Ctx:     context.Background(),
		FS:      memoryfs.New(),
		Logger:  slog.Default(),
		TimeNow: time.Now,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
		Version: version,
	}
	app := &App{name: name, ctx: defaultCtx, dataDir: dataDir}

	for _, opt := range opts {
		opt(app)
	}

	ver := fmt.Sprintf("%s %s", app.name, app.ctx.Version.String())
	app.cli, err = cli.New(app.ctx, configFile, ver)
	if err != nil {
		return nil, err
	}

	return app, nil
}

// Run initializes the application environment and starts execution of the
// application.
func (app *App) Run(args []string) (err error) {
	if err = app.cli.Parse(args); err != nil {
		return err
	}

	if app.logLevel != nil {
		app.logLevel.Set(app.cli.Log.Level)
		slog.SetLogLoggerLevel(app.cli.Log.Level)
	}

	if app.ctx.Config == nil {
		app.ctx.Config = config.NewConfig(app.ctx.FS, app.cli.ConfigFile)
		if err = app.ctx.Config.Load(); err != nil {
			return err
		}
	}
	app.ctx.Config.SetDefaults()
	app.cli.ApplyConfig(app.ctx.Config, app.dataDir)

	if app.ctx.DB == nil {
		// Close the connection if it was opened on demand by the command.
		defer func() {
			if app.ctx.DB != nil {
				if cerr := app.ctx.DB.Close(); cerr != nil && err == nil {
					err = fmt.Errorf("failed closing database: %w", cerr)
				}
				app.ctx.DB = nil
			}
		}()
	}

	return app.cli.Execute(app.ctx)
}
