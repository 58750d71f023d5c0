package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/adrg/xdg"
	"github.com/mandelsoft/vfs/pkg/osfs"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"go.hackfix.me/dbsync/app"
	actx "go.hackfix.me/dbsync/app/context"
	aerrors "go.hackfix.me/dbsync/app/errors"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := run(ctx)
	stop()
	if err != nil {
		aerrors.Log(nil, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// Creates the data directory, so that the default SQLite database can be
	// written to it.
	dbPath, err := xdg.DataFile(filepath.Join("dbsync", "dbsync.db"))
	if err != nil {
		return aerrors.NewWithCause("failed creating data directory", err)
	}
	configFile := filepath.Join(xdg.ConfigHome, "dbsync", "config.json")

	a, err := app.New("dbsync", configFile, filepath.Dir(dbPath),
		app.WithContext(ctx),
		app.WithTimeNow(time.Now),
		app.WithEnv(osEnv{}),
		app.WithFDs(
			os.Stdin,
			colorable.NewColorable(os.Stdout),
			colorable.NewColorable(os.Stderr),
		),
		app.WithFS(osfs.New()),
		app.WithLogger(
			isatty.IsTerminal(os.Stdout.Fd()),
			isatty.IsTerminal(os.Stderr.Fd()),
		),
	)
	if err != nil {
		return err //nolint:wrapcheck // It's descriptive enough.
	}

	return a.Run(os.Args[1:]) //nolint:wrapcheck // It's descriptive enough.
}

type osEnv struct{}

var _ actx.Environment = &osEnv{}

func (e osEnv) Get(key string) string {
	return os.Getenv(key)
}

func (e osEnv) Set(key, val string) error {
	return os.Setenv(key, val)
}
