package migrator

import (
	"log/slog"

	"github.com/nrednav/cuid2"
)

// Option is a function that allows configuring the Migrator.
type Option func(*Migrator) error

// WithLogger sets the logger used by the Migrator.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Migrator) error {
		m.logger = logger.With("component", "migrator")
		return nil
	}
}

// WithRunID sets the function that generates the ID of each migration run.
func WithRunID(runIDFn func() string) Option {
	return func(m *Migrator) error {
		m.runID = runIDFn
		return nil
	}
}

// WithDryRun makes the Migrator only report the steps it would apply, without
// executing them or changing the stored schema version.
func WithDryRun(dryRun bool) Option {
	return func(m *Migrator) error {
		m.dryRun = dryRun
		return nil
	}
}

// DefaultOptions returns the default Migrator options.
func DefaultOptions() []Option {
	return []Option{
		WithLogger(slog.Default()),
		WithRunID(cuid2.Generate),
	}
}
