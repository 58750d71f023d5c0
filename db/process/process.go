// Package process implements a migration step executor that pipes SQL into an
// external database client, such as psql or sqlite3.
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"go.hackfix.me/dbsync/db/types"
)

// Executor runs SQL by spawning a database client process and writing the SQL
// to its standard input.
type Executor struct {
	command []string
	env     []string
	logger  *slog.Logger
}

// Option is a function that allows configuring the Executor.
type Option func(*Executor)

// WithEnv sets additional environment variables for the client process, in
// "key=value" form.
func WithEnv(env ...string) Option {
	return func(e *Executor) {
		e.env = append(e.env, env...)
	}
}

// WithLogger sets the logger used by the Executor.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		e.logger = logger.With("component", "executor")
	}
}

// New returns a new Executor for the given client command and arguments.
func New(command []string, opts ...Option) (*Executor, error) {
	if len(command) == 0 || strings.TrimSpace(command[0]) == "" {
		return nil, errors.New("database client command is required")
	}

	e := &Executor{command: command, logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}

	return e, nil
}

// Exec wraps query in a transaction and pipes it to a new client process. It
// returns the standard output of the process. If the process exits with a
// non-zero status, or writes anything to its standard error, it returns a
// types.ExecutionError with the captured error output.
func (e *Executor) Exec(ctx context.Context, query string) (string, error) {
	//nolint:gosec // The command is provided by the user on purpose.
	cmd := exec.CommandContext(ctx, e.command[0], e.command[1:]...)
	if len(e.env) > 0 {
		cmd.Env = append(cmd.Environ(), e.env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdin = strings.NewReader(wrapTx(query))
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	e.logger.Debug("running database client", "command", strings.Join(e.command, " "))

	err := cmd.Run()
	if err != nil || stderr.Len() > 0 {
		execErr := types.ExecutionError{Command: query, Stderr: stderr.String(), Err: err}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			execErr.ExitCode = exitErr.ExitCode()
		}
		if err == nil {
			execErr.Err = errors.New("unexpected output on standard error")
		}
		return stdout.String(), execErr
	}

	return stdout.String(), nil
}

func wrapTx(query string) string {
	return fmt.Sprintf("BEGIN;\n%s\nCOMMIT;\n", query)
}
