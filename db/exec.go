package db

import (
	"context"

	"go.hackfix.me/dbsync/db/types"
)

// TxExecutor executes migration steps through the database connection. Each
// step runs in its own transaction.
type TxExecutor struct {
	d types.TxQuerier
}

// NewTxExecutor returns a new TxExecutor.
func NewTxExecutor(d types.TxQuerier) *TxExecutor {
	return &TxExecutor{d: d}
}

// Exec runs the query in a new transaction, and commits it if the query
// succeeds. Since the database connection doesn't produce any output for
// statements, the returned output is always empty.
func (e *TxExecutor) Exec(ctx context.Context, query string) (string, error) {
	tx, err := e.d.BeginTx(ctx, nil)
	if err != nil {
		return "", types.ExecutionError{Command: "BEGIN", Err: types.Err(err)}
	}

	if _, err = tx.ExecContext(ctx, query); err != nil {
		_ = tx.Rollback()
		return "", types.ExecutionError{Command: query, Err: types.Err(err)}
	}

	if err = tx.Commit(); err != nil {
		return "", types.ExecutionError{Command: "COMMIT", Err: types.Err(err)}
	}

	return "", nil
}
