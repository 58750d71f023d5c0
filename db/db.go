package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	//nolint:revive,nolintlint // Idiomatic way of loading DB libraries.
	_ "github.com/glebarez/go-sqlite"
	//nolint:revive,nolintlint // Idiomatic way of loading DB libraries.
	_ "github.com/jackc/pgx/v5/stdlib"

	"go.hackfix.me/dbsync/db/types"
)

// DB wraps sql.DB with the driver it was opened with.
type DB struct {
	*sql.DB
	driver types.Driver
	dsn    string
}

var _ types.TxQuerier = (*DB)(nil)

// Open creates a new database connection for the given driver and data source
// name. The connection is verified with a ping.
func Open(ctx context.Context, driver types.Driver, dsn string, logger *slog.Logger) (*DB, error) {
	var sqlDriver string
	switch driver {
	case types.DriverSQLite:
		sqlDriver = "sqlite"
	case types.DriverPostgres:
		sqlDriver = "pgx"
	default:
		return nil, fmt.Errorf("unsupported database driver '%s'", driver)
	}

	sqlDB, err := sql.Open(sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed opening %s database: %w", driver, err)
	}

	d := &DB{DB: sqlDB, driver: driver, dsn: dsn}

	if driver == types.DriverSQLite &&
		(strings.Contains(dsn, "mode=memory") || strings.Contains(dsn, ":memory:")) {
		// Keep the in-memory database alive between connections.
		// See https://github.com/mattn/go-sqlite3#faq
		d.SetMaxIdleConns(10)
		d.SetConnMaxLifetime(time.Duration(math.Inf(1)))
	}

	if err = d.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed connecting to %s database: %w", driver, types.Err(err))
	}

	logger.Debug("opened database", "driver", driver)

	return d, nil
}

// Driver returns the driver the database was opened with.
func (d *DB) Driver() types.Driver {
	return d.driver
}
