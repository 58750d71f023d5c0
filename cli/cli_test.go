package cli

import (
	"database/sql"
	"testing"

	"github.com/mandelsoft/vfs/pkg/memoryfs"
	"github.com/stretchr/testify/assert"

	"go.hackfix.me/dbsync/app/config"
	"go.hackfix.me/dbsync/db/types"
)

func TestCLIApplyConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		globals   Globals
		cfgDriver types.Driver
		cfgDSN    string
		expDriver string
		expDSN    string
	}{
		{name: "ok/sqlite_default", expDriver: "sqlite", expDSN: "/data/dbsync.db"},
		{
			name:      "ok/postgres_flag",
			globals:   Globals{Driver: "postgres"},
			expDriver: "postgres",
		},
		{
			name:      "ok/postgres_config",
			cfgDriver: types.DriverPostgres,
			expDriver: "postgres",
		},
		{
			name:      "ok/sqlite_flag_over_postgres_config",
			globals:   Globals{Driver: "sqlite"},
			cfgDriver: types.DriverPostgres,
			expDriver: "sqlite",
			expDSN:    "/data/dbsync.db",
		},
		{
			name:      "ok/config_dsn",
			cfgDriver: types.DriverPostgres,
			cfgDSN:    "postgres://localhost/app",
			expDriver: "postgres",
			expDSN:    "postgres://localhost/app",
		},
		{
			name:      "ok/flag_dsn",
			globals:   Globals{DSN: "/tmp/app.db"},
			cfgDSN:    "/var/lib/app.db",
			expDriver: "sqlite",
			expDSN:    "/tmp/app.db",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := config.NewConfig(memoryfs.New(), "/config.json")
			if tt.cfgDriver != "" {
				cfg.Database.Driver = sql.Null[types.Driver]{V: tt.cfgDriver, Valid: true}
			}
			if tt.cfgDSN != "" {
				cfg.Database.DSN = sql.Null[string]{V: tt.cfgDSN, Valid: true}
			}
			cfg.SetDefaults()

			c := &CLI{Globals: tt.globals}
			c.ApplyConfig(cfg, "/data")

			assert.Equal(t, tt.expDriver, c.Driver)
			assert.Equal(t, tt.expDSN, c.DSN)
		})
	}
}
