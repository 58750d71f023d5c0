package app

import (
	"bytes"
	"testing"

	"github.com/mandelsoft/vfs/pkg/memoryfs"
	"github.com/mandelsoft/vfs/pkg/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	aerrors "go.hackfix.me/dbsync/app/errors"
	"go.hackfix.me/dbsync/db/migrator"
	"go.hackfix.me/dbsync/migration"
)

const (
	migUsers = `-- @UP
CREATE TABLE users (id INTEGER PRIMARY KEY, email TEXT NOT NULL);

-- @DOWN
DROP TABLE users;
`
	migUsersName = `-- @UP
ALTER TABLE users ADD COLUMN name TEXT;
-- @DOWN
ALTER TABLE users DROP COLUMN name;
`
	migPosts = `-- @UP
CREATE TABLE posts (id INTEGER PRIMARY KEY, user_id INTEGER REFERENCES users (id));
-- @DOWN
DROP TABLE posts;
`
)

func TestAppInit(t *testing.T) {
	t.Parallel()

	tapp := newTestApp(t)

	err := tapp.Run("init", "--dir=/migrations", "--table=_schema")
	require.NoError(t, err)
	assert.Equal(t, "Initialized migrations directory '/migrations' and version table '_schema'.\n",
		tapp.stdout.String())

	fi, err := tapp.fs.Stat("/migrations")
	require.NoError(t, err)
	assert.True(t, fi.IsDir())
	assert.True(t, tapp.tableExists(t, "_schema"))
	assert.True(t, tapp.tableExists(t, "_schema_history"))

	cfgJSON, err := vfs.ReadFile(tapp.fs, "/config.json")
	require.NoError(t, err)
	assert.Contains(t, string(cfgJSON), `"dir": "/migrations"`)
	assert.Contains(t, string(cfgJSON), `"version_table": "_schema"`)

	// The saved settings are used by subsequent commands.
	err = tapp.Run("status")
	require.NoError(t, err)
	assert.Equal(t, "Current version: 0\n", tapp.stdout.String())
}

func TestAppNew(t *testing.T) {
	t.Parallel()

	tapp := newTestApp(t)
	require.NoError(t, tapp.Run("init", "--dir=/migrations"))

	t.Run("ok", func(t *testing.T) {
		err := tapp.Run("new", "create_users")
		require.NoError(t, err)

		path := "/migrations/20250101000000_create_users.sql"
		assert.Equal(t, path+"\n", tapp.stdout.String())

		src, err := vfs.ReadFile(tapp.fs, path)
		require.NoError(t, err)
		changes := migration.Parse(string(src))
		assert.True(t, changes.Up.Valid)
		assert.True(t, changes.Down.Valid)
		assert.Empty(t, changes.Up.V)
		assert.Empty(t, changes.Down.V)
	})

	t.Run("err/exists", func(t *testing.T) {
		err := tapp.Run("new", "create_users")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed creating migration file")
	})

	t.Run("err/invalid_name", func(t *testing.T) {
		err := tapp.Run("new", "drop users")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid migration name 'drop users'")
	})
}

func TestAppMigrate(t *testing.T) {
	t.Parallel()

	tapp := newTestApp(t)
	require.NoError(t, tapp.Run("init", "--dir=/migrations"))
	tapp.writeMigration(t, "1_create_users.sql", migUsers)
	tapp.writeMigration(t, "2_add_user_name.sql", migUsersName)
	tapp.writeMigration(t, "3_create_posts.sql", migPosts)
	tapp.writeMigration(t, "README.md", "not a migration")

	err := tapp.Run("plan")
	require.NoError(t, err)
	out := tapp.stdout.String()
	assert.Contains(t, out, "Current version: 0")
	assert.Contains(t, out, "1_create_users.sql")
	assert.Contains(t, out, "3_create_posts.sql")
	assert.NotContains(t, out, "README.md")
	assert.False(t, tapp.tableExists(t, "users"))

	err = tapp.Run("migrate", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, tapp.stdout.String(), "Dry run: 3 steps would be applied.")
	assert.False(t, tapp.tableExists(t, "users"))

	err = tapp.Run("migrate")
	require.NoError(t, err)
	assert.Equal(t, "Migrated schema from version 0 to 3 (3 steps applied).\n", tapp.stdout.String())
	assert.True(t, tapp.tableExists(t, "users"))
	assert.True(t, tapp.tableExists(t, "posts"))

	err = tapp.Run("migrate")
	require.NoError(t, err)
	assert.Equal(t, "Schema is up to date at version 3.\n", tapp.stdout.String())

	err = tapp.Run("status")
	require.NoError(t, err)
	out = tapp.stdout.String()
	assert.Contains(t, out, "2_add_user_name.sql")
	assert.Contains(t, out, "applied")
	assert.NotContains(t, out, "pending")
	assert.Contains(t, out, "Current version: 3")

	err = tapp.Run("migrate", "--to=1")
	require.NoError(t, err)
	assert.Equal(t, "Migrated schema from version 3 to 1 (2 steps applied).\n", tapp.stdout.String())
	assert.True(t, tapp.tableExists(t, "users"))
	assert.False(t, tapp.tableExists(t, "posts"))

	err = tapp.Run("status")
	require.NoError(t, err)
	out = tapp.stdout.String()
	assert.Contains(t, out, "pending")
	assert.Contains(t, out, "Current version: 1")

	err = tapp.Run("rollback")
	require.NoError(t, err)
	assert.Equal(t, "Migrated schema from version 1 to 0 (1 steps applied).\n", tapp.stdout.String())
	assert.False(t, tapp.tableExists(t, "users"))

	err = tapp.Run("migrate", "--to=latest")
	require.NoError(t, err)
	err = tapp.Run("rollback", "--steps=2")
	require.NoError(t, err)
	assert.Equal(t, "Migrated schema from version 3 to 1 (2 steps applied).\n", tapp.stdout.String())
}

func TestAppMigrateError(t *testing.T) {
	t.Parallel()

	t.Run("err/step_failure", func(t *testing.T) {
		t.Parallel()

		tapp := newTestApp(t)
		require.NoError(t, tapp.Run("init", "--dir=/migrations"))
		tapp.writeMigration(t, "1_create_users.sql", migUsers)
		tapp.writeMigration(t, "2_broken.sql", "-- @UP\nCREATE TABLE broken (;\n-- @DOWN\nDROP TABLE broken;")
		tapp.writeMigration(t, "3_create_posts.sql", migPosts)

		err := tapp.Run("migrate")
		require.Error(t, err)
		assert.Equal(t, "migration failed", err.Error())

		var serr *aerrors.StructuredError
		require.ErrorAs(t, err, &serr)
		assert.Equal(t, uint64(2), serr.Metadata()["version"])
		assert.Equal(t, migration.Up, serr.Metadata()["direction"])
		assert.Contains(t, serr.Cause().Error(), "syntax error")

		assert.True(t, tapp.tableExists(t, "users"))
		assert.False(t, tapp.tableExists(t, "posts"))

		require.NoError(t, tapp.Run("status"))
		assert.Contains(t, tapp.stdout.String(), "Current version: 1")
	})

	t.Run("err/missing_change", func(t *testing.T) {
		t.Parallel()

		tapp := newTestApp(t)
		require.NoError(t, tapp.Run("init", "--dir=/migrations"))
		tapp.writeMigration(t, "1_create_users.sql", migUsers)
		tapp.writeMigration(t, "2_irreversible.sql", "-- @UP\nDELETE FROM users;")

		require.NoError(t, tapp.Run("migrate"))

		err := tapp.Run("migrate", "--to=0")
		require.Error(t, err)
		assert.Equal(t, "migration 2 has no down change", err.Error())
		var missingErr migrator.MissingChangeError
		assert.ErrorAs(t, err, &missingErr)

		// Nothing was rolled back.
		assert.True(t, tapp.tableExists(t, "users"))
	})

	t.Run("err/duplicate_version", func(t *testing.T) {
		t.Parallel()

		tapp := newTestApp(t)
		require.NoError(t, tapp.Run("init", "--dir=/migrations"))
		tapp.writeMigration(t, "1_create_users.sql", migUsers)
		tapp.writeMigration(t, "001_create_users.sql", migUsers)

		err := tapp.Run("migrate")
		require.Error(t, err)
		var dupErr migration.DuplicateVersionError
		require.ErrorAs(t, err, &dupErr)
		assert.Equal(t, uint64(1), dupErr.Version)
		assert.False(t, tapp.tableExists(t, "users"))
	})

	t.Run("err/version_zero", func(t *testing.T) {
		t.Parallel()

		tapp := newTestApp(t)
		require.NoError(t, tapp.Run("init", "--dir=/migrations"))
		tapp.writeMigration(t, "0_base.sql", "-- @UP\nCREATE TABLE base (id INTEGER);")
		tapp.writeMigration(t, "1_create_users.sql", migUsers)

		err := tapp.Run("migrate")
		require.Error(t, err)
		var zeroErr migration.ZeroVersionError
		require.ErrorAs(t, err, &zeroErr)
		assert.Equal(t, "0_base.sql", zeroErr.Name)
		assert.False(t, tapp.tableExists(t, "base"))
		assert.False(t, tapp.tableExists(t, "users"))
	})

	t.Run("err/no_migrations", func(t *testing.T) {
		t.Parallel()

		tapp := newTestApp(t)
		require.NoError(t, tapp.Run("init", "--dir=/migrations"))

		err := tapp.Run("migrate")
		require.Error(t, err)
		var cfgErr migration.ConfigurationError
		require.ErrorAs(t, err, &cfgErr)

		require.NoError(t, tapp.Run("migrate", "--to=0"))
		assert.Equal(t, "Schema is up to date at version 0.\n", tapp.stdout.String())
	})

	t.Run("err/not_initialized", func(t *testing.T) {
		t.Parallel()

		tapp := newTestApp(t)
		require.NoError(t, tapp.fs.MkdirAll("/migrations", 0o755))
		tapp.writeMigration(t, "1_create_users.sql", migUsers)

		err := tapp.Run("status", "--dir=/migrations")
		require.Error(t, err)
		assert.Equal(t, "failed reading schema version", err.Error())
		var serr *aerrors.StructuredError
		require.ErrorAs(t, err, &serr)
		assert.Equal(t, "Did you forget to run 'dbsync init'?", serr.Metadata()["hint"])
	})

	t.Run("err/invalid_target", func(t *testing.T) {
		t.Parallel()

		tapp := newTestApp(t)
		err := tapp.Run("migrate", "--to=first")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid version 'first'")
	})
}

func TestAppNoDSN(t *testing.T) {
	t.Parallel()

	fs := memoryfs.New()
	require.NoError(t, fs.MkdirAll("/migrations", 0o755))

	app, err := New("dbsync", "/config.json", "/data",
		WithContext(t.Context()),
		WithFDs(&bytes.Buffer{}, newSafeBuffer(), newSafeBuffer()),
		WithFS(fs),
		WithLogger(false, false),
	)
	require.NoError(t, err)

	err = app.Run([]string{"status", "--dir=/migrations", "--driver=postgres"})
	require.Error(t, err)
	assert.Equal(t, "no database DSN was configured", err.Error())
	var serr *aerrors.StructuredError
	require.ErrorAs(t, err, &serr)
	assert.Contains(t, serr.Metadata()["hint"], "--dsn")
}
