package migration_test

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"

	"go.hackfix.me/dbsync/migration"
)

func some(s string) sql.Null[string] {
	return sql.Null[string]{V: s, Valid: true}
}

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		exp  migration.Changes
	}{
		{
			name: "ok/up_and_down",
			src: `
				-- @UP
				CREATE TABLE users
				-- @DOWN
				DROP TABLE users
			`,
			exp: migration.Changes{Up: some("CREATE TABLE users"), Down: some("DROP TABLE users")},
		},
		{
			name: "ok/up_only",
			src: `
				-- @UP
				CREATE TABLE users
			`,
			exp: migration.Changes{Up: some("CREATE TABLE users")},
		},
		{
			name: "ok/down_only",
			src: `
				-- @DOWN
				DROP TABLE users
			`,
			exp: migration.Changes{Down: some("DROP TABLE users")},
		},
		{
			name: "ok/empty",
			src:  "",
			exp:  migration.Changes{},
		},
		{
			name: "ok/no_markers",
			src:  "CREATE TABLE users;\nDROP TABLE users;\n",
			exp:  migration.Changes{},
		},
		{
			name: "ok/marker_like_literal",
			src: `
				-- @UP
				INSERT INTO users VALUES (NULL, "-- @DOWN")
				-- @DOWN
				DELETE FROM users
			`,
			exp: migration.Changes{
				Up:   some(`INSERT INTO users VALUES (NULL, "-- @DOWN")`),
				Down: some("DELETE FROM users"),
			},
		},
		{
			name: "ok/marker_with_trailing_text",
			src:  "-- @UP\nCREATE TABLE a;\n-- @DOWN please\nDROP TABLE a;",
			exp:  migration.Changes{Up: some("CREATE TABLE a;\n-- @DOWN please\nDROP TABLE a;")},
		},
		{
			name: "ok/case_insensitive",
			src:  "--@up\nCREATE TABLE a;\n  --   @Down  \nDROP TABLE a;",
			exp:  migration.Changes{Up: some("CREATE TABLE a;"), Down: some("DROP TABLE a;")},
		},
		{
			name: "ok/crlf",
			src:  "-- @UP\r\nCREATE TABLE a;\r\n-- @DOWN\r\nDROP TABLE a;\r\n",
			exp:  migration.Changes{Up: some("CREATE TABLE a;"), Down: some("DROP TABLE a;")},
		},
		{
			name: "ok/multiline_body",
			src:  "-- @UP\nCREATE TABLE a (\n  id INTEGER\n);\n\nCREATE INDEX a_id ON a (id);\n-- @DOWN\nDROP TABLE a;",
			exp: migration.Changes{
				Up:   some("CREATE TABLE a (\n  id INTEGER\n);\n\nCREATE INDEX a_id ON a (id);"),
				Down: some("DROP TABLE a;"),
			},
		},
		{
			name: "ok/last_marker_wins",
			src:  "-- @UP\nignored;\n-- @UP\nCREATE TABLE a;\n-- @DOWN\nignored too;\n-- @DOWN\nDROP TABLE a;",
			exp: migration.Changes{
				Up:   some("CREATE TABLE a;\n-- @DOWN\nignored too;"),
				Down: some("DROP TABLE a;"),
			},
		},
		{
			name: "ok/empty_bodies",
			src:  "-- @UP\n\n-- @DOWN\n   \n",
			exp:  migration.Changes{Up: some(""), Down: some("")},
		},
		{
			name: "ok/down_before_up",
			src:  "-- @DOWN\nDROP TABLE a;\n-- @UP\nCREATE TABLE a;",
			exp: migration.Changes{
				Up:   some(""),
				Down: some("DROP TABLE a;\n-- @UP\nCREATE TABLE a;"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.exp, migration.Parse(tt.src))
		})
	}
}
