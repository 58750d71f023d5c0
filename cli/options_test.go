package cli

import (
	"database/sql"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionMapper(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		args   []string
		exp    sql.Null[uint64]
		expErr string
	}{
		{name: "ok/default", args: []string{}, exp: sql.Null[uint64]{}},
		{name: "ok/latest", args: []string{"--to=LATEST"}, exp: sql.Null[uint64]{}},
		{name: "ok/zero", args: []string{"--to=0"}, exp: sql.Null[uint64]{V: 0, Valid: true}},
		{name: "ok/timestamp", args: []string{"--to", "20250101120000"}, exp: sql.Null[uint64]{V: 20250101120000, Valid: true}},
		{name: "err/negative", args: []string{"--to=-1"}, expErr: "invalid version '-1'"},
		{name: "err/word", args: []string{"--to=first"}, expErr: "invalid version 'first'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var cmd struct {
				To sql.Null[uint64] `kong:"type='version',default='latest'"`
			}
			parser, err := kong.New(&cmd, kong.NamedMapper("version", VersionMapper{}))
			require.NoError(t, err)

			_, err = parser.Parse(tt.args)
			if tt.expErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.exp, cmd.To)
		})
	}
}

func TestCountLines(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, countLines(""))
	assert.Equal(t, 1, countLines("DROP TABLE users;"))
	assert.Equal(t, 2, countLines("CREATE TABLE a (id INT);\n\n  \nCREATE TABLE b (id INT);\n"))
}
