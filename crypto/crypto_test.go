package crypto_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"go.hackfix.me/dbsync/crypto"
)

func TestChecksum(t *testing.T) {
	t.Parallel()

	a := crypto.Checksum([]byte("CREATE TABLE users (id INTEGER);"))
	b := crypto.Checksum([]byte("CREATE TABLE users (id INTEGER);"))
	c := crypto.Checksum([]byte("DROP TABLE users;"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEmpty(t, crypto.Checksum(nil))
}
