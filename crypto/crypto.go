package crypto

import (
	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"
)

// Checksum returns a short, printable BLAKE2b-256 digest of data. It is used to
// identify the SQL text of applied migration steps.
func Checksum(data []byte) string {
	sum := blake2b.Sum256(data)
	return base58.Encode(sum[:])
}
