package cli

import (
	"database/sql"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
)

// VersionMapper parses a schema version number, or the special value "latest",
// which resolves to the highest available migration version.
type VersionMapper struct{}

var _ kong.Mapper = (*VersionMapper)(nil)

// Decode implements the kong.Mapper interface.
func (VersionMapper) Decode(kctx *kong.DecodeContext, target reflect.Value) error {
	var value string
	err := kctx.Scan.PopValueInto("version", &value)
	if err != nil {
		return err
	}

	var version sql.Null[uint64]
	if !strings.EqualFold(value, "latest") {
		v, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid version '%s': must be a non-negative integer or 'latest'", value)
		}
		version = sql.Null[uint64]{V: v, Valid: true}
	}

	target.Set(reflect.ValueOf(version))

	return nil
}
