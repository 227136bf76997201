package sqlite

import (
	"strings"

	"orderetl/internal/ddl"
)

// MapType maps a logical type into a SQLite column type. SQLite uses type
// affinity, so the mapping prefers canonical affinities:
//   - integer-ish types -> INTEGER
//   - boolean           -> INTEGER (0/1)
//   - float/double      -> REAL
//   - numeric/decimal   -> NUMERIC
//   - others            -> TEXT
func MapType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "int", "integer", "bigint":
		return "INTEGER"
	case "bool", "boolean":
		return "INTEGER"
	case "float", "double", "real":
		return "REAL"
	case "numeric", "decimal":
		return "NUMERIC"
	case "blob", "bytes":
		return "BLOB"
	default:
		return "TEXT"
	}
}

func quoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

// Dialect renders CREATE TABLE IF NOT EXISTS with double-quoted identifiers.
var Dialect = ddl.Dialect{
	Name:       "sqlite",
	QuoteIdent: quoteIdent,
	MapType:    MapType,
}
