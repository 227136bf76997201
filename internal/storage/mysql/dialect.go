package mysql

import (
	"strings"

	"orderetl/internal/ddl"
)

// MapType maps a logical type into a MySQL column type.
func MapType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "int", "integer":
		return "INT"
	case "bigint":
		return "BIGINT"
	case "float", "double", "real":
		return "DOUBLE"
	case "numeric", "decimal":
		return "DECIMAL(38, 10)"
	case "bool", "boolean":
		return "TINYINT(1)"
	case "timestamp", "datetime":
		return "DATETIME"
	default:
		return "TEXT"
	}
}

func myIdent(id string) string { return "`" + strings.ReplaceAll(id, "`", "``") + "`" }

// Dialect renders CREATE TABLE IF NOT EXISTS with backtick quoting.
var Dialect = ddl.Dialect{
	Name:       "mysql",
	QuoteIdent: myIdent,
	MapType:    MapType,
}
