package postgres

import (
	"strings"

	"orderetl/internal/ddl"
)

// MapType normalizes a loosely-specified logical type into a Postgres SQL type.
//
//	"int"/"integer"           -> INTEGER
//	"bigint"                  -> BIGINT
//	"float"/"double"/"real"   -> DOUBLE PRECISION
//	"numeric"/"decimal"       -> NUMERIC
//	"bool"/"boolean"          -> BOOLEAN
//	"timestamp"/"timestamptz" -> TIMESTAMPTZ
//	everything else           -> TEXT
func MapType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "int", "integer":
		return "INTEGER"
	case "bigint":
		return "BIGINT"
	case "float", "double", "real":
		return "DOUBLE PRECISION"
	case "numeric", "decimal":
		return "NUMERIC"
	case "bool", "boolean":
		return "BOOLEAN"
	case "timestamp", "timestamptz":
		return "TIMESTAMPTZ"
	default:
		return "TEXT"
	}
}

// pgIdent safely quotes a single identifier segment for Postgres.
func pgIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

// Dialect renders CREATE TABLE IF NOT EXISTS with double-quoted identifiers.
var Dialect = ddl.Dialect{
	Name:       "postgres",
	QuoteIdent: pgIdent,
	MapType:    MapType,
}
