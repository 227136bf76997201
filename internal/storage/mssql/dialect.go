package mssql

import (
	"strings"

	"orderetl/internal/ddl"
)

// MapType maps a logical type string into a SQL Server column type.
// Unknown or empty kinds fall back to NVARCHAR(MAX).
func MapType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "int", "integer":
		return "INT"
	case "bigint":
		return "BIGINT"
	case "float", "double", "real":
		return "FLOAT"
	case "numeric", "decimal":
		return "DECIMAL(38, 10)"
	case "bool", "boolean":
		return "BIT"
	case "timestamp", "datetime", "timestamptz":
		return "DATETIME2"
	default:
		return "NVARCHAR(MAX)"
	}
}

// msIdent quotes a single identifier segment with brackets, escaping any
// closing brackets.
//
//	name      -> [name]
//	weird]id  -> [weird]]id]
func msIdent(id string) string { return `[` + strings.ReplaceAll(id, `]`, `]]`) + `]` }

// guard wraps CREATE TABLE in an IF OBJECT_ID(...) IS NULL check since T-SQL
// has no CREATE TABLE IF NOT EXISTS.
func guard(fqn, create string) string {
	return "IF OBJECT_ID(N'" + strings.ReplaceAll(fqn, "'", "''") + "', N'U') IS NULL\nBEGIN\n  " + create + "\nEND;"
}

// Dialect renders guarded CREATE TABLE scripts with bracket quoting.
var Dialect = ddl.Dialect{
	Name:       "mssql",
	QuoteIdent: msIdent,
	MapType:    MapType,
	Guard:      guard,
}
