// Package ddl defines a small, backend-agnostic model for SQL DDL and renders
// CREATE TABLE statements from it for a given Dialect.
package ddl

import (
	"fmt"
	"strings"
)

// Dialect captures the differences between SQL engines that matter for
// creating the output tables.
type Dialect struct {
	// Name is used in error messages, e.g. "sqlite".
	Name string

	// QuoteIdent quotes one identifier segment. Nil leaves names as-is.
	QuoteIdent func(string) string

	// MapType turns a logical column type into a dialect type.
	MapType func(string) string

	// Guard, when set, wraps a plain CREATE TABLE for engines without
	// CREATE TABLE IF NOT EXISTS. It receives the quoted FQN.
	Guard func(fqn, create string) string
}

// Generic is an unquoted dialect that keeps explicit SQLTypes and maps
// logical types to upper case.
var Generic = Dialect{
	Name:    "ddl",
	MapType: strings.ToUpper,
}

func (d Dialect) quote(id string) string {
	if d.QuoteIdent == nil {
		return id
	}
	return d.QuoteIdent(id)
}

// QuoteFQN quotes a possibly dotted table name segment by segment. Empty
// segments are dropped.
func (d Dialect) QuoteFQN(fqn string) string {
	parts := strings.Split(fqn, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, d.quote(p))
	}
	return strings.Join(out, ".")
}

// BuildCreateTableSQL renders an idempotent CREATE TABLE statement for t.
//
// Rules:
//   - t.FQN must be non-empty and t must have at least one column.
//   - Each column needs a Name and either a SQLType or a Type the dialect
//     can map.
//   - A column renders as <Name> <SQLType> [NOT NULL] [DEFAULT <Default>];
//     primary-key columns are always NOT NULL.
//   - Primary-key columns are collected into a trailing PRIMARY KEY clause.
//   - Without a Guard the statement uses CREATE TABLE IF NOT EXISTS.
func BuildCreateTableSQL(d Dialect, t TableDef) (string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", fmt.Errorf("%s ddl: table FQN must not be empty", d.Name)
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("%s ddl: at least one column is required", d.Name)
	}

	t = t.Resolve(d.MapType)
	cols := make([]string, 0, len(t.Columns)+1)
	pks := make([]string, 0, len(t.Columns))

	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", fmt.Errorf("%s ddl: column with empty name in table %s", d.Name, fqn)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			return "", fmt.Errorf("%s ddl: column %s missing SQLType", d.Name, name)
		}

		var sb strings.Builder
		sb.WriteString(d.quote(name))
		sb.WriteByte(' ')
		sb.WriteString(typ)

		if !c.Nullable || c.PrimaryKey {
			sb.WriteString(" NOT NULL")
		}
		if def := strings.TrimSpace(c.Default); def != "" {
			sb.WriteString(" DEFAULT ")
			sb.WriteString(def)
		}
		cols = append(cols, sb.String())

		if c.PrimaryKey {
			pks = append(pks, d.quote(name))
		}
	}

	if len(pks) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}

	quoted := d.QuoteFQN(fqn)
	if d.Guard != nil {
		create := fmt.Sprintf("CREATE TABLE %s (\n    %s\n  );", quoted, strings.Join(cols, ",\n    "))
		return d.Guard(quoted, create), nil
	}
	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (\n  %s\n);",
		quoted,
		strings.Join(cols, ",\n  "),
	), nil
}
