package ddl

// ColumnDef describes a single column in a table definition.
//
// Fields:
//   - Name: logical column name (unquoted; quoting happens at render time)
//   - Type: portable logical type ("bigint", "int", "double", "text")
//   - SQLType: dialect type; when empty it is derived from Type by the dialect
//   - Nullable: whether NULL is allowed
//   - PrimaryKey: whether the column is part of the primary key
//   - Default: raw default expression (e.g., 'anon', CURRENT_TIMESTAMP)
type ColumnDef struct {
	Name       string
	Type       string
	SQLType    string
	Nullable   bool
	PrimaryKey bool
	Default    string
}

// TableDef holds the table name (FQN) and an ordered list of columns. The
// FQN may be dotted ("schema.table"); renderers quote each segment.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}

// ColumnNames returns the column names in declaration order.
func (t TableDef) ColumnNames() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// Resolve returns a copy of t in which every column without an explicit
// SQLType gets mapType(Type).
func (t TableDef) Resolve(mapType func(string) string) TableDef {
	cols := make([]ColumnDef, len(t.Columns))
	copy(cols, t.Columns)
	for i := range cols {
		if cols[i].SQLType == "" && mapType != nil {
			cols[i].SQLType = mapType(cols[i].Type)
		}
	}
	return TableDef{FQN: t.FQN, Columns: cols}
}
