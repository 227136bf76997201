// Package schema describes the output tables and converts domain results
// into rows for them.
package schema

import (
	"orderetl/internal/ddl"
	"orderetl/internal/domain"
)

// Output table names. The CSV sink writes <name>.csv.
const (
	OrderSummaryTable    = "order_summary"
	MonthlyAveragesTable = "monthly_averages"
)

// OrderSummary returns the definition of the per-order totals table.
// Columns carry no NOT NULL constraint, matching the plain table shape
// downstream readers expect.
func OrderSummary() ddl.TableDef {
	return ddl.TableDef{
		FQN: OrderSummaryTable,
		Columns: []ddl.ColumnDef{
			{Name: "order_id", Type: "bigint", Nullable: true},
			{Name: "total_amount", Type: "double", Nullable: true},
			{Name: "total_taxes", Type: "double", Nullable: true},
		},
	}
}

// MonthlyAverages returns the definition of the monthly averages table.
func MonthlyAverages() ddl.TableDef {
	return ddl.TableDef{
		FQN: MonthlyAveragesTable,
		Columns: []ddl.ColumnDef{
			{Name: "year", Type: "int", Nullable: true},
			{Name: "month", Type: "int", Nullable: true},
			{Name: "avg_amount", Type: "double", Nullable: true},
			{Name: "avg_tax", Type: "double", Nullable: true},
		},
	}
}

// OrderSummaryRows converts summaries into rows aligned with OrderSummary().
// Money values stay decimal.Decimal; sinks decide how to encode them.
func OrderSummaryRows(s []domain.OrderSummary) [][]any {
	rows := make([][]any, len(s))
	for i, r := range s {
		rows[i] = []any{r.OrderID, r.TotalAmount, r.TotalTax}
	}
	return rows
}

// MonthlyAverageRows converts monthly averages into rows aligned with
// MonthlyAverages().
func MonthlyAverageRows(m []domain.MonthlyAverage) [][]any {
	rows := make([][]any, len(m))
	for i, r := range m {
		rows[i] = []any{int64(r.Year), int64(r.Month), r.AvgAmount, r.AvgTax}
	}
	return rows
}
