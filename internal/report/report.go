// Package report renders pipeline results as terminal tables.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"orderetl/internal/domain"
	"orderetl/internal/etl"
	"orderetl/internal/transformer"
)

// MaxErrors caps the row errors listed per input table.
const MaxErrors = 10

func newWriter(w io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(title)
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Header = text.FormatDefault
	t.Style().Format.Footer = text.FormatDefault
	return t
}

// Summaries renders per-order totals. Amounts use two decimal places.
func Summaries(w io.Writer, s []domain.OrderSummary) {
	t := newWriter(w, "Order summary")
	t.AppendHeader(table.Row{"order_id", "total_amount", "total_taxes"})
	for _, r := range s {
		t.AppendRow(table.Row{r.OrderID, r.TotalAmount.StringFixed(2), r.TotalTax.StringFixed(2)})
	}
	t.AppendFooter(table.Row{"", text.Bold.Sprintf("%d orders", len(s)), ""})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
	})
	t.Render()
}

// Monthly renders monthly averages in the order given.
func Monthly(w io.Writer, m []domain.MonthlyAverage) {
	t := newWriter(w, "Monthly averages")
	t.AppendHeader(table.Row{"year", "month", "avg_amount", "avg_tax"})
	for _, r := range m {
		t.AppendRow(table.Row{r.Year, fmt.Sprintf("%02d", r.Month), r.AvgAmount.StringFixed(2), r.AvgTax.StringFixed(2)})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	t.Render()
}

// Run renders the run summary: parse counts per input table, join and
// aggregate sizes, one line per written table, and the first MaxErrors row
// errors of each input.
func Run(w io.Writer, rep *etl.RunReport) {
	if rep == nil {
		return
	}

	t := newWriter(w, "Run "+rep.RunID)
	t.AppendHeader(table.Row{"step", "item", "ok", "failed", "detail"})
	for _, r := range []transformer.Report{rep.Orders, rep.LineItems} {
		t.AppendRow(table.Row{"parse", r.Kind, r.Succeeded, r.Failed, ""})
	}
	t.AppendRow(table.Row{"join", "line-items", rep.Joined, "", ""})
	t.AppendRow(table.Row{"aggregate", "orders", len(rep.Summaries), "", ""})
	if rep.Monthly != nil {
		t.AppendRow(table.Row{"aggregate", "months", len(rep.Monthly), "", ""})
	}
	for _, wr := range rep.Writes {
		failed := wr.Rows - int(wr.Written)
		detail := fmt.Sprintf("%d batches in %s", wr.Batches, wr.Elapsed.Round(time.Millisecond))
		if failed > 0 {
			detail = text.FgRed.Sprint(detail)
		}
		t.AppendRow(table.Row{"write", wr.Table, wr.Written, failed, detail})
	}
	t.AppendFooter(table.Row{"", "", "", "elapsed", rep.Elapsed.Round(time.Millisecond).String()})
	t.Render()

	for _, r := range []transformer.Report{rep.Orders, rep.LineItems} {
		if len(r.Errors) == 0 {
			continue
		}
		fmt.Fprintf(w, "%s: %d rejected rows\n", r.Kind, r.Failed)
		for i, msg := range r.Errors {
			if i == MaxErrors {
				fmt.Fprintf(w, "  ... %d more\n", len(r.Errors)-MaxErrors)
				break
			}
			fmt.Fprintf(w, "  %s\n", strings.TrimSpace(msg))
		}
	}
}
