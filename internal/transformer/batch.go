package transformer

import (
	"fmt"

	"orderetl/internal/domain"
)

// RowError ties a row failure to its 1-based physical line in the table
// (the header is line 1, so the first data row is line 2).
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e RowError) Unwrap() error { return e.Err }

// Batch is the outcome of parsing every data row of one table: the rows that
// parsed, in input order, and one RowError per row that did not.
type Batch[T any] struct {
	Kind    string
	Records []T
	Errors  []RowError
}

// Succeeded is the number of rows that produced a record.
func (b Batch[T]) Succeeded() int { return len(b.Records) }

// Failed is the number of rows that were rejected.
func (b Batch[T]) Failed() int { return len(b.Errors) }

// Total is the number of data rows seen (header excluded).
func (b Batch[T]) Total() int { return len(b.Records) + len(b.Errors) }

// Report summarizes the batch for diagnostics.
func (b Batch[T]) Report() Report {
	msgs := make([]string, 0, len(b.Errors))
	for _, e := range b.Errors {
		msgs = append(msgs, e.Error())
	}
	return Report{
		Kind:      b.Kind,
		Succeeded: len(b.Records),
		Failed:    len(b.Errors),
		Errors:    msgs,
	}
}

// Report is the caller-facing summary of a batch parse. The error messages
// are informational; nothing downstream consumes them.
type Report struct {
	Kind      string   `json:"kind"`
	Succeeded int      `json:"succeeded"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors,omitempty"`
}

// ParseBatch applies parseRow to every row of table after the header. An
// empty table, or one holding only a header, yields an empty batch. A failing
// row never stops the batch.
func ParseBatch[T any](kind string, table [][]string, parseRow func([]string) (T, error)) Batch[T] {
	b := Batch[T]{Kind: kind}
	if len(table) <= 1 {
		return b
	}

	rows := table[1:]
	b.Records = make([]T, 0, len(rows))
	for i, row := range rows {
		rec, err := parseRow(row)
		if err != nil {
			b.Errors = append(b.Errors, RowError{Line: i + 2, Err: err})
			continue
		}
		b.Records = append(b.Records, rec)
	}
	return b
}

// ParseOrders parses an order table.
func ParseOrders(table [][]string) Batch[domain.Order] {
	return ParseBatch(KindOrder, table, ParseOrderRow)
}

// ParseLineItems parses an order_item table.
func ParseLineItems(table [][]string) Batch[domain.LineItem] {
	return ParseBatch(KindLineItem, table, ParseLineItemRow)
}
