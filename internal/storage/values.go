package storage

import "github.com/shopspring/decimal"

// SQLValue converts v into a value database/sql drivers and pgx accept.
// decimal.Decimal becomes float64; everything else is passed through.
func SQLValue(v any) any {
	switch t := v.(type) {
	case decimal.Decimal:
		return t.InexactFloat64()
	case *decimal.Decimal:
		if t == nil {
			return nil
		}
		return t.InexactFloat64()
	default:
		return v
	}
}

// SQLRows applies SQLValue to every cell, returning new rows.
func SQLRows(rows [][]any) [][]any {
	out := make([][]any, len(rows))
	for i, r := range rows {
		conv := make([]any, len(r))
		for j, v := range r {
			conv[j] = SQLValue(v)
		}
		out[i] = conv
	}
	return out
}
