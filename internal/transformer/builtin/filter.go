// Package builtin contains the record-level transforms applied after
// parsing: order filtering, the order/line-item join, and the per-order and
// per-month aggregations.
//
// Every function here is a pure function of its arguments. Grouping state is
// local to each call.
package builtin

import "orderetl/internal/domain"

// Filter selects orders by status and/or origin. A nil criterion matches
// every order. A non-nil criterion must equal the canonical name exactly;
// an unrecognized name simply matches nothing.
type Filter struct {
	Status *string
	Origin *string
}

// NewFilter builds a Filter from optional criteria, treating "" as absent.
func NewFilter(status, origin string) Filter {
	var f Filter
	if status != "" {
		f.Status = &status
	}
	if origin != "" {
		f.Origin = &origin
	}
	return f
}

// IsZero reports whether the filter accepts every order.
func (f Filter) IsZero() bool { return f.Status == nil && f.Origin == nil }

// Matches reports whether o satisfies both criteria.
func Matches(o domain.Order, f Filter) bool {
	if f.Status != nil && *f.Status != string(o.Status) {
		return false
	}
	if f.Origin != nil && *f.Origin != string(o.Origin) {
		return false
	}
	return true
}

// FilterOrders returns the orders accepted by f, in input order.
func FilterOrders(orders []domain.Order, f Filter) []domain.Order {
	out := make([]domain.Order, 0, len(orders))
	for _, o := range orders {
		if Matches(o, f) {
			out = append(out, o)
		}
	}
	return out
}
