package builtin

import "orderetl/internal/domain"

// indexOrders maps order id to order. When ids repeat, the first order in
// input order is kept and later duplicates are ignored.
func indexOrders(orders []domain.Order) map[int64]domain.Order {
	idx := make(map[int64]domain.Order, len(orders))
	for _, o := range orders {
		if _, dup := idx[o.ID]; dup {
			continue
		}
		idx[o.ID] = o
	}
	return idx
}

// Join returns the line-items whose parent order exists and is accepted by
// f. Items without a parent are dropped silently. Output keeps the input
// item order; order attributes are not merged into the items.
func Join(orders []domain.Order, items []domain.LineItem, f Filter) []domain.LineItem {
	idx := indexOrders(orders)

	out := make([]domain.LineItem, 0, len(items))
	for _, it := range items {
		parent, ok := idx[it.OrderID]
		if !ok {
			continue
		}
		if !Matches(parent, f) {
			continue
		}
		out = append(out, it)
	}
	return out
}
