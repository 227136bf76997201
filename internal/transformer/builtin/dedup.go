package builtin

import (
	"sort"

	"orderetl/internal/domain"
)

// DuplicateOrderIDs returns, in ascending order, every order id that occurs
// more than once. Join and AggregateByMonth keep the first such order and
// ignore the rest; callers use this to report the collision.
func DuplicateOrderIDs(orders []domain.Order) []int64 {
	seen := make(map[int64]int, len(orders))
	for _, o := range orders {
		seen[o.ID]++
	}

	var dups []int64
	for id, n := range seen {
		if n > 1 {
			dups = append(dups, id)
		}
	}
	sort.Slice(dups, func(i, j int) bool { return dups[i] < dups[j] })
	return dups
}
