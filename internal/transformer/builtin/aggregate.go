package builtin

import (
	"sort"

	"github.com/shopspring/decimal"

	"orderetl/internal/domain"
)

// AggregateByOrder sums quantity*price and quantity*price*tax per order id.
//
// The order of the result is not part of the contract (it currently follows
// the first appearance of each id); use SortSummaries when it matters.
func AggregateByOrder(items []domain.LineItem) []domain.OrderSummary {
	pos := make(map[int64]int)
	var out []domain.OrderSummary

	for _, it := range items {
		amount := it.Amount()
		tax := amount.Mul(it.Tax)

		i, ok := pos[it.OrderID]
		if !ok {
			i = len(out)
			pos[it.OrderID] = i
			out = append(out, domain.OrderSummary{
				OrderID:     it.OrderID,
				TotalAmount: decimal.Zero,
				TotalTax:    decimal.Zero,
			})
		}
		out[i].TotalAmount = out[i].TotalAmount.Add(amount)
		out[i].TotalTax = out[i].TotalTax.Add(tax)
	}
	return out
}

// SortSummaries orders summaries by ascending order id, in place.
func SortSummaries(s []domain.OrderSummary) {
	sort.Slice(s, func(i, j int) bool { return s[i].OrderID < s[j].OrderID })
}

type monthAcc struct {
	count     int64
	sumAmount decimal.Decimal
	sumTax    decimal.Decimal
}

// AggregateByMonth averages line-item amount and tax per calendar month of
// the parent order's date. Items are matched to orders by id only; no
// Filter is applied. Items with no parent are dropped, and with duplicate
// order ids the first order wins.
//
// The result is sorted by (year, month) ascending.
func AggregateByMonth(orders []domain.Order, items []domain.LineItem) []domain.MonthlyAverage {
	idx := indexOrders(orders)
	groups := make(map[domain.YearMonth]*monthAcc)

	for _, it := range items {
		parent, ok := idx[it.OrderID]
		if !ok {
			continue
		}
		key := domain.YearMonth{Year: parent.OrderDate.Year, Month: parent.OrderDate.Month}

		acc, ok := groups[key]
		if !ok {
			acc = &monthAcc{sumAmount: decimal.Zero, sumTax: decimal.Zero}
			groups[key] = acc
		}
		amount := it.Amount()
		acc.count++
		acc.sumAmount = acc.sumAmount.Add(amount)
		acc.sumTax = acc.sumTax.Add(amount.Mul(it.Tax))
	}

	keys := make([]domain.YearMonth, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	out := make([]domain.MonthlyAverage, 0, len(keys))
	for _, k := range keys {
		acc := groups[k]
		n := decimal.NewFromInt(acc.count)
		out = append(out, domain.MonthlyAverage{
			Year:      k.Year,
			Month:     k.Month,
			AvgAmount: acc.sumAmount.Div(n),
			AvgTax:    acc.sumTax.Div(n),
		})
	}
	return out
}
