package domain

import "github.com/shopspring/decimal"

// OrderSummary is the per-order total over all of its line-items.
type OrderSummary struct {
	OrderID     int64
	TotalAmount decimal.Decimal
	TotalTax    decimal.Decimal
}

// YearMonth identifies a calendar month bucket.
type YearMonth struct {
	Year  int
	Month int
}

// Less orders buckets by year, then month.
func (ym YearMonth) Less(other YearMonth) bool {
	if ym.Year != other.Year {
		return ym.Year < other.Year
	}
	return ym.Month < other.Month
}

// MonthlyAverage is the mean line-item amount and tax for one (year, month)
// bucket. The mean is taken over line-items, not orders.
type MonthlyAverage struct {
	Year      int
	Month     int
	AvgAmount decimal.Decimal
	AvgTax    decimal.Decimal
}
