// Package domain holds the typed records produced by the transform stage:
// orders, their line-items, and the summaries derived from them.
//
// All types are plain values. Once a row has been parsed into an Order or a
// LineItem it is never mutated; aggregation produces new values instead.
package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of an order.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusComplete  Status = "Complete"
	StatusCancelled Status = "Cancelled"
)

// Statuses lists every recognized status in declaration order.
var Statuses = []Status{StatusPending, StatusComplete, StatusCancelled}

// Origin is the channel an order came in through.
type Origin string

const (
	OriginP Origin = "P"
	OriginO Origin = "O"
)

// Origins lists every recognized origin in declaration order.
var Origins = []Origin{OriginP, OriginO}

// Timestamp is a decomposed calendar/clock value. Components are not
// range-checked: a month of 13 is kept as-is.
type Timestamp struct {
	Year   int
	Month  int
	Day    int
	Hour   int
	Minute int
	Second int
}

// String renders the timestamp in the same YYYY-MM-DDThh:mm:ss shape it is
// parsed from.
func (t Timestamp) String() string {
	return fmt.Sprintf("%04d-%02d-%02dT%02d:%02d:%02d", t.Year, t.Month, t.Day, t.Hour, t.Minute, t.Second)
}

// Order is a customer purchase header.
type Order struct {
	ID        int64
	ClientID  int64
	OrderDate Timestamp
	Status    Status
	Origin    Origin
}

// LineItem is one product line of an order. Tax is a fractional rate
// (0.07 means 7%).
type LineItem struct {
	OrderID   int64
	ProductID int64
	Quantity  int64
	Price     decimal.Decimal
	Tax       decimal.Decimal
}

// Amount returns quantity * price.
func (li LineItem) Amount() decimal.Decimal {
	return decimal.NewFromInt(li.Quantity).Mul(li.Price)
}

// TaxAmount returns Amount() * tax.
func (li LineItem) TaxAmount() decimal.Decimal {
	return li.Amount().Mul(li.Tax)
}
