package transformer

import (
	"fmt"

	"orderetl/internal/domain"
)

// Record kinds, also used as the Kind of a RowArityError and a Report.
const (
	KindOrder    = "order"
	KindLineItem = "order_item"
)

// Column layouts of the two input tables.
var (
	OrderColumns    = []string{"id", "client_id", "order_date", "status", "origin"}
	LineItemColumns = []string{"order_id", "product_id", "quantity", "price", "tax"}
)

// ParseOrderRow builds an Order from [id, client_id, order_date, status,
// origin]. It returns the first field error it hits.
func ParseOrderRow(fields []string) (domain.Order, error) {
	if len(fields) != len(OrderColumns) {
		return domain.Order{}, &RowArityError{Kind: KindOrder, Want: len(OrderColumns), Got: len(fields)}
	}

	id, err := ParseInt("id", fields[0])
	if err != nil {
		return domain.Order{}, err
	}
	clientID, err := ParseInt("client_id", fields[1])
	if err != nil {
		return domain.Order{}, err
	}
	date, err := ParseTimestamp(fields[2])
	if err != nil {
		return domain.Order{}, fmt.Errorf("field order_date: %w", err)
	}
	status, err := ParseStatus(fields[3])
	if err != nil {
		return domain.Order{}, err
	}
	origin, err := ParseOrigin(fields[4])
	if err != nil {
		return domain.Order{}, err
	}

	return domain.Order{
		ID:        id,
		ClientID:  clientID,
		OrderDate: date,
		Status:    status,
		Origin:    origin,
	}, nil
}

// ParseLineItemRow builds a LineItem from [order_id, product_id, quantity,
// price, tax]. It returns the first field error it hits.
func ParseLineItemRow(fields []string) (domain.LineItem, error) {
	if len(fields) != len(LineItemColumns) {
		return domain.LineItem{}, &RowArityError{Kind: KindLineItem, Want: len(LineItemColumns), Got: len(fields)}
	}

	orderID, err := ParseInt("order_id", fields[0])
	if err != nil {
		return domain.LineItem{}, err
	}
	productID, err := ParseInt("product_id", fields[1])
	if err != nil {
		return domain.LineItem{}, err
	}
	qty, err := ParseInt("quantity", fields[2])
	if err != nil {
		return domain.LineItem{}, err
	}
	price, err := ParseDecimal("price", fields[3])
	if err != nil {
		return domain.LineItem{}, err
	}
	tax, err := ParseDecimal("tax", fields[4])
	if err != nil {
		return domain.LineItem{}, err
	}

	return domain.LineItem{
		OrderID:   orderID,
		ProductID: productID,
		Quantity:  qty,
		Price:     price,
		Tax:       tax,
	}, nil
}
