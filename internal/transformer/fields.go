// Package transformer turns raw CSV rows into typed domain records.
//
// Parsing happens at three levels:
//
//   - field parsers convert a single string into a typed value;
//   - row parsers assemble an Order or LineItem from one row, stopping at the
//     first bad field;
//   - the batch parser runs a row parser over a whole table and partitions
//     the result into records and per-row errors.
//
// Inputs are matched byte-for-byte: nothing is trimmed, case-folded or
// localized.
package transformer

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"orderetl/internal/domain"
)

// ParseInt parses a base-10 integer field.
func ParseInt(field, s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		reason := "not an integer"
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			reason = "integer out of range"
		}
		return 0, &FieldParseError{Field: field, Value: s, Reason: reason}
	}
	return n, nil
}

// ParseDecimal parses a decimal field such as a price or a tax rate.
func ParseDecimal(field, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, &FieldParseError{Field: field, Value: s, Reason: "not a decimal number"}
	}
	return d, nil
}

// ParseTimestamp parses YYYY-MM-DDThh:mm:ss into its components. Component
// ranges are not checked.
func ParseTimestamp(s string) (domain.Timestamp, error) {
	dateTime := strings.Split(s, "T")
	if len(dateTime) != 2 {
		return domain.Timestamp{}, &TimestampFormatError{Value: s, Reason: "expected exactly one 'T' separator"}
	}
	date := strings.Split(dateTime[0], "-")
	if len(date) != 3 {
		return domain.Timestamp{}, &TimestampFormatError{Value: s, Reason: "date part must have 3 '-' separated components"}
	}
	clock := strings.Split(dateTime[1], ":")
	if len(clock) != 3 {
		return domain.Timestamp{}, &TimestampFormatError{Value: s, Reason: "time part must have 3 ':' separated components"}
	}

	names := [6]string{"year", "month", "day", "hour", "minute", "second"}
	raw := [6]string{date[0], date[1], date[2], clock[0], clock[1], clock[2]}
	var parts [6]int
	for i, r := range raw {
		n, err := strconv.Atoi(r)
		if err != nil {
			return domain.Timestamp{}, &TimestampFormatError{
				Value:  s,
				Reason: "non-integer component",
				Err:    &FieldParseError{Field: names[i], Value: r, Reason: "not an integer"},
			}
		}
		parts[i] = n
	}

	return domain.Timestamp{
		Year:   parts[0],
		Month:  parts[1],
		Day:    parts[2],
		Hour:   parts[3],
		Minute: parts[4],
		Second: parts[5],
	}, nil
}

// ParseStatus matches one of Pending, Complete or Cancelled exactly.
func ParseStatus(s string) (domain.Status, error) {
	for _, st := range domain.Statuses {
		if s == string(st) {
			return st, nil
		}
	}
	return "", &FieldParseError{Field: "status", Value: s, Reason: "expected one of Pending, Complete, Cancelled"}
}

// ParseOrigin matches P or O exactly.
func ParseOrigin(s string) (domain.Origin, error) {
	for _, o := range domain.Origins {
		if s == string(o) {
			return o, nil
		}
	}
	return "", &FieldParseError{Field: "origin", Value: s, Reason: "expected one of P, O"}
}
