package transformer

import "fmt"

// FieldParseError reports a scalar field whose raw text is not a valid
// literal for the field's type.
type FieldParseError struct {
	Field  string
	Value  string
	Reason string
}

func (e *FieldParseError) Error() string {
	return fmt.Sprintf("field %s: invalid value %q: %s", e.Field, e.Value, e.Reason)
}

// TimestampFormatError reports a date/time string whose structure does not
// match YYYY-MM-DDThh:mm:ss. Err, when set, is the component-level failure.
type TimestampFormatError struct {
	Value  string
	Reason string
	Err    error
}

func (e *TimestampFormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed timestamp %q: %s: %v", e.Value, e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed timestamp %q: %s", e.Value, e.Reason)
}

func (e *TimestampFormatError) Unwrap() error { return e.Err }

// RowArityError reports a row whose column count differs from the record
// kind's expected arity. No field of such a row is parsed.
type RowArityError struct {
	Kind string
	Want int
	Got  int
}

func (e *RowArityError) Error() string {
	return fmt.Sprintf("%s row: expected %d fields, got %d", e.Kind, e.Want, e.Got)
}
