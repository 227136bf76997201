package datasource

import "fmt"

// SourceUnavailableError reports an input that could not be obtained at all:
// a missing local file or a failed remote fetch. It is terminal for that
// source only.
type SourceUnavailableError struct {
	Source   string // logical name, e.g. "order" or "order_item"
	Location string // path or URL
	Err      error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("source %s unavailable (%s): %v", e.Source, e.Location, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error { return e.Err }

// TableLoadError reports input whose bytes were read but could not be
// decoded as a table (malformed CSV).
type TableLoadError struct {
	Source string
	Err    error
}

func (e *TableLoadError) Error() string {
	return fmt.Sprintf("load table %s: %v", e.Source, e.Err)
}

func (e *TableLoadError) Unwrap() error { return e.Err }
