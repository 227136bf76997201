// Package datasource describes where input tables come from: a local file
// or a remote URL downloaded to a temporary file first.
package datasource

import (
	"context"
	"io"
)

// Source yields the raw bytes of one input table.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}
