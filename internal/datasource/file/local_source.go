// Package file opens input tables stored on the local filesystem.
package file

import (
	"context"
	"fmt"
	"io"
	"os"

	"orderetl/internal/datasource"
)

// Local reads one table from a file on disk.
type Local struct {
	name string
	path string
}

// NewLocal returns a source for the table called name at path.
func NewLocal(name, path string) *Local { return &Local{name: name, path: path} }

// Path returns the configured file path.
func (l *Local) Path() string { return l.path }

// Open opens the file for reading. Failures, including a path that names a
// directory, are reported as *datasource.SourceUnavailableError wrapping the
// underlying os error.
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, l.unavailable(err)
	}
	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, l.unavailable(err)
	}
	if fi.IsDir() {
		_ = f.Close()
		return nil, l.unavailable(fmt.Errorf("%s is a directory", l.path))
	}
	return f, nil
}

func (l *Local) unavailable(err error) error {
	return &datasource.SourceUnavailableError{Source: l.name, Location: l.path, Err: err}
}

var _ datasource.Source = (*Local)(nil)
