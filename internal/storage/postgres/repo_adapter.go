package postgres

import (
	"context"

	"orderetl/internal/storage"
)

// newRepository is swapped in tests to avoid a live connection.
var newRepository = NewRepository

func init() {
	storage.RegisterSQL("postgres", Dialect, func(ctx context.Context, dsn string) (*Repository, func(), error) {
		return newRepository(ctx, Config{DSN: dsn})
	})
}

var _ storage.TableWriter = (*Repository)(nil)
