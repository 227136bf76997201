package storage

import (
	"context"
	"fmt"
	"sync"

	"orderetl/internal/ddl"
)

var (
	ddlMu    sync.RWMutex
	dialects = map[string]ddl.Dialect{}
)

// TableWriter is the part of Repository a relational backend implements
// itself; RegisterSQL supplies Close.
type TableWriter interface {
	// EnsureTable prepares t for writing. Relational kinds create the table
	// if absent; the csv kind truncates the file and writes the header.
	EnsureTable(ctx context.Context, t ddl.TableDef) error

	// CopyFrom appends rows (aligned to columns) to table and returns the
	// number of rows written.
	CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)
}

// SQLOpener connects to dsn and returns the backend with its close func.
type SQLOpener[W TableWriter] func(ctx context.Context, dsn string) (W, func(), error)

// RegisterSQL registers a relational kind: a factory built on open and the
// dialect used for its DDL.
func RegisterSQL[W TableWriter](kind string, d ddl.Dialect, open SQLOpener[W]) {
	Register(kind, func(ctx context.Context, cfg Config) (Repository, error) {
		w, closeFn, err := open(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return &sqlRepo{TableWriter: w, closeFn: closeFn}, nil
	})
	RegisterDDL(kind, d)
}

type sqlRepo struct {
	TableWriter
	closeFn func()
}

func (r *sqlRepo) Close() {
	if r.closeFn != nil {
		r.closeFn()
	}
}

// Unwrap returns the backend behind a Repository opened for a RegisterSQL
// kind.
func (r *sqlRepo) Unwrap() TableWriter { return r.TableWriter }

// RegisterDDL registers (or replaces) the SQL dialect for a storage kind.
func RegisterDDL(kind string, d ddl.Dialect) {
	ddlMu.Lock()
	defer ddlMu.Unlock()
	dialects[kind] = d
}

// DialectFor returns the dialect registered for kind.
func DialectFor(kind string) (ddl.Dialect, bool) {
	ddlMu.RLock()
	defer ddlMu.RUnlock()
	d, ok := dialects[kind]
	return d, ok
}

// BuildDDL renders the CREATE TABLE statement kind would run for t. Kinds
// without a dialect (csv) return an error.
func BuildDDL(kind string, t ddl.TableDef) (string, error) {
	d, ok := DialectFor(kind)
	if !ok {
		return "", fmt.Errorf("no DDL dialect registered for storage.kind=%q", kind)
	}
	return ddl.BuildCreateTableSQL(d, t)
}
