// Package sqlite writes result tables to a SQLite file through the pure-Go
// modernc driver. Each batch is one transaction over a prepared INSERT.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"orderetl/internal/ddl"
	"orderetl/internal/storage"
)

const pingTimeout = 5 * time.Second

// Config holds SQLite repository configuration.
type Config struct {
	// DSN is a file path ("output/orders.db"), a "file:" URI or ":memory:".
	// The parent directory of a plain path is created on open.
	DSN string
}

// Repository implements storage.Repository on a single SQLite connection.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NewRepository opens the database and pings it. The returned func closes
// it.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, nil, fmt.Errorf("sqlite: DSN must not be empty")
	}
	if isPlainPath(dsn) {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, nil, fmt.Errorf("sqlite: create dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", withPragmas(dsn))
	if err != nil {
		return nil, nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// :memory: databases are per connection.
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	return &Repository{db: db, cfg: cfg}, func() { _ = db.Close() }, nil
}

func isPlainPath(dsn string) bool {
	return dsn != ":memory:" && !strings.HasPrefix(dsn, "file:")
}

// withPragmas adds a busy timeout to plain paths so a reader holding the
// file does not fail the write outright.
func withPragmas(dsn string) string {
	if !isPlainPath(dsn) {
		return dsn
	}
	return dsn + "?_pragma=" + url.QueryEscape("busy_timeout(5000)")
}

// EnsureTable creates t if it does not exist.
func (r *Repository) EnsureTable(ctx context.Context, t ddl.TableDef) error {
	stmt, err := ddl.BuildCreateTableSQL(Dialect, t)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("sqlite: create %s: %w", t.FQN, err)
	}
	return nil
}

// CopyFrom inserts rows into table in one transaction; any failure rolls
// the whole batch back. Decimal values are stored as REAL.
func (r *Repository) CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (n int64, err error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("sqlite: CopyFrom: columns must not be empty")
	}
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			n = 0
		}
	}()

	stmt, err := tx.PrepareContext(ctx, insertSQL(table, columns))
	if err != nil {
		return 0, fmt.Errorf("sqlite: prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, row := range storage.SQLRows(rows) {
		if len(row) != len(columns) {
			return 0, fmt.Errorf("sqlite: row %d has %d values for %d columns", i, len(row), len(columns))
		}
		if _, err = stmt.ExecContext(ctx, row...); err != nil {
			return 0, fmt.Errorf("sqlite: insert row %d: %w", i, err)
		}
		n++
	}
	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: commit: %w", err)
	}
	return n, nil
}

// insertSQL renders INSERT INTO "t" ("a", "b") VALUES (?, ?).
func insertSQL(table string, columns []string) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = quoteIdent(c)
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", Dialect.QuoteFQN(table), strings.Join(quoted, ", "), marks)
}

// DB exposes the handle for read-back in tests.
func (r *Repository) DB() *sql.DB { return r.db }
