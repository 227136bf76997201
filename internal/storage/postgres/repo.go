// Package postgres writes result tables to PostgreSQL with pgx v5, loading
// each batch through the COPY protocol.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"orderetl/internal/ddl"
	"orderetl/internal/storage"
)

const (
	applicationName = "orderetl"
	maxConns        = 4
)

// Config holds Postgres repository configuration.
type Config struct {
	// DSN is a libpq URL or keyword/value string.
	DSN string
}

// Repository implements storage.Repository on a pgx pool.
type Repository struct {
	pool *pgxpool.Pool
	cfg  Config
}

// NewRepository parses the DSN, opens a small pool and pings it. The
// returned func closes the pool.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, errors.New("postgres: DSN must not be empty")
	}
	pcfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("postgres dsn: %w", err)
	}
	if _, ok := pcfg.ConnConfig.RuntimeParams["application_name"]; !ok {
		pcfg.ConnConfig.RuntimeParams["application_name"] = applicationName
	}
	pcfg.MaxConns = maxConns

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, nil, fmt.Errorf("postgres: pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return &Repository{pool: pool, cfg: cfg}, pool.Close, nil
}

// EnsureTable creates t if it does not exist.
func (r *Repository) EnsureTable(ctx context.Context, t ddl.TableDef) error {
	stmt, err := ddl.BuildCreateTableSQL(Dialect, t)
	if err != nil {
		return err
	}
	return r.exec(ctx, stmt)
}

// CopyFrom loads rows into table with COPY inside a transaction, so a
// failed batch leaves nothing behind.
func (r *Repository) CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	var n int64
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		n, err = tx.CopyFrom(ctx, identifier(table), columns, pgx.CopyFromRows(storage.SQLRows(rows)))
		return err
	})
	if err != nil {
		return 0, describe("copy into "+table, err)
	}
	return n, nil
}

func (r *Repository) exec(ctx context.Context, sql string) error {
	if _, err := r.pool.Exec(ctx, sql); err != nil {
		return describe("exec", err)
	}
	return nil
}

// describe adds the server's detail and SQLSTATE to err when available.
func describe(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Detail != "" {
			return fmt.Errorf("postgres: %s: %s [%s]: %w", op, pgErr.Detail, pgErr.SQLState(), err)
		}
		return fmt.Errorf("postgres: %s [%s]: %w", op, pgErr.SQLState(), err)
	}
	return fmt.Errorf("postgres: %s: %w", op, err)
}

// identifier splits "schema.table" into its segments, dropping empty ones.
func identifier(fqn string) pgx.Identifier {
	return pgx.Identifier(strings.FieldsFunc(fqn, func(r rune) bool { return r == '.' }))
}
