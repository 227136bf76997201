// Package csvfile implements a storage.Repository that writes each table to
// <dir>/<table>.csv. EnsureTable truncates the file and writes the header, so
// every run overwrites the previous output.
package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"orderetl/internal/ddl"
	"orderetl/internal/storage"
)

// DecimalPlaces is the fixed precision for money columns.
const DecimalPlaces = 2

// Repository writes CSV files under a directory.
type Repository struct {
	dir string
}

// NewRepository returns a Repository rooted at dir, creating it if needed.
func NewRepository(dir string) (*Repository, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("csvfile: output dir must not be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("csvfile: create dir: %w", err)
	}
	return &Repository{dir: dir}, nil
}

// Path returns the file backing table.
func (r *Repository) Path(table string) string {
	return filepath.Join(r.dir, table+".csv")
}

// EnsureTable creates or truncates the table file and writes the header row.
func (r *Repository) EnsureTable(ctx context.Context, t ddl.TableDef) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(t.FQN) == "" {
		return fmt.Errorf("csvfile: table name must not be empty")
	}
	f, err := os.Create(r.Path(t.FQN))
	if err != nil {
		return fmt.Errorf("csvfile: create: %w", err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(t.ColumnNames()); err != nil {
		_ = f.Close()
		return fmt.Errorf("csvfile: write header: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("csvfile: write header: %w", err)
	}
	return f.Close()
}

// CopyFrom appends rows to the table file. The header written by
// EnsureTable already fixes the column order, so columns is only checked
// against each row's width. Rows before a failing row are still flushed and
// counted.
func (r *Repository) CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (written int64, err error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	f, err := os.OpenFile(r.Path(table), os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		return 0, fmt.Errorf("csvfile: open: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("csvfile: close: %w", cerr)
		}
	}()

	w := csv.NewWriter(f)
	rec := make([]string, len(columns))
	for i, row := range rows {
		if len(row) != len(columns) {
			err = fmt.Errorf("csvfile: row %d: length %d != columns length %d", i, len(row), len(columns))
			break
		}
		for j, v := range row {
			rec[j] = FormatValue(v)
		}
		if err = w.Write(rec); err != nil {
			err = fmt.Errorf("csvfile: write: %w", err)
			break
		}
		written++
	}
	w.Flush()
	if ferr := w.Error(); ferr != nil && err == nil {
		err = fmt.Errorf("csvfile: flush: %w", ferr)
	}
	return written, err
}

// Close is a no-op; files are closed after every call.
func (r *Repository) Close() {}

// FormatValue renders one cell. Decimals use DecimalPlaces fixed digits.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case decimal.Decimal:
		return t.StringFixed(DecimalPlaces)
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'f', DecimalPlaces, 64)
	default:
		return fmt.Sprint(t)
	}
}

var _ storage.Repository = (*Repository)(nil)

func init() {
	storage.Register("csv", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		return NewRepository(cfg.Dir)
	})
}
