package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"orderetl/internal/ddl"
)

// DefaultBatchSize is used when WriteTable gets a non-positive batch size.
const DefaultBatchSize = 500

// BatchError reports one failed CopyFrom call. Rows of other batches are
// unaffected and earlier batches are not rolled back.
type BatchError struct {
	Table    string
	Batch    int // 1-based
	FirstRow int // 0-based index into the submitted rows
	Rows     int
	Err      error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("write %s batch %d (rows %d-%d): %v",
		e.Table, e.Batch, e.FirstRow, e.FirstRow+e.Rows-1, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

// WriteResult summarizes one WriteTable call.
type WriteResult struct {
	Table   string        `json:"table"`
	Rows    int           `json:"rows"`
	Written int64         `json:"written"`
	Batches int           `json:"batches"`
	Failed  []*BatchError `json:"-"`
	Elapsed time.Duration `json:"elapsed"`
}

// WriteTable prepares t on repo and writes rows to it in batches of
// batchSize. A failing batch is recorded and the remaining batches are still
// attempted. The returned error joins every failure; it is nil only when all
// rows were written.
//
// Progress is logged on each successful flush.
func WriteTable(
	ctx context.Context,
	repo TableWriter,
	t ddl.TableDef,
	rows [][]any,
	batchSize int,
	logger *slog.Logger,
) (WriteResult, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	res := WriteResult{Table: t.FQN, Rows: len(rows)}
	start := time.Now()

	if err := repo.EnsureTable(ctx, t); err != nil {
		res.Elapsed = time.Since(start)
		return res, fmt.Errorf("ensure table %s: %w", t.FQN, err)
	}

	columns := t.ColumnNames()
	lastFlush := start

	var errs []error
	for first := 0; first < len(rows); first += batchSize {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		end := first + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		res.Batches++

		n, err := repo.CopyFrom(ctx, t.FQN, columns, rows[first:end])
		res.Written += n
		if err != nil {
			be := &BatchError{Table: t.FQN, Batch: res.Batches, FirstRow: first, Rows: end - first, Err: err}
			res.Failed = append(res.Failed, be)
			errs = append(errs, be)
			logger.Error("loader: copy failed",
				"table", t.FQN, "batch", res.Batches, "rows", end-first, "err", err)
			continue
		}

		now := time.Now()
		since := now.Sub(lastFlush)
		rps := float64(0)
		if since > 0 {
			rps = float64(n) / since.Seconds()
		}
		logger.Debug("loader: batch flushed",
			"table", t.FQN,
			"batch", res.Batches,
			"inserted", n,
			"total_inserted", res.Written,
			"rps", int64(rps),
			"elapsed", now.Sub(start).Truncate(time.Millisecond),
		)
		lastFlush = now
	}

	res.Elapsed = time.Since(start)
	logger.Info("loader: table written",
		"table", t.FQN, "rows", res.Rows, "written", res.Written, "failed_batches", len(res.Failed))
	return res, errors.Join(errs...)
}
