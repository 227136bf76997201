// Package etl runs one order/line-item pipeline end to end:
//
//	load (both sources concurrently) → parse → join (+filter) → aggregate → write
//
// Run takes an immutable config.Pipeline and returns a RunReport. Row-level
// parse failures never stop a run; a source that cannot be loaded does.
package etl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"orderetl/internal/config"
	"orderetl/internal/datasource"
	"orderetl/internal/datasource/file"
	"orderetl/internal/datasource/httpds"
	"orderetl/internal/domain"
	"orderetl/internal/metrics"
	csvparser "orderetl/internal/parser/csv"
	"orderetl/internal/schema"
	"orderetl/internal/storage"
	"orderetl/internal/transformer"
	"orderetl/internal/transformer/builtin"
)

// Logical source names, used in logs, errors and reports.
const (
	OrderSource     = "order"
	OrderItemSource = "order_item"
)

// Pipeline step names reported to metrics.
const (
	StepLoad      = "load"
	StepParse     = "parse"
	StepJoin      = "join"
	StepAggregate = "aggregate"
	StepWrite     = "write"
)

// rowErrorSample caps how many row errors per table are logged individually.
const rowErrorSample = 5

// Function variables used as test seams.
var (
	newRepositoryFn = storage.New
	newSourceFn     = newSource
)

// SourcesError reports every input that could not be loaded. Each element
// is a *datasource.SourceUnavailableError or a *datasource.TableLoadError.
type SourcesError struct {
	Errs []error
}

func (e *SourcesError) Error() string {
	msgs := make([]string, 0, len(e.Errs))
	for _, err := range e.Errs {
		msgs = append(msgs, err.Error())
	}
	return "load sources: " + strings.Join(msgs, "; ")
}

func (e *SourcesError) Unwrap() []error { return e.Errs }

// RunReport is the structured outcome of a run.
type RunReport struct {
	RunID   string
	Started time.Time
	Elapsed time.Duration

	Orders    transformer.Report
	LineItems transformer.Report

	// DuplicateOrderIDs lists order ids seen more than once.
	DuplicateOrderIDs []int64

	// Joined is the number of line-items that had a parent order accepted
	// by the filter.
	Joined int

	// Summaries are in first-appearance order of the order id.
	Summaries []domain.OrderSummary
	// Monthly is nil unless the monthly output was requested.
	Monthly []domain.MonthlyAverage

	Writes []storage.WriteResult
}

// Run executes the pipeline described by p. It returns a report together with
// any error; the report is partially filled when a later step fails.
func Run(ctx context.Context, p config.Pipeline, logger *slog.Logger) (*RunReport, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	rep := &RunReport{RunID: uuid.NewString(), Started: time.Now()}
	defer func() { rep.Elapsed = time.Since(rep.Started) }()

	job := p.Metrics.Job
	if job == "" {
		job = "orderetl"
	}
	logger = logger.With("run_id", rep.RunID)
	logger.Info("etl: start",
		"order", p.Sources.Order.Location(),
		"order_item", p.Sources.OrderItem.Location(),
		"output", p.Output.Kind,
		"monthly", p.Output.Monthly,
	)

	// load
	start := time.Now()
	orderTable, itemTable, err := loadSources(ctx, p, logger)
	metrics.RecordStep(job, StepLoad, err, time.Since(start))
	if err != nil {
		return rep, err
	}

	// parse
	start = time.Now()
	orders := transformer.ParseOrders(orderTable)
	items := transformer.ParseLineItems(itemTable)
	rep.Orders = orders.Report()
	rep.LineItems = items.Report()
	logBatch(logger, orders.Kind, orders.Total(), orders.Errors)
	logBatch(logger, items.Kind, items.Total(), items.Errors)
	metrics.RecordRow(job, metrics.RowParsed, int64(orders.Succeeded()+items.Succeeded()))
	metrics.RecordRow(job, metrics.RowParseErrors, int64(orders.Failed()+items.Failed()))
	metrics.RecordStep(job, StepParse, nil, time.Since(start))

	// join
	start = time.Now()
	if dups := builtin.DuplicateOrderIDs(orders.Records); len(dups) > 0 {
		rep.DuplicateOrderIDs = dups
		logger.Warn("etl: duplicate order ids; first occurrence wins", "count", len(dups), "ids", sample(dups, rowErrorSample))
	}
	filter := builtin.Filter{Status: p.Filter.Status, Origin: p.Filter.Origin}
	joined := builtin.Join(orders.Records, items.Records, filter)
	rep.Joined = len(joined)
	metrics.RecordRow(job, metrics.RowJoined, int64(len(joined)))
	metrics.RecordStep(job, StepJoin, nil, time.Since(start))
	logger.Info("etl: joined", "items", len(items.Records), "joined", len(joined), "filter", filterString(filter))

	// aggregate
	start = time.Now()
	rep.Summaries = builtin.AggregateByOrder(joined)
	if p.Output.Monthly {
		rep.Monthly = builtin.AggregateByMonth(orders.Records, items.Records)
	}
	metrics.RecordStep(job, StepAggregate, nil, time.Since(start))
	logger.Info("etl: aggregated", "orders", len(rep.Summaries), "months", len(rep.Monthly))

	// write
	start = time.Now()
	err = write(ctx, p.Output, rep, logger)
	metrics.RecordStep(job, StepWrite, err, time.Since(start))
	for _, w := range rep.Writes {
		metrics.RecordRow(job, metrics.RowWritten, w.Written)
		metrics.RecordRow(job, metrics.RowWriteErrors, int64(w.Rows)-w.Written)
		metrics.RecordBatches(job, int64(w.Batches-len(w.Failed)))
	}
	if err != nil {
		return rep, err
	}

	logger.Info("etl: done", "elapsed", time.Since(rep.Started).Truncate(time.Millisecond))
	return rep, nil
}

// loadSources loads both tables concurrently. Neither side cancels the other
// so that both failures can be reported together.
func loadSources(ctx context.Context, p config.Pipeline, logger *slog.Logger) ([][]string, [][]string, error) {
	client := httpds.NewClient(httpds.Config{
		Timeout:            p.HTTP.Timeout.D(),
		MaxRetries:         p.HTTP.MaxRetries,
		InsecureSkipVerify: p.HTTP.InsecureSkipVerify,
	})

	var (
		g                     errgroup.Group
		orderTable, itemTable [][]string
		orderErr, itemErr     error
	)
	g.Go(func() error {
		orderTable, orderErr = loadTable(ctx, client, OrderSource, p.Sources.Order, logger)
		return nil
	})
	g.Go(func() error {
		itemTable, itemErr = loadTable(ctx, client, OrderItemSource, p.Sources.OrderItem, logger)
		return nil
	})
	_ = g.Wait()

	var errs []error
	for _, err := range []error{orderErr, itemErr} {
		if err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, nil, &SourcesError{Errs: errs}
	}
	return orderTable, itemTable, nil
}

func newSource(client *httpds.Client, name string, s config.Source) datasource.Source {
	if s.Remote() {
		return httpds.NewRemote(client, name, s.URL, "")
	}
	return file.NewLocal(name, s.Path)
}

func loadTable(ctx context.Context, client *httpds.Client, name string, s config.Source, logger *slog.Logger) ([][]string, error) {
	start := time.Now()
	rc, err := newSourceFn(client, name, s).Open(ctx)
	if err != nil {
		logger.Error("etl: source unavailable", "source", name, "location", s.Location(), "err", err)
		return nil, err
	}
	defer rc.Close()

	table, err := csvparser.LoadTable(name, rc, csvparser.Options{Comma: s.CommaRune()})
	if err != nil {
		logger.Error("etl: table load failed", "source", name, "err", err)
		return nil, err
	}
	logger.Debug("etl: table loaded", "source", name, "rows", len(table), "elapsed", time.Since(start))
	return table, nil
}

// logBatch logs the per-table parse summary and the first few row errors.
func logBatch(logger *slog.Logger, kind string, total int, errs []transformer.RowError) {
	logger.Info("parser: summary", "table", kind, "rows", total, "rejected", len(errs))
	for i, e := range errs {
		if i == rowErrorSample {
			logger.Warn("parser: more row errors suppressed", "table", kind, "suppressed", len(errs)-rowErrorSample)
			break
		}
		logger.Warn("parser: row rejected", "table", kind, "line", e.Line, "err", e.Err)
	}
}

func sample[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func filterString(f builtin.Filter) string {
	if f.IsZero() {
		return "none"
	}
	var parts []string
	if f.Status != nil {
		parts = append(parts, "status="+*f.Status)
	}
	if f.Origin != nil {
		parts = append(parts, "origin="+*f.Origin)
	}
	return strings.Join(parts, ",")
}

// write persists the summaries, and the monthly averages when requested, to
// the configured sink. A failed table does not prevent the next one.
func write(ctx context.Context, out config.Output, rep *RunReport, logger *slog.Logger) error {
	repo, err := newRepositoryFn(ctx, storage.Config{
		Kind: out.Kind,
		DSN:  out.StorageDSN(),
		Dir:  out.Dir,
	})
	if err != nil {
		return fmt.Errorf("open output %s: %w", out.Kind, err)
	}
	defer repo.Close()

	var errs []error

	res, err := storage.WriteTable(ctx, repo, schema.OrderSummary(), schema.OrderSummaryRows(rep.Summaries), out.BatchSize, logger)
	rep.Writes = append(rep.Writes, res)
	errs = append(errs, err)

	if out.Monthly {
		res, err := storage.WriteTable(ctx, repo, schema.MonthlyAverages(), schema.MonthlyAverageRows(rep.Monthly), out.BatchSize, logger)
		rep.Writes = append(rep.Writes, res)
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
