// Command orderetl loads order and order-item CSV tables, filters and joins
// them, aggregates totals per order (and optionally per month) and writes the
// result to CSV files or a relational database.
//
// Configuration layers, lowest to highest: built-in defaults, --config file,
// ETL_* environment variables, flags given on the command line.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"orderetl/internal/config"
	"orderetl/internal/ddl"
	"orderetl/internal/etl"
	"orderetl/internal/logging"
	"orderetl/internal/metrics"
	"orderetl/internal/metrics/datadog"
	"orderetl/internal/metrics/prompush"
	"orderetl/internal/report"
	"orderetl/internal/schema"
	"orderetl/internal/storage"

	// register all backends with the storage factory.
	_ "orderetl/internal/storage/all"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// cliFlags holds raw flag values. Only flags the user actually set are
// applied on top of the loaded configuration.
type cliFlags struct {
	cfgPath string

	status, origin           string
	orderURL, orderItemURL   string
	orderFile, orderItemFile string

	sqlite    bool
	monthly   bool
	output    string
	outDir    string
	dsn       string
	batchSize int

	metricsBackend string
	pushgatewayURL string
	statsdAddr     string
	logFormat      string

	print    bool
	validate bool
	ddl      bool
	verbose  bool
}

func newFlagSet(f *cliFlags, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("orderetl", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&f.cfgPath, "config", "", "pipeline config file (.json, .yaml or .yml)")
	fs.StringVar(&f.status, "status", "", "only orders with this status (Pending, Complete, Cancelled)")
	fs.StringVar(&f.origin, "origin", "", "only orders with this origin (P, O)")
	fs.StringVar(&f.orderURL, "order-url", "", "download the order table from this URL")
	fs.StringVar(&f.orderItemURL, "order-item-url", "", "download the order_item table from this URL")
	fs.StringVar(&f.orderFile, "order-file", "", "local order table (default data/order.csv)")
	fs.StringVar(&f.orderItemFile, "order-item-file", "", "local order_item table (default data/order_item.csv)")
	fs.BoolVar(&f.sqlite, "sqlite", false, "write to SQLite instead of CSV (same as --output sqlite)")
	fs.BoolVar(&f.monthly, "monthly", false, "also write monthly averages")
	fs.StringVar(&f.output, "output", "", "output kind: csv, sqlite, postgres, mysql, mssql")
	fs.StringVar(&f.outDir, "output-dir", "", "directory for CSV output and the default SQLite file (default output)")
	fs.StringVar(&f.dsn, "dsn", "", "database DSN (SQLite: file path)")
	fs.IntVar(&f.batchSize, "batch-size", 0, "rows per write batch")
	fs.StringVar(&f.metricsBackend, "metrics-backend", "", "metrics backend: none, prometheus, datadog")
	fs.StringVar(&f.pushgatewayURL, "pushgateway-url", "", "Prometheus Pushgateway base URL")
	fs.StringVar(&f.statsdAddr, "statsd-addr", "", "DogStatsD address, e.g. 127.0.0.1:8125")
	fs.StringVar(&f.logFormat, "log-format", "", "log format: text or json")
	fs.BoolVar(&f.print, "print", false, "print result tables and the run summary")
	fs.BoolVar(&f.validate, "validate", false, "validate the configuration and exit")
	fs.BoolVar(&f.ddl, "ddl", false, "print CREATE TABLE statements for the output kind and exit")
	fs.BoolVar(&f.verbose, "v", false, "enable verbose (debug) logs")
	return fs
}

// run is main without os.Exit. It returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var f cliFlags
	fs := newFlagSet(&f, stderr)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "unexpected arguments: %v\n", fs.Args())
		return 2
	}

	p, err := loadPipeline(fs, &f)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	logger := logging.New(p.Log.Level, p.Log.Format, stderr)

	issues := config.ValidatePipeline(p)
	for _, iss := range issues {
		fmt.Fprintf(stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		fmt.Fprintln(stderr, "configuration is invalid")
		return 1
	}
	if f.validate {
		fmt.Fprintln(stdout, "configuration is valid")
		return 0
	}

	if f.ddl {
		if err := printDDL(stdout, p.Output); err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		return 0
	}

	if flush := setupMetrics(p.Metrics, logger); flush != nil {
		defer flush()
	}

	rep, err := etl.Run(ctx, p, logger)
	if f.print && rep != nil {
		if len(rep.Summaries) > 0 {
			report.Summaries(stdout, rep.Summaries)
		}
		if rep.Monthly != nil {
			report.Monthly(stdout, rep.Monthly)
		}
		report.Run(stdout, rep)
	}
	if err != nil {
		fmt.Fprintf(stderr, "orderetl: %v\n", err)
		return 1
	}
	return 0
}

// loadPipeline layers defaults, the config file, the environment and the
// explicitly set flags.
func loadPipeline(fs *flag.FlagSet, f *cliFlags) (config.Pipeline, error) {
	p := config.Default()
	if f.cfgPath != "" {
		var err error
		if p, err = config.Load(f.cfgPath); err != nil {
			return p, err
		}
	}
	if err := config.ApplyEnv(&p); err != nil {
		return p, err
	}

	set := map[string]bool{}
	fs.Visit(func(fl *flag.Flag) { set[fl.Name] = true })

	if set["status"] {
		s := f.status
		p.Filter.Status = &s
	}
	if set["origin"] {
		o := f.origin
		p.Filter.Origin = &o
	}
	if set["order-file"] {
		p.Sources.Order = config.Source{Path: f.orderFile, Comma: p.Sources.Order.Comma}
	}
	if set["order-item-file"] {
		p.Sources.OrderItem = config.Source{Path: f.orderItemFile, Comma: p.Sources.OrderItem.Comma}
	}
	if set["order-url"] {
		p.Sources.Order.URL = f.orderURL
	}
	if set["order-item-url"] {
		p.Sources.OrderItem.URL = f.orderItemURL
	}
	// --output wins over --sqlite.
	if set["sqlite"] && f.sqlite {
		p.Output.Kind = "sqlite"
	}
	if set["output"] {
		p.Output.Kind = f.output
	}
	if set["monthly"] {
		p.Output.Monthly = f.monthly
	}
	if set["output-dir"] {
		p.Output.Dir = f.outDir
	}
	if set["dsn"] {
		p.Output.DSN = f.dsn
	}
	if set["batch-size"] {
		p.Output.BatchSize = f.batchSize
	}
	if set["metrics-backend"] {
		p.Metrics.Backend = f.metricsBackend
	}
	if set["pushgateway-url"] {
		p.Metrics.PushgatewayURL = f.pushgatewayURL
	}
	if set["statsd-addr"] {
		p.Metrics.StatsdAddr = f.statsdAddr
	}
	if set["log-format"] {
		p.Log.Format = f.logFormat
	}
	if f.verbose {
		p.Log.Level = "debug"
	}
	return p, nil
}

// setupMetrics installs the configured backend and returns its flush func,
// or nil when metrics are disabled. A backend that fails to start is logged
// and the run continues without metrics.
func setupMetrics(m config.Metrics, logger *slog.Logger) func() {
	var (
		b   metrics.Backend
		err error
	)
	switch m.Backend {
	case "prometheus":
		b, err = prompush.NewBackend(m.Job, m.PushgatewayURL)
	case "datadog":
		b, err = datadog.NewBackend(datadog.Config{
			Addr:       m.StatsdAddr,
			Namespace:  "orderetl.",
			GlobalTags: []string{"job:" + m.Job},
		})
	default:
		logger.Debug("metrics: disabled", "backend", m.Backend)
		return nil
	}
	if err != nil {
		logger.Warn("metrics: backend init failed; using nop", "backend", m.Backend, "err", err)
		return nil
	}

	logger.Info("metrics: enabled", "backend", m.Backend, "job", m.Job)
	metrics.SetBackend(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			logger.Warn("metrics: flush error", "err", err)
		}
	}
}

// printDDL writes the CREATE TABLE statements the output kind would run.
func printDDL(w io.Writer, out config.Output) error {
	for _, t := range []ddl.TableDef{schema.OrderSummary(), schema.MonthlyAverages()} {
		stmt, err := storage.BuildDDL(out.Kind, t)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\n\n", stmt)
	}
	return nil
}
