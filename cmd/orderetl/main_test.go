package main

import (
	"bytes"
	"context"
	"flag"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTables(t *testing.T) (dir, order, item string) {
	t.Helper()
	dir = t.TempDir()
	order = filepath.Join(dir, "order.csv")
	item = filepath.Join(dir, "order_item.csv")
	mustWrite(t, order, "id,client_id,order_date,status,origin\n"+
		"1,10,2024-01-03T09:00:00,Pending,P\n"+
		"2,20,2024-01-15T12:00:00,Complete,O\n")
	mustWrite(t, item, "order_id,product_id,quantity,price,tax\n"+
		"1,1,1,10,0.10\n"+
		"2,2,3,10,0\n")
	return dir, order, item
}

func mustWrite(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_CSVEndToEnd(t *testing.T) {
	t.Parallel()

	dir, order, item := writeTables(t)
	out := filepath.Join(dir, "out")

	code, stdout, stderr := runCLI(t,
		"--order-file", order, "--order-item-file", item,
		"--output-dir", out, "--monthly", "--print",
	)
	if code != 0 {
		t.Fatalf("exit code = %d, stderr:\n%s", code, stderr)
	}

	b, err := os.ReadFile(filepath.Join(out, "order_summary.csv"))
	if err != nil {
		t.Fatalf("read order_summary.csv: %v", err)
	}
	want := "order_id,total_amount,total_taxes\n1,10.00,1.00\n2,30.00,0.00\n"
	if string(b) != want {
		t.Fatalf("order_summary.csv = %q, want %q", b, want)
	}

	b, err = os.ReadFile(filepath.Join(out, "monthly_averages.csv"))
	if err != nil {
		t.Fatalf("read monthly_averages.csv: %v", err)
	}
	if want := "year,month,avg_amount,avg_tax\n2024,1,20.00,0.50\n"; string(b) != want {
		t.Fatalf("monthly_averages.csv = %q, want %q", b, want)
	}

	for _, s := range []string{"Order summary", "Monthly averages", "order_summary"} {
		if !strings.Contains(stdout, s) {
			t.Fatalf("stdout missing %q:\n%s", s, stdout)
		}
	}
}

func TestRun_StatusFilter(t *testing.T) {
	t.Parallel()

	dir, order, item := writeTables(t)
	out := filepath.Join(dir, "out")

	code, _, stderr := runCLI(t,
		"--order-file", order, "--order-item-file", item,
		"--output-dir", out, "--status", "Complete",
	)
	if code != 0 {
		t.Fatalf("exit code = %d, stderr:\n%s", code, stderr)
	}
	b, _ := os.ReadFile(filepath.Join(out, "order_summary.csv"))
	if want := "order_id,total_amount,total_taxes\n2,30.00,0.00\n"; string(b) != want {
		t.Fatalf("order_summary.csv = %q, want %q", b, want)
	}
}

func TestRun_SQLite(t *testing.T) {
	t.Parallel()

	dir, order, item := writeTables(t)
	out := filepath.Join(dir, "out")

	code, _, stderr := runCLI(t,
		"--order-file", order, "--order-item-file", item,
		"--output-dir", out, "--sqlite",
	)
	if code != 0 {
		t.Fatalf("exit code = %d, stderr:\n%s", code, stderr)
	}
	if _, err := os.Stat(filepath.Join(out, "orders.db")); err != nil {
		t.Fatalf("expected sqlite file: %v", err)
	}
}

func TestRun_MissingInputsFail(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	code, _, stderr := runCLI(t,
		"--order-file", filepath.Join(dir, "order.csv"),
		"--order-item-file", filepath.Join(dir, "order_item.csv"),
		"--output-dir", filepath.Join(dir, "out"),
	)
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stderr, "source order unavailable") || !strings.Contains(stderr, "source order_item unavailable") {
		t.Fatalf("stderr should name both sources:\n%s", stderr)
	}
}

func TestRun_Validate(t *testing.T) {
	t.Parallel()

	code, stdout, _ := runCLI(t, "--validate")
	if code != 0 || !strings.Contains(stdout, "configuration is valid") {
		t.Fatalf("--validate: code=%d stdout=%q", code, stdout)
	}

	code, _, stderr := runCLI(t, "--validate", "--output", "postgres")
	if code != 1 || !strings.Contains(stderr, "output.dsn") {
		t.Fatalf("--validate postgres without dsn: code=%d stderr=%q", code, stderr)
	}
}

func TestRun_DDL(t *testing.T) {
	t.Parallel()

	code, stdout, stderr := runCLI(t, "--ddl", "--sqlite")
	if code != 0 {
		t.Fatalf("exit code = %d, stderr:\n%s", code, stderr)
	}
	for _, s := range []string{"CREATE TABLE IF NOT EXISTS", "order_summary", "monthly_averages"} {
		if !strings.Contains(stdout, s) {
			t.Fatalf("ddl output missing %q:\n%s", s, stdout)
		}
	}

	if code, _, _ := runCLI(t, "--ddl"); code != 1 {
		t.Fatalf("csv output has no DDL; code = %d, want 1", code)
	}
}

func TestRun_BadFlags(t *testing.T) {
	t.Parallel()

	if code, _, _ := runCLI(t, "--no-such-flag"); code != 2 {
		t.Fatalf("unknown flag: code = %d, want 2", code)
	}
	if code, _, _ := runCLI(t, "stray"); code != 2 {
		t.Fatalf("positional arg: code = %d, want 2", code)
	}
	if code, _, _ := runCLI(t, "--config", filepath.Join(t.TempDir(), "missing.yaml")); code != 1 {
		t.Fatalf("missing config: code = %d, want 1", code)
	}
}

func TestLoadPipeline_FlagPrecedence(t *testing.T) {
	t.Parallel()

	cfgPath := filepath.Join(t.TempDir(), "p.yaml")
	mustWrite(t, cfgPath, "output:\n  kind: postgres\n  dsn: postgres://x\nfilter:\n  status: Pending\n")

	var f cliFlags
	fs := newFlagSet(&f, io.Discard)
	if err := fs.Parse([]string{"--config", cfgPath, "--sqlite", "--origin", "", "--order-url", "http://h/o.csv", "-v"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	p, err := loadPipeline(fs, &f)
	if err != nil {
		t.Fatalf("loadPipeline: %v", err)
	}

	if p.Output.Kind != "sqlite" || p.Output.DSN != "postgres://x" {
		t.Fatalf("output = %+v", p.Output)
	}
	if p.Filter.Status == nil || *p.Filter.Status != "Pending" {
		t.Fatalf("status from file lost: %+v", p.Filter)
	}
	if p.Filter.Origin == nil || *p.Filter.Origin != "" {
		t.Fatalf("explicit empty origin should be a criterion: %+v", p.Filter)
	}
	if p.Sources.Order.URL != "http://h/o.csv" || p.Sources.OrderItem.Remote() {
		t.Fatalf("sources = %+v", p.Sources)
	}
	if p.Log.Level != "debug" {
		t.Fatalf("log level = %q", p.Log.Level)
	}
}

func TestNewFlagSet_HelpExitsZero(t *testing.T) {
	t.Parallel()

	var f cliFlags
	fs := newFlagSet(&f, io.Discard)
	if err := fs.Parse([]string{"-h"}); err != flag.ErrHelp {
		t.Fatalf("Parse(-h) = %v, want flag.ErrHelp", err)
	}
	if code, _, _ := runCLI(t, "-h"); code != 0 {
		t.Fatalf("-h exit code = %d", code)
	}
}
