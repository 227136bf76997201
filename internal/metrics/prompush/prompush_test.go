package prompush

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"orderetl/internal/metrics"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()

	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		t.Fatalf("Counter.Write() error = %v", err)
	}
	if m.GetCounter() == nil {
		t.Fatalf("metric did not contain a counter")
	}
	return m.GetCounter().GetValue()
}

func histogramCountSum(t *testing.T, v *prometheus.HistogramVec, labels ...string) (uint64, float64) {
	t.Helper()

	metric, ok := v.WithLabelValues(labels...).(prometheus.Metric)
	if !ok {
		t.Fatalf("histogram does not implement prometheus.Metric")
	}
	m := &dto.Metric{}
	if err := metric.Write(m); err != nil {
		t.Fatalf("Histogram.Write() error = %v", err)
	}
	return m.GetHistogram().GetSampleCount(), m.GetHistogram().GetSampleSum()
}

func TestNewBackend(t *testing.T) {
	t.Parallel()

	if _, err := NewBackend("orderetl", ""); err == nil {
		t.Fatalf("NewBackend without gateway URL: error = nil")
	}

	b, err := NewBackend("", "http://pushgateway:9091")
	if err != nil {
		t.Fatalf("NewBackend() error = %v", err)
	}
	if b.job != "orderetl" {
		t.Fatalf("default job = %q, want orderetl", b.job)
	}

	b, err = NewBackend("nightly", "http://pushgateway:9091")
	if err != nil {
		t.Fatalf("NewBackend() error = %v", err)
	}
	if b.job != "nightly" {
		t.Fatalf("job = %q, want nightly", b.job)
	}
}

func TestIncCounter(t *testing.T) {
	t.Parallel()

	b, err := NewBackend("orderetl", "http://example.com")
	if err != nil {
		t.Fatalf("NewBackend() error = %v", err)
	}

	b.IncCounter(metrics.StepTotal, 1, metrics.Labels{"job": "orderetl", "step": "load", "status": "success"})
	b.IncCounter(metrics.StepTotal, 1, metrics.Labels{"job": "orderetl", "step": "load", "status": "success"})
	b.IncCounter(metrics.RowsTotal, 7, metrics.Labels{"kind": metrics.RowParsed})
	b.IncCounter(metrics.RowsTotal, 2, metrics.Labels{"kind": metrics.RowParseErrors})
	b.IncCounter(metrics.BatchesTotal, 3, nil)
	b.IncCounter("unknown_total", 100, nil)

	if got := counterValue(t, b.steps.WithLabelValues("load", "success")); got != 2 {
		t.Fatalf("step counter = %v, want 2", got)
	}
	if got := counterValue(t, b.rows.WithLabelValues(metrics.RowParsed)); got != 7 {
		t.Fatalf("parsed rows = %v, want 7", got)
	}
	if got := counterValue(t, b.rows.WithLabelValues(metrics.RowParseErrors)); got != 2 {
		t.Fatalf("parse errors = %v, want 2", got)
	}
	if got := counterValue(t, b.batches); got != 3 {
		t.Fatalf("batches = %v, want 3", got)
	}
}

func TestZeroBackendIsSafe(t *testing.T) {
	t.Parallel()

	b := &Backend{}
	b.IncCounter(metrics.StepTotal, 1, metrics.Labels{"step": "s", "status": "success"})
	b.IncCounter(metrics.RowsTotal, 1, metrics.Labels{"kind": metrics.RowWritten})
	b.IncCounter(metrics.BatchesTotal, 1, nil)
	b.ObserveHistogram(metrics.StepDurationSeconds, 1, nil)
}

func TestObserveHistogram(t *testing.T) {
	t.Parallel()

	b, err := NewBackend("orderetl", "http://example.com")
	if err != nil {
		t.Fatalf("NewBackend() error = %v", err)
	}

	lbls := metrics.Labels{"step": "write", "status": "failure"}
	b.ObserveHistogram(metrics.StepDurationSeconds, 1.5, lbls)
	b.ObserveHistogram(metrics.StepDurationSeconds, 0.5, lbls)
	b.ObserveHistogram("other_seconds", 9, lbls)

	count, sum := histogramCountSum(t, b.durations, "write", "failure")
	if count != 2 || sum != 2 {
		t.Fatalf("histogram count/sum = %d/%v, want 2/2", count, sum)
	}
}

func TestFlush(t *testing.T) {
	t.Parallel()

	type pushed struct {
		method string
		path   string
		body   []byte
	}
	reqCh := make(chan pushed, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		reqCh <- pushed{method: r.Method, path: r.URL.Path, body: body}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	b, err := NewBackend("orderetl-test", srv.URL)
	if err != nil {
		t.Fatalf("NewBackend() error = %v", err)
	}
	b.IncCounter(metrics.RowsTotal, 4, metrics.Labels{"kind": metrics.RowWritten})

	if err := b.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	var got pushed
	select {
	case got = <-reqCh:
	default:
		t.Fatalf("Flush() sent nothing to the Pushgateway")
	}

	if got.method != http.MethodPut {
		t.Fatalf("method = %s, want PUT", got.method)
	}
	if !strings.HasSuffix(got.path, "/metrics/job/orderetl-test") {
		t.Fatalf("path = %s, want job grouping", got.path)
	}
	if !bytes.Contains(got.body, []byte(metrics.RowsTotal)) {
		t.Fatalf("push body does not mention %s", metrics.RowsTotal)
	}
}

func TestFlush_GatewayError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	b, err := NewBackend("orderetl", srv.URL)
	if err != nil {
		t.Fatalf("NewBackend() error = %v", err)
	}
	err = b.Flush()
	if err == nil || !strings.Contains(err.Error(), "prompush: push to") {
		t.Fatalf("Flush() error = %v, want wrapped push error", err)
	}
}

func BenchmarkIncCounterRows(b *testing.B) {
	backend, err := NewBackend("orderetl", "http://example.com")
	if err != nil {
		b.Fatalf("NewBackend() error = %v", err)
	}
	labels := metrics.Labels{"kind": metrics.RowParsed}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		backend.IncCounter(metrics.RowsTotal, 1, labels)
	}
}
