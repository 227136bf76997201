// Package prompush collects pipeline metrics in a private Prometheus registry
// and pushes them to a Pushgateway once, when the run ends.
//
// The job becomes the Pushgateway grouping key; step, status and row kind
// remain metric labels.
package prompush

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"orderetl/internal/metrics"
)

const (
	defaultJob  = "orderetl"
	pushTimeout = 10 * time.Second
)

// stepBuckets span 1ms to roughly 4.5 minutes.
var stepBuckets = prometheus.ExponentialBuckets(0.001, 4, 10)

// Backend implements metrics.Backend on top of a Pushgateway.
type Backend struct {
	url string
	job string
	reg *prometheus.Registry

	steps     *prometheus.CounterVec
	durations *prometheus.HistogramVec
	rows      *prometheus.CounterVec
	batches   prometheus.Counter
}

// NewBackend returns a backend pushing to gatewayURL under job (default
// "orderetl").
func NewBackend(job, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, errors.New("prompush: gateway URL is required")
	}
	if job == "" {
		job = defaultJob
	}

	b := &Backend{
		url: gatewayURL,
		job: job,
		reg: prometheus.NewRegistry(),
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.StepTotal,
			Help: "Pipeline step executions by step and status.",
		}, []string{"step", "status"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    metrics.StepDurationSeconds,
			Help:    "Pipeline step duration in seconds by step and status.",
			Buckets: stepBuckets,
		}, []string{"step", "status"}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.RowsTotal,
			Help: "Rows by kind: parsed, parse_errors, joined, written, write_errors.",
		}, []string{"kind"}),
		batches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metrics.BatchesTotal,
			Help: "Output batches committed by this run.",
		}),
	}

	for _, c := range []prometheus.Collector{b.steps, b.durations, b.rows, b.batches} {
		if err := b.reg.Register(c); err != nil {
			return nil, fmt.Errorf("prompush: register collector: %w", err)
		}
	}
	return b, nil
}

// IncCounter adds delta to the collector named name. Unknown names and a
// zero Backend are no-ops.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch {
	case name == metrics.StepTotal && b.steps != nil:
		b.steps.WithLabelValues(labels["step"], labels["status"]).Add(delta)
	case name == metrics.RowsTotal && b.rows != nil:
		b.rows.WithLabelValues(labels["kind"]).Add(delta)
	case name == metrics.BatchesTotal && b.batches != nil:
		b.batches.Add(delta)
	}
}

// ObserveHistogram records a step duration.
func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name == metrics.StepDurationSeconds && b.durations != nil {
		b.durations.WithLabelValues(labels["step"], labels["status"]).Observe(value)
	}
}

// Flush replaces the job's group on the gateway with the current registry.
func (b *Backend) Flush() error {
	ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
	defer cancel()

	if err := push.New(b.url, b.job).Gatherer(b.reg).PushContext(ctx); err != nil {
		return fmt.Errorf("prompush: push to %s: %w", b.url, err)
	}
	return nil
}
