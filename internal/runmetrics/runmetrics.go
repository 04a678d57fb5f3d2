// Package runmetrics counts what one run did and writes it in the
// node_exporter textfile format.
package runmetrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// FileName is the metrics file written into each run directory.
const FileName = "metrics.prom"

const namespace = "naxos_reconcile"

// Metrics holds the counters for one run. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// rowsTotal counts normalized rows per source and result (ok, malformed).
	rowsTotal *prometheus.CounterVec

	// outcomesTotal counts reconciliation rows per outcome.
	outcomesTotal *prometheus.CounterVec

	// lookupsTotal counts metadata lookups per resolution shape, or "error".
	lookupsTotal *prometheus.CounterVec

	// probesTotal counts URL probes per link status, or "error".
	probesTotal *prometheus.CounterVec
}

// New creates the counters on a fresh registry labelled with the command and run id.
func New(command, runID string) *Metrics {
	labels := prometheus.Labels{"command": command, "run_id": runID}
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		rowsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "rows_total",
			Help:        "Source rows normalized, by source and result",
			ConstLabels: labels,
		}, []string{"source", "result"}),
		outcomesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "outcomes_total",
			Help:        "Reconciled rows by outcome",
			ConstLabels: labels,
		}, []string{"outcome"}),
		lookupsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "lookups_total",
			Help:        "WorldCat lookups by resolution shape",
			ConstLabels: labels,
		}, []string{"shape"}),
		probesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "probes_total",
			Help:        "URL probes by link status",
			ConstLabels: labels,
		}, []string{"status"}),
	}
	m.registry.MustRegister(m.rowsTotal, m.outcomesTotal, m.lookupsTotal, m.probesTotal)
	return m
}

func (m *Metrics) Rows(source string, ok, malformed int) {
	if m == nil {
		return
	}
	m.rowsTotal.WithLabelValues(source, "ok").Add(float64(ok))
	m.rowsTotal.WithLabelValues(source, "malformed").Add(float64(malformed))
}

func (m *Metrics) Outcome(outcome string, n int) {
	if m == nil {
		return
	}
	m.outcomesTotal.WithLabelValues(outcome).Add(float64(n))
}

func (m *Metrics) Lookup(shape string) {
	if m == nil {
		return
	}
	m.lookupsTotal.WithLabelValues(shape).Inc()
}

func (m *Metrics) Probe(status string) {
	if m == nil {
		return
	}
	m.probesTotal.WithLabelValues(status).Inc()
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteFile writes every counter to path atomically.
func (m *Metrics) WriteFile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}
