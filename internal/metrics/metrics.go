// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package metrics holds the Prometheus collectors of the execution host.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "countergrid"

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics is a set of collectors registered on their own registry, so
// several engines can live in one process.
type Metrics struct {
	registry *prometheus.Registry

	execTotal    *prometheus.CounterVec
	execDuration *prometheus.HistogramVec
	commitsTotal prometheus.Counter
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		execTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "exec_total", Help: "executions by request kind and outcome"},
			[]string{"kind", "outcome"},
		),
		execDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "exec_duration_seconds",
				Help:      "execution wall time by request kind.",
				Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"kind"},
		),
		commitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{Namespace: namespace, Name: "commits_total", Help: "effect batches committed to global state"},
		),
	}
	m.registry.MustRegister(m.execTotal, m.execDuration, m.commitsTotal)
	return m
}

// ObserveExec records one finished execution.
func (m *Metrics) ObserveExec(kind string, success bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := OutcomeFailure
	if success {
		outcome = OutcomeSuccess
	}
	m.execTotal.WithLabelValues(kind, outcome).Inc()
	m.execDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// ObserveCommit records one committed effect batch.
func (m *Metrics) ObserveCommit() {
	if m == nil {
		return
	}
	m.commitsTotal.Inc()
}

// Registry exposes the underlying registry, e.g. for an HTTP handler or a
// text file export.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the current values in the Prometheus text format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics to %s: %w", path, err)
	}
	return nil
}

// ExecTotal returns the counter for kind and outcome.
func (m *Metrics) ExecTotal(kind, outcome string) prometheus.Counter {
	return m.execTotal.WithLabelValues(kind, outcome)
}

// CommitsTotal returns the commit counter.
func (m *Metrics) CommitsTotal() prometheus.Counter {
	return m.commitsTotal
}
