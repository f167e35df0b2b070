// Package metrics provides Prometheus-compatible registries and the request
// instrumentation built on them.
//
// The package supports two modes of operation:
//   - Scrape mode (serve): metrics are registered with a Prometheus registry and exposed via HTTP
//   - Push mode (one-shot CLI commands): metric values are buffered and written to a
//     remote write endpoint when the command finishes
//
// Code that records values only sees the interfaces below, so the same RequestMetrics
// works in both modes.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Gauge holds the latest value written to it.
type Gauge interface {
	Set(float64)
}

// Counter only goes up. Add panics on a negative value.
type Counter interface {
	Inc()
	Add(float64)
}

// GaugeVec is a family of gauges keyed by label values.
// Callers must pass every label named at construction.
type GaugeVec interface {
	With(prometheus.Labels) Gauge
}

// CounterVec is a family of counters keyed by label values.
type CounterVec interface {
	With(prometheus.Labels) Counter
}

// Registry creates metrics. The scrape registry rejects a name registered twice; the
// push registry hands back the same series.
type Registry interface {
	NewGauge(opts prometheus.GaugeOpts) (Gauge, error)
	NewGaugeVec(opts prometheus.GaugeOpts, labels []string) (GaugeVec, error)
	NewCounter(opts prometheus.CounterOpts) (Counter, error)
	NewCounterVec(opts prometheus.CounterOpts, labels []string) (CounterVec, error)
}
