package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/arabah/arabah/request"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	labelOperation = "operation"
	labelState     = "state"
	labelAttempt   = "attempt"
)

// RequestMetrics records orchestrator transitions and retries. It implements
// request.Recorder and works with either registry.
type RequestMetrics struct {
	transitions CounterVec
	retries     CounterVec
	exhausted   CounterVec
	inFlight    GaugeVec
	completions Counter
	lastDone    Gauge
	now         func() time.Time
}

var _ request.Recorder = (*RequestMetrics)(nil)

// NewRequestMetrics registers the request metrics with reg.
func NewRequestMetrics(reg Registry) (*RequestMetrics, error) {
	transitions, err := reg.NewCounterVec(prometheus.CounterOpts{
		Name: "requests_total",
		Help: "State transitions per operation, labelled with the state entered.",
	}, []string{labelOperation, labelState})
	if err != nil {
		return nil, fmt.Errorf("creating requests_total: %w", err)
	}

	retries, err := reg.NewCounterVec(prometheus.CounterOpts{
		Name: "retries_total",
		Help: "Retries that re-issued a request, labelled with the attempt number.",
	}, []string{labelOperation, labelAttempt})
	if err != nil {
		return nil, fmt.Errorf("creating retries_total: %w", err)
	}

	exhausted, err := reg.NewCounterVec(prometheus.CounterOpts{
		Name: "retries_exhausted_total",
		Help: "Retries rejected because the attempt limit was reached.",
	}, []string{labelOperation})
	if err != nil {
		return nil, fmt.Errorf("creating retries_exhausted_total: %w", err)
	}

	inFlight, err := reg.NewGaugeVec(prometheus.GaugeOpts{
		Name: "in_flight",
		Help: "1 while an operation is loading, 0 otherwise.",
	}, []string{labelOperation})
	if err != nil {
		return nil, fmt.Errorf("creating in_flight: %w", err)
	}

	completions, err := reg.NewCounter(prometheus.CounterOpts{
		Name: "completions_total",
		Help: "Requests that reached a terminal state, across all operations.",
	})
	if err != nil {
		return nil, fmt.Errorf("creating completions_total: %w", err)
	}

	lastDone, err := reg.NewGauge(prometheus.GaugeOpts{
		Name: "last_completion_timestamp_seconds",
		Help: "Unix time the most recent request reached a terminal state.",
	})
	if err != nil {
		return nil, fmt.Errorf("creating last_completion_timestamp_seconds: %w", err)
	}

	return &RequestMetrics{
		transitions: transitions,
		retries:     retries,
		exhausted:   exhausted,
		inFlight:    inFlight,
		completions: completions,
		lastDone:    lastDone,
		now:         time.Now,
	}, nil
}

// RecordTransition counts the transition and tracks whether the operation is loading.
func (m *RequestMetrics) RecordTransition(operation string, kind request.StateKind) {
	m.transitions.With(prometheus.Labels{labelOperation: operation, labelState: kind.String()}).Inc()

	gauge := m.inFlight.With(prometheus.Labels{labelOperation: operation})
	switch {
	case kind == request.Loading:
		gauge.Set(1)
	case kind.IsTerminal():
		gauge.Set(0)
		m.completions.Inc()
		m.lastDone.Set(float64(m.now().Unix()))
	}
}

func (m *RequestMetrics) RecordRetry(operation string, attempt int) {
	m.retries.With(prometheus.Labels{labelOperation: operation, labelAttempt: strconv.Itoa(attempt)}).Inc()
}

func (m *RequestMetrics) RecordRetryExhausted(operation string) {
	m.exhausted.With(prometheus.Labels{labelOperation: operation}).Inc()
}
