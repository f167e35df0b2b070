package metrics

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"maps"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/golang/protobuf/proto"
	"github.com/golang/snappy"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/prometheus/prompb"
)

const (
	// DefaultTimeout is the default timeout for HTTP requests
	DefaultTimeout = 30 * time.Second

	writePath = "/api/v1/write"
)

// PushRegistry implements Registry for push-based metrics collection.
// Values are held in memory and written to a VictoriaMetrics/Prometheus remote
// write endpoint by Push, so recording never blocks on the network.
type PushRegistry struct {
	url        string
	httpClient *http.Client
	prefix     string
	job        string
	instance   string
	now        func() time.Time

	mu     sync.Mutex
	series map[string]*series
}

// PushConfig configures a PushRegistry.
type PushConfig struct {
	// URL is the base URL of the remote write endpoint (e.g., "http://localhost:8428").
	URL string
	// Prefix is the metric name prefix. All metric names will be prefixed with this value
	// followed by an underscore.
	Prefix string
	// Job is the job label for all metrics.
	Job string
	// Instance is the instance label for all metrics.
	Instance string
	// Timeout is the HTTP client timeout. Defaults to DefaultTimeout.
	Timeout time.Duration
}

// series is one name+labels combination and its current value.
type series struct {
	name   string
	labels map[string]string
	value  float64
}

// NewPushRegistry creates a new PushRegistry that pushes metrics to the given URL.
func NewPushRegistry(cfg PushConfig) *PushRegistry {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	return &PushRegistry{
		url:        strings.TrimSuffix(cfg.URL, "/") + writePath,
		httpClient: &http.Client{Timeout: timeout},
		prefix:     cfg.Prefix,
		job:        cfg.Job,
		instance:   cfg.Instance,
		now:        time.Now,
		series:     make(map[string]*series),
	}
}

// NewGauge creates a new push-based Gauge.
func (r *PushRegistry) NewGauge(opts prometheus.GaugeOpts) (Gauge, error) {
	if opts.Name == "" {
		return nil, fmt.Errorf("gauge name is required")
	}
	return &pushGauge{registry: r, series: r.lookup(opts.Name, nil)}, nil
}

// NewGaugeVec creates a new push-based GaugeVec.
func (r *PushRegistry) NewGaugeVec(opts prometheus.GaugeOpts, labels []string) (GaugeVec, error) {
	if opts.Name == "" {
		return nil, fmt.Errorf("gauge vec name is required")
	}
	return &pushGaugeVec{registry: r, name: opts.Name, labels: labels}, nil
}

// NewCounter creates a new push-based Counter.
func (r *PushRegistry) NewCounter(opts prometheus.CounterOpts) (Counter, error) {
	if opts.Name == "" {
		return nil, fmt.Errorf("counter name is required")
	}
	return &pushCounter{registry: r, series: r.lookup(opts.Name, nil)}, nil
}

// NewCounterVec creates a new push-based CounterVec.
func (r *PushRegistry) NewCounterVec(opts prometheus.CounterOpts, labels []string) (CounterVec, error) {
	if opts.Name == "" {
		return nil, fmt.Errorf("counter vec name is required")
	}
	return &pushCounterVec{registry: r, name: opts.Name, labels: labels}, nil
}

// Push writes the current value of every series in a single remote write request.
// It is a no-op when nothing has been recorded.
func (r *PushRegistry) Push(ctx context.Context) error {
	timeseries := r.timeseries()
	if len(timeseries) == 0 {
		return nil
	}

	data, err := proto.Marshal(&prompb.WriteRequest{Timeseries: timeseries})
	if err != nil {
		return fmt.Errorf("marshaling write request: %w", err)
	}

	compressed := snappy.Encode(nil, data)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(compressed))
	if err != nil {
		return fmt.Errorf("creating HTTP request: %w", err)
	}

	httpReq.Header.Set("Content-Encoding", "snappy")
	httpReq.Header.Set("Content-Type", "application/x-protobuf")
	httpReq.Header.Set("X-Prometheus-Remote-Write-Version", "0.1.0")

	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

// lookup returns the series for name and labels, creating it on first use.
func (r *PushRegistry) lookup(name string, labels map[string]string) *series {
	key := seriesKey(name, labels)

	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.series[key]; ok {
		return s
	}
	s := &series{name: name, labels: maps.Clone(labels)}
	r.series[key] = s
	return s
}

func (r *PushRegistry) set(s *series, v float64) {
	r.mu.Lock()
	s.value = v
	r.mu.Unlock()
}

func (r *PushRegistry) add(s *series, v float64) {
	if v < 0 {
		panic("counter cannot decrease in value")
	}
	r.mu.Lock()
	s.value += v
	r.mu.Unlock()
}

// timeseries converts the buffered series to remote write format, sorted by key.
func (r *PushRegistry) timeseries() []prompb.TimeSeries {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := make([]string, 0, len(r.series))
	for k := range r.series {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	timestamp := r.now().UnixMilli()
	out := make([]prompb.TimeSeries, 0, len(keys))
	for _, k := range keys {
		s := r.series[k]
		out = append(out, r.metricToTimeSeries(s.name, s.value, s.labels, timestamp))
	}
	return out
}

// metricToTimeSeries converts a metric to Prometheus TimeSeries format.
func (r *PushRegistry) metricToTimeSeries(name string, value float64, labels map[string]string, timestamp int64) prompb.TimeSeries {
	promLabels := make([]prompb.Label, 0, len(labels)+3)

	metricName := name
	if r.prefix != "" {
		metricName = r.prefix + "_" + name
	}
	promLabels = append(promLabels, prompb.Label{
		Name:  "__name__",
		Value: metricName,
	})

	if r.job != "" {
		promLabels = append(promLabels, prompb.Label{
			Name:  "job",
			Value: r.job,
		})
	}
	if r.instance != "" {
		promLabels = append(promLabels, prompb.Label{
			Name:  "instance",
			Value: r.instance,
		})
	}

	for _, k := range sortedKeys(labels) {
		promLabels = append(promLabels, prompb.Label{
			Name:  k,
			Value: labels[k],
		})
	}

	return prompb.TimeSeries{
		Labels: promLabels,
		Samples: []prompb.Sample{{
			Value:     value,
			Timestamp: timestamp,
		}},
	}
}

// pushGauge implements Gauge for push mode.
type pushGauge struct {
	registry *PushRegistry
	series   *series
}

func (g *pushGauge) Set(v float64) {
	g.registry.set(g.series, v)
}

// pushGaugeVec implements GaugeVec for push mode.
type pushGaugeVec struct {
	registry *PushRegistry
	name     string
	labels   []string
}

func (g *pushGaugeVec) With(labels prometheus.Labels) Gauge {
	return &pushGauge{registry: g.registry, series: g.registry.lookup(g.name, labels)}
}

// pushCounter implements Counter for push mode.
type pushCounter struct {
	registry *PushRegistry
	series   *series
}

func (c *pushCounter) Inc() {
	c.Add(1)
}

func (c *pushCounter) Add(v float64) {
	c.registry.add(c.series, v)
}

// pushCounterVec implements CounterVec for push mode.
type pushCounterVec struct {
	registry *PushRegistry
	name     string
	labels   []string
}

func (c *pushCounterVec) With(labels prometheus.Labels) Counter {
	return &pushCounter{registry: c.registry, series: c.registry.lookup(c.name, labels)}
}

// seriesKey creates a stable string key from a name and its labels.
func seriesKey(name string, labels map[string]string) string {
	var b strings.Builder
	b.WriteString(name)
	for _, k := range sortedKeys(labels) {
		b.WriteString(",")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(labels[k])
	}
	return b.String()
}

func sortedKeys(labels map[string]string) []string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
