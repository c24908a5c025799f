package monitor

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Defaults applied when a constructor argument is not positive.
const (
	DefaultWindowSize    = 1000
	DefaultSlowThreshold = 1000 * time.Millisecond
)

// Stats summarises the retained samples of one operation. Durations are in
// milliseconds.
type Stats struct {
	Operation  string    `json:"operation"`
	Count      int       `json:"count"`
	MinMS      float64   `json:"min_ms"`
	MaxMS      float64   `json:"max_ms"`
	AvgMS      float64   `json:"avg_ms"`
	P95MS      float64   `json:"p95_ms"`
	P99MS      float64   `json:"p99_ms"`
	LastSample time.Time `json:"last_sample"`
}

// Monitor is safe for concurrent use.
type Monitor struct {
	mu            sync.Mutex
	rings         map[string]*ring
	window        int
	slowThreshold time.Duration
	now           func() time.Time
	logger        *slog.Logger
	histogram     metric.Float64Histogram
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithClock replaces time.Now for sample timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

// WithMeter mirrors every recorded sample into a histogram created on meter.
func WithMeter(meter metric.Meter) Option {
	return func(m *Monitor) {
		h, err := meter.Float64Histogram("tasktalk.operation.duration",
			metric.WithDescription("Duration of timed operations in milliseconds"),
			metric.WithUnit("ms"),
		)
		if err != nil {
			m.logger.Warn("failed to create duration histogram", slog.String("error", err.Error()))
			return
		}
		m.histogram = h
	}
}

// New creates a Monitor retaining window samples per operation.
func New(window int, slowThreshold time.Duration, logger *slog.Logger, opts ...Option) *Monitor {
	if window <= 0 {
		window = DefaultWindowSize
	}
	if slowThreshold <= 0 {
		slowThreshold = DefaultSlowThreshold
	}
	if logger == nil {
		logger = slog.Default()
	}
	m := &Monitor{
		rings:         make(map[string]*ring),
		window:        window,
		slowThreshold: slowThreshold,
		now:           time.Now,
		logger:        logger.With("component", "performance_monitor"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Record adds one sample for op. Calls slower than the threshold are logged
// at WARN.
func (m *Monitor) Record(ctx context.Context, op string, d time.Duration) {
	ms := float64(d) / float64(time.Millisecond)

	m.mu.Lock()
	r, ok := m.rings[op]
	if !ok {
		r = newRing(m.window)
		m.rings[op] = r
	}
	r.push(sample{durationMS: ms, at: m.now()})
	m.mu.Unlock()

	if m.histogram != nil {
		m.histogram.Record(ctx, ms, metric.WithAttributes(attribute.String("operation", op)))
	}

	if d > m.slowThreshold {
		m.logger.WarnContext(ctx, "slow operation",
			slog.String("operation", op),
			slog.Float64("duration_ms", ms),
			slog.Float64("threshold_ms", float64(m.slowThreshold)/float64(time.Millisecond)))
		return
	}
	m.logger.DebugContext(ctx, "operation timed",
		slog.String("operation", op),
		slog.Float64("duration_ms", ms))
}

// Time runs fn and records its duration under op whether or not it fails.
func (m *Monitor) Time(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	start := time.Now()
	defer func() { m.Record(ctx, op, time.Since(start)) }()
	return fn(ctx)
}

// Stats returns the summary for op. The second return is false when op has
// no samples.
func (m *Monitor) Stats(op string) (Stats, bool) {
	m.mu.Lock()
	r, ok := m.rings[op]
	if !ok || r.size == 0 {
		m.mu.Unlock()
		return Stats{}, false
	}
	durations := r.durations()
	last, _ := r.last()
	m.mu.Unlock()

	s := summarize(durations)
	s.Operation = op
	s.LastSample = last.at
	return s, true
}

// AllStats returns a summary for every operation with samples.
func (m *Monitor) AllStats() map[string]Stats {
	m.mu.Lock()
	ops := make([]string, 0, len(m.rings))
	for op := range m.rings {
		ops = append(ops, op)
	}
	m.mu.Unlock()

	out := make(map[string]Stats, len(ops))
	for _, op := range ops {
		if s, ok := m.Stats(op); ok {
			out[op] = s
		}
	}
	return out
}

// Reset drops every sample.
func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rings = make(map[string]*ring)
}

// summarize sorts durations in place. len(durations) must be > 0.
func summarize(durations []float64) Stats {
	sort.Float64s(durations)
	n := len(durations)

	var sum float64
	for _, d := range durations {
		sum += d
	}
	return Stats{
		Count: n,
		MinMS: durations[0],
		MaxMS: durations[n-1],
		AvgMS: sum / float64(n),
		P95MS: durations[percentileIndex(n, 0.95)],
		P99MS: durations[percentileIndex(n, 0.99)],
	}
}

// percentileIndex returns floor(p*n), clamped to the last index.
func percentileIndex(n int, p float64) int {
	i := int(math.Floor(p * float64(n)))
	if i >= n {
		i = n - 1
	}
	return i
}
