package monitor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/phrazzld/tasktalk-api/internal/cache"
)

// CacheStatsFunc reports the current cache counters.
type CacheStatsFunc func() cache.Stats

// Reporter periodically logs every operation's stats, the advisor findings
// and the cache counters.
type Reporter struct {
	monitor    *Monitor
	cacheStats CacheStatsFunc
	logger     *slog.Logger
	cron       *cron.Cron
}

// NewReporter schedules a report on the given cron spec, e.g. "@every 5m".
// cacheStats may be nil.
func NewReporter(schedule string, m *Monitor, cacheStats CacheStatsFunc, logger *slog.Logger) (*Reporter, error) {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Reporter{
		monitor:    m,
		cacheStats: cacheStats,
		logger:     logger.With("component", "performance_reporter"),
		cron:       cron.New(),
	}
	if _, err := r.cron.AddFunc(schedule, r.Report); err != nil {
		return nil, fmt.Errorf("invalid report schedule %q: %w", schedule, err)
	}
	return r, nil
}

// Start begins the schedule in the background.
func (r *Reporter) Start() {
	r.cron.Start()
}

// Stop halts the schedule and waits for a running report until ctx is done.
func (r *Reporter) Stop(ctx context.Context) error {
	done := r.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Report logs a single snapshot.
func (r *Reporter) Report() {
	stats := r.monitor.AllStats()
	for op, s := range stats {
		r.logger.Info("operation stats",
			slog.String("operation", op),
			slog.Int("count", s.Count),
			slog.Float64("avg_ms", s.AvgMS),
			slog.Float64("p95_ms", s.P95MS),
			slog.Float64("p99_ms", s.P99MS),
			slog.Float64("max_ms", s.MaxMS))
	}
	for _, rec := range Advise(stats) {
		r.logger.Warn("performance recommendation",
			slog.String("operation", rec.Operation),
			slog.String("issue", rec.Issue),
			slog.String("detail", rec.Detail))
	}
	if r.cacheStats != nil {
		cs := r.cacheStats()
		r.logger.Info("cache stats",
			slog.Int("size", cs.Size),
			slog.Int("capacity", cs.Capacity),
			slog.Uint64("hits", cs.Hits),
			slog.Uint64("misses", cs.Misses),
			slog.Float64("hit_rate", cs.HitRate))
	}
}
