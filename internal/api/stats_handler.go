package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"slices"

	"github.com/phrazzld/tasktalk-api/internal/api/shared"
	"github.com/phrazzld/tasktalk-api/internal/cache"
	"github.com/phrazzld/tasktalk-api/internal/monitor"
	"github.com/phrazzld/tasktalk-api/internal/platform/logger"
	"github.com/phrazzld/tasktalk-api/internal/service/auth"
)

// StatsResponse is the body of GET /api/stats.
type StatsResponse struct {
	Cache           cache.Stats              `json:"cache"`
	Operations      map[string]monitor.Stats `json:"operations"`
	Recommendations []monitor.Recommendation `json:"recommendations"`
}

// StatsHandler serves cache and latency statistics. Reading is open to any
// authenticated principal; clearing the shared cache is limited to admins.
type StatsHandler struct {
	cache   *cache.Cache
	monitor *monitor.Monitor
	admins  []int64
	logger  *slog.Logger
}

// NewStatsHandler creates a StatsHandler. With no admins the cache cannot be
// cleared over HTTP.
func NewStatsHandler(c *cache.Cache, m *monitor.Monitor, admins []int64, logger *slog.Logger) *StatsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatsHandler{
		cache:   c,
		monitor: m,
		admins:  slices.Clone(admins),
		logger:  logger.With(slog.String("component", "stats_handler")),
	}
}

// GetStats handles GET /api/stats.
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ops := h.monitor.AllStats()
	recs := monitor.Advise(ops)
	if recs == nil {
		recs = []monitor.Recommendation{}
	}
	shared.RespondWithJSON(w, r, http.StatusOK, StatsResponse{
		Cache:           h.cache.Stats(),
		Operations:      ops,
		Recommendations: recs,
	})
}

// ClearCache handles DELETE /api/stats/cache.
func (h *StatsHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	principal, _ := shared.PrincipalID(r.Context())
	if !slices.Contains(h.admins, principal) {
		shared.RespondWithError(w, r, fmt.Errorf("%w: principal %d may not clear the cache", auth.ErrForbidden, principal))
		return
	}
	h.cache.Clear()
	logger.FromContextOrDefault(r.Context(), h.logger).Info("response cache cleared",
		slog.Int64("principal_id", principal))
	shared.RespondWithJSON(w, r, http.StatusOK, h.cache.Stats())
}
