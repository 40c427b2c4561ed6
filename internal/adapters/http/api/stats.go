package api

import (
	"net/http"
	"time"
)

// StatsProvider reports live service counters (queue depth, pending
// recomputes, stream subscribers, stored events).
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// StatsHandler serves GET /stats.
type StatsHandler struct {
	provider StatsProvider
	started  time.Time
}

// NewStatsHandler creates a stats handler. Uptime is measured from now.
func NewStatsHandler(provider StatsProvider) *StatsHandler {
	return &StatsHandler{provider: provider, started: time.Now()}
}

// HandleStats writes the provider's counters plus process uptime.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, _ *http.Request) {
	src := h.provider.GetStats()
	stats := make(map[string]interface{}, len(src)+1)
	for k, v := range src {
		stats[k] = v
	}
	stats["uptimeSeconds"] = int64(time.Since(h.started).Seconds())

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, stats)
}
