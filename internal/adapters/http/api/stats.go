package api

import "net/http"

// StatsProvider defines the interface for getting service statistics.
type StatsProvider interface {
	GetStats() map[string]any
}

// StatsHandler handles stats requests.
type StatsHandler struct {
	statsProvider StatsProvider
	extra         map[string]func() any
}

// NewStatsHandler creates a new stats handler. Each extra source is reported under its key.
func NewStatsHandler(statsProvider StatsProvider, extra map[string]func() any) *StatsHandler {
	return &StatsHandler{statsProvider: statsProvider, extra: extra}
}

// HandleStats handles GET /stats requests.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, _ *http.Request) {
	stats := h.statsProvider.GetStats()
	for k, fn := range h.extra {
		stats[k] = fn()
	}
	writeJSON(w, http.StatusOK, stats)
}
