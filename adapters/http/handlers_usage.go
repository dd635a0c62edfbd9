package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/roadsafety/roadguard/app"
	"github.com/roadsafety/roadguard/ports"
)

// UsageHandler serves rate limit introspection and aggregate usage.
type UsageHandler struct {
	gate  *app.Gate
	store ports.UsageStore
	clock ports.Clock
}

// NewUsageHandler creates a new usage handler.
func NewUsageHandler(gate *app.Gate, store ports.UsageStore, clock ports.Clock) *UsageHandler {
	return &UsageHandler{gate: gate, store: store, clock: clock}
}

// rateLimitResponse reports the caller's current window. Limit and
// remaining are strings so the unlimited tier can render as "unlimited".
type rateLimitResponse struct {
	Tier           string    `json:"tier"`
	Limit          string    `json:"limit"`
	Remaining      string    `json:"remaining"`
	ResetAt        time.Time `json:"reset_at"`
	ResetInSeconds int       `json:"reset_in_seconds"`
}

// RateLimit reports the caller's window state without consuming from it.
//
//	@Summary		Current rate limit state
//	@Tags			Usage
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Success		200	{object}	rateLimitResponse
//	@Failure		401	{object}	errorResponse
//	@Router			/api/usage/rate-limit [get]
func (h *UsageHandler) RateLimit(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "API key required")
		return
	}

	status, err := h.gate.Status(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	writeJSON(w, http.StatusOK, rateLimitResponse{
		Tier:           string(status.Tier),
		Limit:          app.FormatLimit(status.Limit),
		Remaining:      app.FormatRemaining(status.Remaining),
		ResetAt:        status.ResetAt.UTC(),
		ResetInSeconds: status.ResetInSeconds,
	})
}

// statsResponse is an aggregate over the queried period.
type statsResponse struct {
	TotalRequests   int64   `json:"total_requests"`
	UniqueEndpoints int64   `json:"unique_endpoints"`
	AvgLatencyMs    float64 `json:"avg_latency_ms"`
	ErrorCount      int64   `json:"error_count"`
	PeriodHours     int     `json:"period_hours"`
}

const (
	defaultStatsHours = 24
	maxStatsHours     = 720
)

// Stats returns aggregate usage over a trailing period. Most callers see
// their own traffic; the unlimited tier sees all traffic.
//
//	@Summary		Aggregate usage statistics
//	@Tags			Usage
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			hours	query		int	false	"Trailing period in hours (default 24, max 720)"
//	@Success		200		{object}	statsResponse
//	@Failure		401		{object}	errorResponse
//	@Router			/api/usage/stats [get]
func (h *UsageHandler) Stats(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "API key required")
		return
	}

	hours := defaultStatsHours
	if v := r.URL.Query().Get("hours"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "hours must be a positive integer")
			return
		}
		hours = n
	}
	if hours > maxStatsHours {
		hours = maxStatsHours
	}

	filterKey := id.Key
	if id.Tier.IsUnlimited() {
		filterKey = ""
	}

	stats, err := h.store.Stats(r.Context(), filterKey, hours, h.clock.Now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	writeJSON(w, http.StatusOK, statsResponse{
		TotalRequests:   stats.TotalRequests,
		UniqueEndpoints: stats.UniqueEndpoints,
		AvgLatencyMs:    stats.AvgLatencyMs,
		ErrorCount:      stats.ErrorCount,
		PeriodHours:     stats.PeriodHours,
	})
}
