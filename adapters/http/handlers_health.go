package http

import (
	"context"
	"net/http"
	"time"

	"github.com/roadsafety/roadguard/ports"
)

// Pinger checks database connectivity.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler provides liveness and readiness endpoints.
type HealthHandler struct {
	db        Pinger
	accounts  ports.AccountStore
	usage     ports.UsageStore
	accidents ports.AccidentStore
}

// NewHealthHandler creates a new health handler. Stores may be nil; the
// readiness report then omits their counts.
func NewHealthHandler(db Pinger, accounts ports.AccountStore, usage ports.UsageStore, accidents ports.AccidentStore) *HealthHandler {
	return &HealthHandler{db: db, accounts: accounts, usage: usage, accidents: accidents}
}

// Liveness returns a simple liveness check.
//
//	@Summary		Liveness check
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	map[string]string	"status: ok"
//	@Router			/health [get]
//	@Router			/health/live [get]
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readiness checks database connectivity and reports row counts.
//
//	@Summary		Readiness check
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	map[string]interface{}	"status: ok plus row counts"
//	@Failure		503	{object}	map[string]interface{}	"status: unhealthy, error: message"
//	@Router			/health/ready [get]
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if h.db != nil {
		if err := h.db.PingContext(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
			})
			return
		}
	}

	resp := map[string]interface{}{"status": "ok"}
	if h.accounts != nil {
		if n, err := h.accounts.Count(ctx); err == nil {
			resp["accounts"] = n
		}
	}
	if h.usage != nil {
		if n, err := h.usage.Count(ctx); err == nil {
			resp["usage_records"] = n
		}
	}
	if h.accidents != nil {
		if n, err := h.accidents.Count(ctx); err == nil {
			resp["accidents"] = n
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// versionResponse reports build information.
type versionResponse struct {
	Version string `json:"version"`
	Service string `json:"service"`
}

// BuildVersion is set at build time via -ldflags.
var BuildVersion = "dev"

// VersionHandler returns the service version.
//
//	@Summary		Get service version
//	@Tags			System
//	@Produce		json
//	@Success		200	{object}	versionResponse
//	@Router			/version [get]
func VersionHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, versionResponse{
		Version: BuildVersion,
		Service: "roadguard",
	})
}
