// Package http provides the HTTP surface of the gateway: the router,
// the admission middleware, and the API handlers.
package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/roadsafety/roadguard/adapters/metrics"
	"github.com/roadsafety/roadguard/app"
	"github.com/roadsafety/roadguard/domain/identity"
	"github.com/roadsafety/roadguard/domain/usage"
	"github.com/roadsafety/roadguard/ports"
)

// DashboardHeader marks internal dashboard traffic that reports limits
// without consuming them and is excluded from usage accounting.
const DashboardHeader = "X-Dashboard"

type ctxKey int

const identityKey ctxKey = 0

// IdentityFrom returns the identity the guard attached to the request.
func IdentityFrom(ctx context.Context) (identity.Identity, bool) {
	id, ok := ctx.Value(identityKey).(identity.Identity)
	return id, ok
}

// Guard wraps routes with API key admission and usage accounting.
type Guard struct {
	gate       *app.Gate
	recorder   ports.UsageRecorder
	metrics    *metrics.Collector
	clock      ports.Clock
	trustProxy bool
}

// NewGuard creates the admission middleware.
func NewGuard(gate *app.Gate, recorder ports.UsageRecorder, m *metrics.Collector, clock ports.Clock, trustProxy bool) *Guard {
	return &Guard{
		gate:       gate,
		recorder:   recorder,
		metrics:    m,
		clock:      clock,
		trustProxy: trustProxy,
	}
}

// RequireKey admits only requests carrying a valid API key.
func (g *Guard) RequireKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey := ExtractAPIKey(r)
		dashboard := r.Header.Get(DashboardHeader) == "true"

		d := g.gate.Authenticate(r.Context(), apiKey, g.clientIP(r), dashboard)
		g.serve(w, r, next, d, apiKey)
	})
}

// OptionalKey admits requests with or without a key. Anonymous callers
// are rate limited per client address on the free tier.
func (g *Guard) OptionalKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey := ExtractAPIKey(r)

		d := g.gate.OptionalAuthenticate(r.Context(), apiKey, g.clientIP(r))
		if d.Identity.Key != apiKey {
			// The presented key did not resolve; the gate fell back to
			// an anonymous identity.
			apiKey = ""
		}
		g.serve(w, r, next, d, apiKey)
	})
}

// serve applies a gate decision: deny with the right status and headers,
// or run the handler and account for the request.
func (g *Guard) serve(w http.ResponseWriter, r *http.Request, next http.Handler, d app.Decision, apiKey string) {
	writeRateLimitHeaders(w, d)

	if !d.Allowed {
		if g.metrics != nil {
			switch d.Status {
			case http.StatusUnauthorized:
				g.metrics.AuthFailures.WithLabelValues(d.Reason).Inc()
			case http.StatusTooManyRequests:
				g.metrics.RateLimitHits.WithLabelValues(string(d.Identity.Tier)).Inc()
			}
		}
		if d.WWWAuthenticate != "" {
			w.Header().Set("WWW-Authenticate", d.WWWAuthenticate)
		}
		if d.RetryAfter > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(d.RetryAfter))
		}
		writeError(w, d.Status, d.Detail)
		return
	}

	start := g.clock.Now()
	ctx := context.WithValue(r.Context(), identityKey, d.Identity)
	ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

	next.ServeHTTP(ww, r.WithContext(ctx))

	if g.metrics != nil {
		g.metrics.RequestsTotal.WithLabelValues(
			r.Method,
			metrics.NormalizePath(r.URL.Path),
			statusLabel(ww.Status()),
			string(d.Identity.Tier),
		).Inc()
	}

	if d.Dashboard || g.recorder == nil {
		return
	}
	latency := g.clock.Now().Sub(start).Milliseconds()
	g.recorder.Record(usage.NewRecord(
		apiKey,
		r.URL.Path,
		r.Method,
		responseStatus(ww),
		latency,
		g.clientIP(r),
		d.Identity.UserID,
		start,
	))
}

// responseStatus returns the written status, defaulting to 200 when the
// handler never called WriteHeader.
func responseStatus(ww middleware.WrapResponseWriter) int {
	if ww.Status() == 0 {
		return http.StatusOK
	}
	return ww.Status()
}

// ExtractAPIKey extracts the API key from the request. The X-API-Key
// header wins over the api_key query parameter.
func ExtractAPIKey(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	return r.URL.Query().Get("api_key")
}

// clientIP extracts the client address. Proxy headers are only believed
// when the server is configured to trust them.
func (g *Guard) clientIP(r *http.Request) string {
	if g.trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			parts := strings.Split(xff, ",")
			return strings.TrimSpace(parts[0])
		}
		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			return xri
		}
	}

	addr := r.RemoteAddr
	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		return addr[:idx]
	}
	return addr
}

// writeRateLimitHeaders writes the standard limit headers when the
// decision carries window state.
func writeRateLimitHeaders(w http.ResponseWriter, d app.Decision) {
	if !d.RateLimitHeaders() {
		return
	}
	w.Header().Set("X-RateLimit-Limit", app.FormatLimit(d.Limit))
	w.Header().Set("X-RateLimit-Remaining", app.FormatRemaining(d.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))
}

// errorResponse is the JSON error envelope.
type errorResponse struct {
	Detail string `json:"detail"`
}

func writeError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Detail: detail})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// NewLoggingMiddleware logs HTTP requests.
func NewLoggingMiddleware(logger zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			// Skip logging for health checks and metrics
			if strings.HasPrefix(r.URL.Path, "/health") || r.URL.Path == "/metrics" {
				return
			}

			logger.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("http request")
		})
	}
}

// NewMetricsMiddleware records request duration and in-flight count.
func NewMetricsMiddleware(m *metrics.Collector) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Skip metrics for internal endpoints
			if strings.HasPrefix(r.URL.Path, "/health") || r.URL.Path == "/metrics" ||
				strings.HasPrefix(r.URL.Path, "/docs") {
				next.ServeHTTP(w, r)
				return
			}

			m.RequestsInFlight.Inc()
			defer m.RequestsInFlight.Dec()

			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			m.RequestDuration.WithLabelValues(
				r.Method,
				metrics.NormalizePath(r.URL.Path),
				statusLabel(ww.Status()),
			).Observe(time.Since(start).Seconds())
		})
	}
}

// statusLabel returns a string label for the status code.
func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200, status == 0:
		return "2xx"
	default:
		return "other"
	}
}
