package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/swaggo/swag"

	"github.com/roadsafety/roadguard/adapters/metrics"
	"github.com/roadsafety/roadguard/app"
	"github.com/roadsafety/roadguard/ports"
)

// RouterConfig wires the router's dependencies.
type RouterConfig struct {
	Gate     *app.Gate
	Accounts *app.AccountService

	AccountStore ports.AccountStore
	Usage        ports.UsageStore
	Accidents    ports.AccidentStore
	Recorder     ports.UsageRecorder
	Clock        ports.Clock

	DB Pinger

	Logger  zerolog.Logger
	Metrics *metrics.Collector

	TrustProxyHeaders bool
	MetricsEnabled    bool
	MetricsPath       string
	DocsEnabled       bool
	RequestTimeout    time.Duration
}

// NewRouter builds the full middleware chain and route table.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	timeout := cfg.RequestTimeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	r.Use(middleware.RequestID)
	r.Use(NewLoggingMiddleware(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))
	if cfg.Metrics != nil {
		r.Use(NewMetricsMiddleware(cfg.Metrics))
	}

	guard := NewGuard(cfg.Gate, cfg.Recorder, cfg.Metrics, cfg.Clock, cfg.TrustProxyHeaders)

	healthHandler := NewHealthHandler(cfg.DB, cfg.AccountStore, cfg.Usage, cfg.Accidents)
	accountHandler := NewAccountHandler(cfg.Accounts)
	usageHandler := NewUsageHandler(cfg.Gate, cfg.Usage, cfg.Clock)
	accidentHandler := NewAccidentHandler(cfg.Accidents)

	// Public surface
	r.Get("/", Index)
	r.Get("/health", healthHandler.Liveness)
	r.Get("/health/live", healthHandler.Liveness)
	r.Get("/health/ready", healthHandler.Readiness)
	r.Get("/version", VersionHandler)

	if cfg.MetricsEnabled {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, promhttp.Handler())
	}

	if cfg.DocsEnabled {
		r.Get("/openapi.json", func(w http.ResponseWriter, r *http.Request) {
			doc, err := swag.ReadDoc()
			if err != nil {
				writeError(w, http.StatusInternalServerError, "Documentation unavailable")
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(doc))
		})
		r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/docs/index.html", http.StatusMovedPermanently)
		})
		r.Get("/docs/*", httpSwagger.Handler(
			httpSwagger.URL("/openapi.json"),
		))
		r.Get("/redoc", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/docs/index.html", http.StatusMovedPermanently)
		})
	}

	// Account surface
	r.Route("/api/users", func(r chi.Router) {
		r.Post("/signup", accountHandler.Signup)
		r.Post("/login", accountHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(guard.RequireKey)
			r.Get("/me", accountHandler.Profile)
			r.Put("/me", accountHandler.UpdateProfile)
			r.Post("/regenerate-key", accountHandler.RegenerateKey)
			r.Get("/usage-stats", accountHandler.UsageStats)
		})
	})

	// Usage introspection
	r.Route("/api/usage", func(r chi.Router) {
		r.Use(guard.RequireKey)
		r.Get("/rate-limit", usageHandler.RateLimit)
		r.Get("/stats", usageHandler.Stats)
	})

	// Guarded dataset. Anonymous callers are admitted on per-IP free
	// tier limits.
	r.Route("/api/accidents", func(r chi.Router) {
		r.Use(guard.OptionalKey)
		r.Get("/", accidentHandler.List)
		r.Get("/stats", accidentHandler.Stats)
	})

	return r
}

// Index describes the service for unauthenticated visitors.
//
//	@Summary		Service index
//	@Tags			System
//	@Produce		json
//	@Success		200	{object}	map[string]string
//	@Router			/ [get]
func Index(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "roadguard",
		"docs":    "/docs",
		"health":  "/health",
	})
}
