// Package metrics provides Prometheus metrics collection for RoadGuard.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds all Prometheus metrics for RoadGuard.
type Collector struct {
	// Request metrics
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	// Auth metrics
	AuthFailures *prometheus.CounterVec
	KeyCacheHits   prometheus.Counter
	KeyCacheMisses prometheus.Counter

	// Rate limit metrics
	RateLimitHits *prometheus.CounterVec

	// Usage recorder metrics
	UsageFlushes      prometheus.Counter
	UsageFlushErrors  prometheus.Counter
	UsageRecordsFlushed prometheus.Counter
	UsageQueueDepth   prometheus.Gauge

	// Config metrics
	ConfigReloads      prometheus.Counter
	ConfigReloadErrors prometheus.Counter
	ConfigLastReload   prometheus.Gauge
}

// New creates a new metrics collector registered on the default registry.
func New() *Collector {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a new metrics collector with a custom registry.
// Useful for testing to avoid global state.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "roadguard",
				Name:      "requests_total",
				Help:      "Total number of requests processed",
			},
			[]string{"method", "path", "status", "tier"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "roadguard",
				Name:      "request_duration_seconds",
				Help:      "Request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path", "status"},
		),
		RequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "roadguard",
				Name:      "requests_in_flight",
				Help:      "Number of requests currently being processed",
			},
		),
		AuthFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "roadguard",
				Name:      "auth_failures_total",
				Help:      "Total number of authentication failures",
			},
			[]string{"reason"},
		),
		KeyCacheHits: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "roadguard",
				Name:      "key_cache_hits_total",
				Help:      "Total key resolutions served from the cache",
			},
		),
		KeyCacheMisses: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "roadguard",
				Name:      "key_cache_misses_total",
				Help:      "Total key resolutions that fell through to the database",
			},
		),
		RateLimitHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "roadguard",
				Name:      "rate_limit_hits_total",
				Help:      "Total number of rate limited requests",
			},
			[]string{"tier"},
		),
		UsageFlushes: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "roadguard",
				Name:      "usage_flushes_total",
				Help:      "Total number of usage batch flushes",
			},
		),
		UsageFlushErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "roadguard",
				Name:      "usage_flush_errors_total",
				Help:      "Total number of failed usage batch flushes",
			},
		),
		UsageRecordsFlushed: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "roadguard",
				Name:      "usage_records_flushed_total",
				Help:      "Total usage records written to storage",
			},
		),
		UsageQueueDepth: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "roadguard",
				Name:      "usage_queue_depth",
				Help:      "Usage records currently buffered in memory",
			},
		),
		ConfigReloads: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "roadguard",
				Name:      "config_reloads_total",
				Help:      "Total number of successful config reloads",
			},
		),
		ConfigReloadErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "roadguard",
				Name:      "config_reload_errors_total",
				Help:      "Total number of config reload errors",
			},
		),
		ConfigLastReload: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "roadguard",
				Name:      "config_last_reload_timestamp",
				Help:      "Unix timestamp of last successful config reload",
			},
		),
	}
}

// NormalizePath reduces label cardinality for long or dynamic paths.
func NormalizePath(path string) string {
	if len(path) > 50 {
		return path[:50] + "..."
	}
	return path
}
