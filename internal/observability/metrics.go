package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry

	// HTTP request rate. Watch for: sudden drops (service down) or spikes (traffic surge).
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency per request. Watch for: p95/p99 latency increases.
	HTTPRequestDuration *prometheus.HistogramVec

	// Concurrent requests in flight. Watch for: saturation, capacity limits.
	HTTPRequestsInFlight prometheus.Gauge

	// Upstream provider call rate by service (forecast, air_quality, geocode
	// provider names). Watch for: error vs success ratio per provider.
	UpstreamCallsTotal *prometheus.CounterVec

	// Upstream provider latency. Watch for: p95 > 2s (upstream degradation).
	UpstreamDuration *prometheus.HistogramVec

	// Reverse-geocoding chain fall-throughs per provider: a provider failed
	// or answered empty and the chain moved on. Watch for: a primary provider
	// failing persistently.
	GeocodeFallbacksTotal *prometheus.CounterVec

	// Reverse-geocoding chain exhausted: every provider failed and the
	// coordinate-derived label was substituted.
	GeocodeChainExhaustedTotal prometheus.Counter

	// Async results discarded because a newer coordinate superseded them.
	// These are internal no-ops, never user-visible errors.
	StaleDiscardsTotal *prometheus.CounterVec

	// Snapshot replacements by trigger (search, gps, map, units, scheduler).
	SnapshotRefreshesTotal *prometheus.CounterVec

	// Geocode label cache hits. Watch for: hit rate against provider quota use.
	CacheHitsTotal *prometheus.CounterVec

	// Rate limit denials. Watch for: overload, capacity exceeded.
	RateLimitDeniedTotal prometheus.Counter
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "statusCode"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpRequestDurationSeconds",
			Help:    "HTTP request latency in seconds (per request)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "httpRequestsInFlight",
			Help: "Number of HTTP requests currently being served",
		},
	)
	UpstreamCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstreamCallsTotal",
			Help: "Total number of upstream provider calls",
		},
		[]string{"service", "status"},
	)
	UpstreamDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstreamDurationSeconds",
			Help:    "Upstream provider latency in seconds (per call)",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"service", "status"},
	)
	GeocodeFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geocodeFallbacksTotal",
			Help: "Reverse-geocoding providers skipped after failure or empty answer",
		},
		[]string{"provider"},
	)
	GeocodeChainExhaustedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "geocodeChainExhaustedTotal",
			Help: "Reverse-geocoding resolutions where every provider failed",
		},
	)
	StaleDiscardsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "staleDiscardsTotal",
			Help: "Async results discarded because a newer coordinate superseded them",
		},
		[]string{"operation"},
	)
	SnapshotRefreshesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapshotRefreshesTotal",
			Help: "Weather snapshot replacements by trigger",
		},
		[]string{"trigger"},
	)
	CacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cacheHitsTotal",
			Help: "Geocode label cache hits by backend",
		},
		[]string{"cacheType"},
	)
	RateLimitDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rateLimitDeniedTotal",
			Help: "Total number of requests denied by rate limiter (429)",
		},
	)

	registry.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight,
		UpstreamCallsTotal, UpstreamDuration,
		GeocodeFallbacksTotal, GeocodeChainExhaustedTotal,
		StaleDiscardsTotal, SnapshotRefreshesTotal,
		CacheHitsTotal, RateLimitDeniedTotal,
	)
}

// ObserveUpstreamCall records one upstream provider call with its outcome.
func ObserveUpstreamCall(service, status string, duration time.Duration) {
	UpstreamCallsTotal.WithLabelValues(service, status).Inc()
	UpstreamDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

// MetricsHandler returns an http.Handler that serves application and runtime metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
