// Package metrics exposes prometheus counters for the cache, ephemeris
// requests and the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	cacheResultsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lscomets_cache_results_total",
			Help: "Result cache lookups by outcome (hit, miss, error).",
		},
		[]string{"result"},
	)

	ephemerisRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lscomets_ephemeris_requests_total",
			Help: "Ephemeris provider queries by provider and outcome.",
		},
		[]string{"provider", "outcome"},
	)

	refineDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lscomets_refine_duration_seconds",
			Help:    "Visibility scan duration in seconds.",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"mode"},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lscomets_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lscomets_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)
)

func init() {
	prometheus.MustRegister(cacheResultsTotal)
	prometheus.MustRegister(ephemerisRequestsTotal)
	prometheus.MustRegister(refineDurationSeconds)
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpDurationSeconds)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// IncCacheResult counts a result cache lookup.
func IncCacheResult(result string) {
	cacheResultsTotal.WithLabelValues(result).Inc()
}

// IncEphemerisRequest counts a provider query.
func IncEphemerisRequest(provider, outcome string) {
	ephemerisRequestsTotal.WithLabelValues(provider, outcome).Inc()
}

// ObserveRefine records how long a scan took.
func ObserveRefine(mode string, d time.Duration) {
	refineDurationSeconds.WithLabelValues(mode).Observe(d.Seconds())
}

// ObserveHTTP records one served request.
func ObserveHTTP(path, method string, code int, d time.Duration) {
	route := normalizeRoute(path)
	httpRequestsTotal.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	httpDurationSeconds.WithLabelValues(route, method).Observe(d.Seconds())
}

// knownRoutes keeps label cardinality bounded.
var knownRoutes = map[string]bool{
	"/":                    true,
	"/healthz":             true,
	"/metrics":             true,
	"/api/v1/visibility":   true,
	"/api/v1/comets":       true,
	"/api/v1/cache/warmup": true,
}

func normalizeRoute(path string) string {
	if knownRoutes[path] {
		return path
	}
	return "other"
}
