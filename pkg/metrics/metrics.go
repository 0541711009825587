// Package metrics defines the Prometheus metric collectors used across the
// platform and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the platform.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	SearchQueriesTotal   *prometheus.CounterVec
	SearchLatency        *prometheus.HistogramVec
	SearchResultsCount   *prometheus.HistogramVec
	CacheHitsTotal       prometheus.Counter
	CacheMissesTotal     prometheus.Counter
	DocsIndexedTotal     prometheus.Counter
	IndexFlushesTotal    *prometheus.CounterVec
	CircuitBreakerState  *prometheus.GaugeVec

	SegmentsLoaded          prometheus.Gauge
	ReloadTotal             *prometheus.CounterVec
	SuggestLatency          prometheus.Histogram
	SemanticExpansionTerms  prometheus.Histogram
	AICacheHitsTotal        prometheus.Counter
	AICacheMissesTotal      prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		SearchQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "search_queries_total",
				Help: "Total search queries by result type (hit, miss, zero_result, error).",
			},
			[]string{"result_type"},
		),
		SearchLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "search_latency_seconds",
				Help:    "Search query latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"cache_status"},
		),
		SearchResultsCount: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "search_results_count",
				Help:    "Number of results returned per search query.",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
			},
			[]string{},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of cache misses.",
			},
		),
		DocsIndexedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "docs_indexed_total",
				Help: "Total documents indexed.",
			},
		),
		IndexFlushesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "index_flushes_total",
				Help: "Total index flush operations by status.",
			},
			[]string{"status"},
		),
		CircuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=open, 2=half-open).",
			},
			[]string{"name"},
		),
		SegmentsLoaded: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "segments_loaded",
				Help: "Number of segments currently live in the engine.",
			},
		),
		ReloadTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reload_total",
				Help: "Total engine reload attempts by outcome.",
			},
			[]string{"outcome"},
		),
		SuggestLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "suggest_latency_seconds",
				Help:    "Autocomplete suggest latency in seconds.",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1},
			},
		),
		SemanticExpansionTerms: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "semantic_expansion_terms",
				Help:    "Number of terms a query was expanded to via semantic similarity.",
				Buckets: []float64{0, 1, 5, 10, 20, 40},
			},
		),
		AICacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "ai_cache_hits_total",
				Help: "Total AI-summary cache hits.",
			},
		),
		AICacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "ai_cache_misses_total",
				Help: "Total AI-summary cache misses.",
			},
		),
	}

	prometheus.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.SearchQueriesTotal,
		m.SearchLatency,
		m.SearchResultsCount,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.DocsIndexedTotal,
		m.IndexFlushesTotal,
		m.CircuitBreakerState,
		m.SegmentsLoaded,
		m.ReloadTotal,
		m.SuggestLatency,
		m.SemanticExpansionTerms,
		m.AICacheHitsTotal,
		m.AICacheMissesTotal,
	)

	return m
}

// ObserveSearchLatency records one search request's latency, in
// seconds, against the cache-miss bucket (the core has no query-result
// cache of its own; a fronting cache layer records hits separately).
func (m *Metrics) ObserveSearchLatency(seconds float64) {
	m.SearchLatency.WithLabelValues("miss").Observe(seconds)
}

// IncReloadTotal increments the reload counter for the given outcome.
func (m *Metrics) IncReloadTotal(success bool) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	m.ReloadTotal.WithLabelValues(outcome).Inc()
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
