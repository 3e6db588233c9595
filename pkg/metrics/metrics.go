// Package metrics defines the Prometheus collectors used by the retrieval
// engine and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the engine.
type Metrics struct {
	QueriesTotal         *prometheus.CounterVec
	QueryLatency         *prometheus.HistogramVec
	QueryResultsCount    prometheus.Histogram
	PostingLookupsTotal  *prometheus.CounterVec
	PostingLookupLatency *prometheus.HistogramVec
	SnippetFetchesTotal  *prometheus.CounterVec
	CacheHitsTotal       prometheus.Counter
	CacheMissesTotal     prometheus.Counter
	CircuitBreakerState  *prometheus.GaugeVec
}

// New creates all collectors and registers them with reg. Passing
// prometheus.DefaultRegisterer exposes them through Handler.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		QueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "boolean_queries_total",
				Help: "Total evaluated queries by outcome (ok, empty, malformed, retrieval_error, error).",
			},
			[]string{"outcome"},
		),
		QueryLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "boolean_query_latency_seconds",
				Help:    "End-to-end query latency in seconds, including snippet retrieval.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"outcome"},
		),
		QueryResultsCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "boolean_query_results_count",
				Help:    "Number of documents matched per query.",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 1000},
			},
		),
		PostingLookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "posting_lookups_total",
				Help: "Posting store lookups by backend and status (hit, miss, error).",
			},
			[]string{"backend", "status"},
		),
		PostingLookupLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "posting_lookup_latency_seconds",
				Help:    "Posting store lookup latency in seconds.",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
			},
			[]string{"backend"},
		),
		SnippetFetchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "snippet_fetches_total",
				Help: "Document snippet fetches by status (ok, error).",
			},
			[]string{"status"},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "posting_cache_hits_total",
				Help: "Posting lookups served from the per-run cache.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "posting_cache_misses_total",
				Help: "Posting lookups that reached the store.",
			},
		),
		CircuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=open, 2=half-open).",
			},
			[]string{"name"},
		),
	}

	reg.MustRegister(
		m.QueriesTotal,
		m.QueryLatency,
		m.QueryResultsCount,
		m.PostingLookupsTotal,
		m.PostingLookupLatency,
		m.SnippetFetchesTotal,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.CircuitBreakerState,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler for the default
// registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
