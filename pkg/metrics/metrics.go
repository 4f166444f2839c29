// Package metrics defines the Prometheus metric collectors used by the
// service and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the service.
type Metrics struct {
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	HTTPRequestsInFlight  prometheus.Gauge
	SearchQueriesTotal    *prometheus.CounterVec
	SearchLatency         prometheus.Histogram
	SearchResultsCount    prometheus.Histogram
	ImagesIndexed         prometheus.Gauge
	IndexRebuildsTotal    *prometheus.CounterVec
	IndexRebuildDuration  prometheus.Histogram
	IndexAge              prometheus.Gauge
	ExtractionCacheHits   prometheus.Counter
	ExtractionCacheMisses prometheus.Counter
	QueryEventsDropped    prometheus.Counter
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
				Help: "Total search queries by result type (hit, zero_result, too_broad, error).",
			},
			[]string{"result_type"},
		),
		SearchLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "search_latency_seconds",
				Help:    "Search query latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
		),
		SearchResultsCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "search_results_count",
				Help:    "Number of images selected per search query.",
				Buckets: []float64{0, 1, 5, 10, 25, 50},
			},
		),
		ImagesIndexed: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "images_indexed",
				Help: "Number of images in the current index snapshot.",
			},
		),
		IndexRebuildsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "index_rebuilds_total",
				Help: "Total index rebuild attempts by status (ok, error, coalesced).",
			},
			[]string{"status"},
		),
		IndexRebuildDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "index_rebuild_duration_seconds",
				Help:    "Full share walk and snapshot build duration in seconds.",
				Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
			},
		),
		IndexAge: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "index_age_seconds",
				Help: "Seconds since the current snapshot was built.",
			},
		),
		ExtractionCacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "extraction_cache_hits_total",
				Help: "Keyword extractions served from cache.",
			},
		),
		ExtractionCacheMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "extraction_cache_misses_total",
				Help: "Keyword extractions that required the extraction service.",
			},
		),
		QueryEventsDropped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "query_events_dropped_total",
				Help: "Analytics events dropped because the buffer was full.",
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
		m.ImagesIndexed,
		m.IndexRebuildsTotal,
		m.IndexRebuildDuration,
		m.IndexAge,
		m.ExtractionCacheHits,
		m.ExtractionCacheMisses,
		m.QueryEventsDropped,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
