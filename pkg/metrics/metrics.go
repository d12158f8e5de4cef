// Package metrics defines the Prometheus metric collectors used across the
// pipeline and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the build/merge pipeline.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	DocsTokenizedTotal  prometheus.Counter
	PostingsEmittedTotal prometheus.Counter
	BlocksWrittenTotal  prometheus.Counter
	RunsFlushedTotal    prometheus.Counter
	MergeDuration       prometheus.Histogram
	BuildJobsTotal      *prometheus.CounterVec
	ListCacheHitsTotal  prometheus.Counter
	ListCacheMissTotal  prometheus.Counter
	CircuitBreakerState *prometheus.GaugeVec
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
		DocsTokenizedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "docs_tokenized_total",
				Help: "Total documents tokenized during a build.",
			},
		),
		PostingsEmittedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "postings_emitted_total",
				Help: "Total (term, docID, termFreq) postings emitted across all runs.",
			},
		),
		BlocksWrittenTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "postings_blocks_written_total",
				Help: "Total postings blocks written to index.bin.",
			},
		),
		RunsFlushedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "spimi_runs_flushed_total",
				Help: "Total SPIMI runs flushed to disk by the block builder.",
			},
		),
		MergeDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "merge_duration_seconds",
				Help:    "Wall-clock duration of a full k-way merge.",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
			},
		),
		BuildJobsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "build_jobs_total",
				Help: "Total build jobs processed by status.",
			},
			[]string{"status"},
		),
		ListCacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "list_cache_hits_total",
				Help: "Total list cache hits.",
			},
		),
		ListCacheMissTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "list_cache_misses_total",
				Help: "Total list cache misses.",
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

	prometheus.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.DocsTokenizedTotal,
		m.PostingsEmittedTotal,
		m.BlocksWrittenTotal,
		m.RunsFlushedTotal,
		m.MergeDuration,
		m.BuildJobsTotal,
		m.ListCacheHitsTotal,
		m.ListCacheMissTotal,
		m.CircuitBreakerState,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
