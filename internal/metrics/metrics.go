// Package metrics defines Prometheus metrics for listing-tracker.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "lt"

// HTTP metrics.
var (
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"method", "path", "status"})
)

// Pipeline metrics.
var (
	PipelineRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pipeline_runs_total",
		Help:      "Pipeline executions by provider and outcome.",
	}, []string{"provider", "outcome"})

	PipelineStageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "pipeline_stage_duration_seconds",
		Help:      "Duration of individual pipeline stages in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"stage"})

	PipelinesInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "pipelines_in_flight",
		Help:      "Number of (job, provider) pipelines currently executing.",
	})

	PipelineSkippedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pipeline_skipped_total",
		Help:      "Pipelines skipped because the previous run had not finished.",
	})

	SweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "sweep_duration_seconds",
		Help:      "Duration of full sweeps over all enabled jobs in seconds.",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
	})
)

// Scrape metrics.
var (
	PageFetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "page_fetch_duration_seconds",
		Help:      "Duration of page fetches by mode (http, browser) in seconds.",
		Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"mode"})

	PageFetchErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "page_fetch_errors_total",
		Help:      "Failed page fetches by mode.",
	}, []string{"mode"})
)

// Listing flow metrics.
var (
	ListingsFetchedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "listings_fetched_total",
		Help:      "Listings extracted from provider search pages.",
	}, []string{"provider"})

	ListingsNewTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "listings_new_total",
		Help:      "Listings whose hash was not previously known.",
	}, []string{"provider"})

	ListingsSimilarTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "listings_similar_suppressed_total",
		Help:      "New listings suppressed as near-duplicates.",
	}, []string{"provider"})
)

// Enrichment metrics.
var (
	GeocodeRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "geocode_requests_total",
		Help:      "Geocode lookups by result (cache_hit, resolved, not_found, error, paused).",
	}, []string{"result"})

	GeocodePaused = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "geocode_paused",
		Help:      "1 while remote geocoding is paused by a rate limit.",
	})

	RoutingFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "routing_failures_total",
		Help:      "Waypoints that could not be routed.",
	})

	EnhanceFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "enhance_failures_total",
		Help:      "Listings whose custom field extraction failed.",
	})

	ExtractionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "extraction_duration_seconds",
		Help:      "Duration of LLM extraction calls in seconds.",
		Buckets:   prometheus.DefBuckets,
	})
)

// Notification metrics.
var (
	NotificationsSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_sent_total",
		Help:      "Notification batches delivered by adapter.",
	}, []string{"adapter"})

	NotificationFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notification_failures_total",
		Help:      "Notification batches that failed by adapter.",
	}, []string{"adapter"})
)

// System metrics.
var (
	HealthzUp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "healthz_up",
		Help:      "1 when the liveness check last succeeded.",
	})

	ReadyzUp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "readyz_up",
		Help:      "1 when the readiness check last succeeded.",
	})
)
