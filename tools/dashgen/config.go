package main

import (
	"errors"
	"maps"
)

// KnownMetrics is the set of metric names exported by listing-tracker plus
// recording rule names referenced in dashboards and alerts. Histograms are
// listed by base name.
var KnownMetrics = map[string]bool{
	// HTTP metrics.
	"lt_http_request_duration_seconds": true,
	"lt_http_requests_total":           true,

	// Health metrics.
	"lt_healthz_up": true,
	"lt_readyz_up":  true,

	// Pipeline metrics.
	"lt_pipeline_runs_total":             true,
	"lt_pipeline_stage_duration_seconds": true,
	"lt_pipelines_in_flight":             true,
	"lt_pipeline_skipped_total":          true,
	"lt_sweep_duration_seconds":          true,

	// Scraping metrics.
	"lt_page_fetch_duration_seconds":       true,
	"lt_page_fetch_errors_total":           true,
	"lt_listings_fetched_total":            true,
	"lt_listings_new_total":                true,
	"lt_listings_similar_suppressed_total": true,

	// Enrichment metrics.
	"lt_geocode_requests_total":      true,
	"lt_geocode_paused":              true,
	"lt_routing_failures_total":      true,
	"lt_enhance_failures_total":      true,
	"lt_extraction_duration_seconds": true,

	// Notification metrics.
	"lt_notifications_sent_total":    true,
	"lt_notification_failures_total": true,

	// Recording rules.
	"lt:http_requests:rate5m":    true,
	"lt:http_errors:rate5m":      true,
	"lt:pipeline_runs:rate5m":    true,
	"lt:listings_fetched:rate5m": true,
	"lt:listings_new:rate5m":     true,
	"lt:enhance_failures:rate5m": true,

	// Standard Prometheus metrics referenced in dashboards.
	"up":                         true,
	"process_start_time_seconds": true,
}

// knownMetrics returns a copy of KnownMetrics that validation may extend.
func knownMetrics() map[string]bool {
	return maps.Clone(KnownMetrics)
}

// Config controls which artifacts the generator produces and where they go.
type Config struct {
	OutputDir        string
	DashboardEnabled bool
	RulesEnabled     bool
}

// DefaultConfig returns a Config that generates all artifacts into ../../deploy
// (relative to tools/dashgen/).
func DefaultConfig() Config {
	return Config{
		OutputDir:        "../../deploy",
		DashboardEnabled: true,
		RulesEnabled:     true,
	}
}

// Validate checks that the config is usable.
func (c Config) Validate() error {
	if c.OutputDir == "" {
		return errors.New("output directory must be set")
	}
	if !c.DashboardEnabled && !c.RulesEnabled {
		return errors.New("at least one of dashboard or rules must be enabled")
	}
	return nil
}
