package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/stat"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// GeocodeResults returns a stacked timeseries of geocode lookups by result.
func GeocodeResults() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Geocode Lookups").
		Description("Lookups per minute by result (cache_hit, resolved, not_found, error, paused)").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(
			`sum by (result) (rate(lt_geocode_requests_total{job="listing-tracker"}[5m])) * 60`,
			"{{result}}", "A",
		)).
		FillOpacity(30).
		LineWidth(1).
		Stacking(common.NewStackingConfigBuilder().Mode(common.StackingModeNormal)).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// GeocodePausedStat returns a stat panel that turns red while remote
// geocoding is paused by a rate limit.
func GeocodePausedStat() *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title("Geocoder Paused").
		Description("1 while the remote geocoder has asked us to back off").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(4).
		WithTarget(PromQuery(`max(lt_geocode_paused{job="listing-tracker"})`, "", "A")).
		Thresholds(ThresholdsGreenYellowRed(0.5, 1)).
		ColorScheme(ColorSchemeThresholds()).
		ColorMode(common.BigValueColorModeBackground).
		GraphMode(common.BigValueGraphModeNone).
		TextMode(common.BigValueTextModeValue)
}

// EnrichmentFailures returns a timeseries of waypoint routing and custom
// field extraction failures.
func EnrichmentFailures() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Enrichment Failures").
		Description("Waypoints that could not be routed and listings whose field extraction failed, per hour").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(12).
		WithTarget(PromQuery(`sum(increase(lt_routing_failures_total{job="listing-tracker"}[1h]))`, "routing", "A")).
		WithTarget(PromQuery(`lt:enhance_failures:rate5m * 3600`, "extraction", "B")).
		FillOpacity(10).
		LineWidth(2).
		Thresholds(ThresholdsGreenYellowRed(1, 10)).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// ExtractionDuration returns a timeseries of LLM extraction latency.
func ExtractionDuration() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Extraction Duration").
		Description("p50 and p95 LLM field extraction duration").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(FullWidth).
		WithTarget(PromQuery(
			Quantile(0.5, "lt_extraction_duration_seconds", "5m"),
			"p50", "A",
		)).
		WithTarget(PromQuery(
			Quantile(0.95, "lt_extraction_duration_seconds", "5m"),
			"p95", "B",
		)).
		Unit("s").
		FillOpacity(10).
		LineWidth(2).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}
