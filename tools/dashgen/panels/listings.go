package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// ListingFunnel returns a timeseries comparing fetched, new and
// similarity-suppressed listings.
func ListingFunnel() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Listing Funnel").
		Description("Listings per hour: extracted from search pages, not seen before, suppressed as near-duplicates").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(`sum(lt:listings_fetched:rate5m) * 3600`, "fetched", "A")).
		WithTarget(PromQuery(`sum(lt:listings_new:rate5m) * 3600`, "new", "B")).
		WithTarget(PromQuery(
			`sum(rate(lt_listings_similar_suppressed_total{job="listing-tracker"}[5m])) * 3600`,
			"suppressed", "C",
		)).
		FillOpacity(10).
		LineWidth(2).
		Legend(TableLegend("mean", "max")).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// PageFetches returns a timeseries of p95 page fetch latency and fetch
// errors by mode (http, browser).
func PageFetches() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Page Fetches").
		Description("p95 fetch duration and errors per minute by fetch mode").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(
			Quantile(0.95, "lt_page_fetch_duration_seconds", "5m", "mode"),
			"p95 {{mode}} (s)", "A",
		)).
		WithTarget(PromQuery(
			`sum by (mode) (rate(lt_page_fetch_errors_total{job="listing-tracker"}[5m])) * 60`,
			"errors/min {{mode}}", "B",
		)).
		FillOpacity(10).
		LineWidth(2).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}
