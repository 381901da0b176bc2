package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// RunOutcomes returns a stacked timeseries of pipeline runs by outcome.
func RunOutcomes() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Runs by Outcome").
		Description("Pipeline executions per minute: notified, empty or failed").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(`sum by (outcome) (lt:pipeline_runs:rate5m) * 60`, "{{outcome}}", "A")).
		FillOpacity(30).
		LineWidth(1).
		Stacking(common.NewStackingConfigBuilder().Mode(common.StackingModeNormal)).
		Legend(TableLegend("mean", "max")).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// FailuresByProvider returns a timeseries of failed runs per provider.
func FailuresByProvider() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Failures by Provider").
		Description("Failed pipeline runs per minute, per provider").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(
			`sum by (provider) (rate(lt_pipeline_runs_total{job="listing-tracker",outcome="failed"}[5m])) * 60`,
			"{{provider}}", "A",
		)).
		FillOpacity(10).
		LineWidth(2).
		Thresholds(ThresholdsGreenYellowRed(0.1, 1)).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// StageDuration returns a timeseries of p95 duration per pipeline stage.
func StageDuration() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Stage Duration (p95)").
		Description("95th percentile duration of each pipeline stage").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(
			Quantile(0.95, "lt_pipeline_stage_duration_seconds", "5m", "stage"),
			"{{stage}}", "A",
		)).
		Unit("s").
		FillOpacity(0).
		LineWidth(2).
		Legend(TableLegend("mean", "max")).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// SweepDuration returns a timeseries of the p95 full-sweep duration and the
// rate of pipelines skipped because the previous run was still going.
func SweepDuration() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Sweep Duration (p95) / Skipped").
		Description("95th percentile sweep duration and overlapping runs skipped per hour").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(
			Quantile(0.95, "lt_sweep_duration_seconds", "15m"),
			"sweep p95 (s)", "A",
		)).
		WithTarget(PromQuery(`sum(increase(lt_pipeline_skipped_total{job="listing-tracker"}[1h]))`, "skipped/h", "B")).
		FillOpacity(10).
		LineWidth(2).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}
