package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// NotificationsSent returns a timeseries of delivered batches per adapter.
func NotificationsSent() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Notifications Sent").
		Description("Notification batches delivered per hour by adapter").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(
			`sum by (adapter) (increase(lt_notifications_sent_total{job="listing-tracker"}[1h]))`,
			"{{adapter}}", "A",
		)).
		FillOpacity(10).
		LineWidth(2).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// NotificationFailures returns a timeseries of failed batches per adapter.
func NotificationFailures() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Notification Failures").
		Description("Notification batches that failed per hour by adapter").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(
			`sum by (adapter) (increase(lt_notification_failures_total{job="listing-tracker"}[1h]))`,
			"{{adapter}}", "A",
		)).
		FillOpacity(10).
		LineWidth(2).
		Thresholds(ThresholdsGreenYellowRed(1, 5)).
		ColorScheme(ColorSchemeThresholds()).
		DrawStyle(common.GraphDrawStyleLine)
}
