// Package dashboards assembles Grafana dashboard definitions from panel builders.
package dashboards

import (
	"github.com/grafana/grafana-foundation-sdk/go/dashboard"

	"github.com/donaldgifford/listing-tracker/tools/dashgen/panels"
)

// BuildOverview constructs the Listing Tracker overview dashboard.
func BuildOverview() *dashboard.DashboardBuilder {
	b := dashboard.NewDashboardBuilder("Listing Tracker Overview").
		Uid("lt-overview").
		Tags([]string{"lt", "listing-tracker"}).
		Refresh("1m").
		Time("now-24h", "now").
		Timezone("browser").
		Editable().
		Tooltip(dashboard.DashboardCursorSyncCrosshair).
		WithVariable(datasourceVar())

	b.WithRow(dashboard.NewRowBuilder("Overview").
		WithPanel(panels.HealthzStat()).
		WithPanel(panels.ReadyzStat()).
		WithPanel(panels.InFlightStat()).
		WithPanel(panels.UptimeStat()))

	b.WithRow(dashboard.NewRowBuilder("Pipelines").
		WithPanel(panels.RunOutcomes()).
		WithPanel(panels.FailuresByProvider()).
		WithPanel(panels.StageDuration()).
		WithPanel(panels.SweepDuration()))

	b.WithRow(dashboard.NewRowBuilder("Listings").
		WithPanel(panels.ListingFunnel()).
		WithPanel(panels.PageFetches()))

	b.WithRow(dashboard.NewRowBuilder("Enrichment").
		WithPanel(panels.GeocodeResults()).
		WithPanel(panels.GeocodePausedStat()).
		WithPanel(panels.EnrichmentFailures()).
		WithPanel(panels.ExtractionDuration()))

	b.WithRow(dashboard.NewRowBuilder("Notifications").
		WithPanel(panels.NotificationsSent()).
		WithPanel(panels.NotificationFailures()))

	b.WithRow(dashboard.NewRowBuilder("API").
		WithPanel(panels.RequestRate()).
		WithPanel(panels.LatencyPercentiles()).
		WithPanel(panels.ErrorRate()))

	return b
}

func datasourceVar() *dashboard.DatasourceVariableBuilder {
	return dashboard.NewDatasourceVariableBuilder("datasource").
		Label("Datasource").
		Type("prometheus")
}
