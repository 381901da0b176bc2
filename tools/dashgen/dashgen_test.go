package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/donaldgifford/listing-tracker/tools/dashgen/dashboards"
	"github.com/donaldgifford/listing-tracker/tools/dashgen/panels"
	"github.com/donaldgifford/listing-tracker/tools/dashgen/rules"
	"github.com/donaldgifford/listing-tracker/tools/dashgen/validate"
)

func TestDefaultConfigValid(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "empty output dir", cfg: Config{DashboardEnabled: true}},
		{name: "nothing enabled", cfg: Config{OutputDir: "/tmp"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Error(t, tt.cfg.Validate())
		})
	}
}

func TestBuildOverviewDashboard(t *testing.T) {
	t.Parallel()

	dash, err := dashboards.BuildOverview().Build()
	require.NoError(t, err)

	require.NotNil(t, dash.Uid)
	assert.Equal(t, "lt-overview", *dash.Uid)
	require.NotNil(t, dash.Title)
	assert.Equal(t, "Listing Tracker Overview", *dash.Title)

	require.NotNil(t, dash.Templating)
	require.Len(t, dash.Templating.List, 1)
	assert.Equal(t, "datasource", dash.Templating.List[0].Name)

	assert.Len(t, dash.Panels, 6)

	totalPanels := 0
	for _, p := range dash.Panels {
		if p.RowPanel != nil {
			totalPanels += len(p.RowPanel.Panels)
		}
	}
	assert.Equal(t, 19, totalPanels)

	known := knownMetrics()
	validate.Rules(rules.RecordingRules(), known)
	result := validate.Dashboard(dash, known)
	assert.True(t, result.Ok(), "validation errors: %v", result.Errors)
	assert.Empty(t, result.Warnings, "unexpected warnings: %v", result.Warnings)
}

func TestRecordingRules(t *testing.T) {
	t.Parallel()

	cr := rules.RecordingRules()
	assert.Equal(t, "monitoring.coreos.com/v1", cr.APIVersion)
	assert.Equal(t, "PrometheusRule", cr.Kind)
	assert.Equal(t, "lt-recording-rules", cr.Metadata.Name)

	require.Len(t, cr.Spec.Groups, 1)
	group := cr.Spec.Groups[0]
	assert.Equal(t, "lt-recording", group.Name)

	expectedRecords := []string{
		"lt:http_requests:rate5m",
		"lt:http_errors:rate5m",
		"lt:pipeline_runs:rate5m",
		"lt:listings_fetched:rate5m",
		"lt:listings_new:rate5m",
		"lt:enhance_failures:rate5m",
	}
	require.Len(t, group.Rules, len(expectedRecords))
	for i, rule := range group.Rules {
		assert.Equal(t, expectedRecords[i], rule.Record)
		assert.True(t, KnownMetrics[rule.Record], "record %s missing from KnownMetrics", rule.Record)
	}

	result := validate.Rules(cr, knownMetrics())
	assert.True(t, result.Ok(), "validation errors: %v", result.Errors)

	data, err := yaml.Marshal(cr)
	require.NoError(t, err)
	assert.Contains(t, string(data), "apiVersion: monitoring.coreos.com/v1")
}

func TestAlertRules(t *testing.T) {
	t.Parallel()

	cr := rules.AlertRules()
	assert.Equal(t, "lt-alerts", cr.Metadata.Name)

	require.Len(t, cr.Spec.Groups, 1)
	group := cr.Spec.Groups[0]
	assert.Equal(t, "lt-alerts", group.Name)

	expectedAlerts := []string{
		"LtDown",
		"LtReadinessDown",
		"LtHighErrorRate",
		"LtProviderFailing",
		"LtNoListingsFetched",
		"LtGeocoderPaused",
		"LtEnhanceFailures",
		"LtNotificationFailures",
	}
	require.Len(t, group.Rules, len(expectedAlerts))
	for i, rule := range group.Rules {
		assert.Equal(t, expectedAlerts[i], rule.Alert)
		assert.NotEmpty(t, rule.Labels["severity"], "alert %s missing severity", rule.Alert)
		assert.NotEmpty(t, rule.Annotations["summary"], "alert %s missing summary", rule.Alert)
		assert.NotEmpty(t, rule.Annotations["description"], "alert %s missing description", rule.Alert)
		assert.Equal(t, rule.Alert, rule.Name())
	}

	severities := map[string]rules.Severity{
		"LtDown":           rules.SeverityCritical,
		"LtHighErrorRate":  rules.SeverityWarning,
		"LtGeocoderPaused": rules.SeverityInfo,
	}
	for _, rule := range group.Rules {
		if want, ok := severities[rule.Alert]; ok {
			assert.Equal(t, string(want), rule.Labels["severity"], rule.Alert)
		}
	}
	assert.Equal(t, "system-rules-prometheus", cr.Metadata.Labels["prometheus"])

	result := validate.Rules(cr, knownMetrics())
	assert.True(t, result.Ok(), "validation errors: %v", result.Errors)
}

func TestValidateExpr(t *testing.T) {
	t.Parallel()

	known := map[string]bool{"lt_sweep_duration_seconds": true, "lt_healthz_up": true}

	tests := []struct {
		name         string
		expr         string
		wantErr      bool
		wantWarnings int
	}{
		{name: "known gauge", expr: `lt_healthz_up == 0`},
		{name: "histogram bucket", expr: `histogram_quantile(0.9, sum(rate(lt_sweep_duration_seconds_bucket[5m])) by (le))`},
		{name: "unknown metric", expr: `lt_ingestion_errors_total`, wantErr: true},
		{name: "syntax error", expr: `sum(rate(lt_healthz_up[5m]`, wantErr: true},
		{name: "no selectors", expr: `time()`, wantWarnings: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res := validate.Expr("test", tt.expr, known)
			assert.Equal(t, !tt.wantErr, res.Ok(), "errors: %v", res.Errors)
			assert.Len(t, res.Warnings, tt.wantWarnings)
		})
	}
}

func TestQuantile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		q      float64
		metric string
		window string
		by     []string
		want   string
	}{
		{
			name:   "median",
			q:      0.5,
			metric: "lt_http_request_duration_seconds",
			window: "5m",
			want:   `histogram_quantile(0.50, sum(rate(lt_http_request_duration_seconds_bucket{job="listing-tracker"}[5m])) by (le))`,
		},
		{
			name:   "grouped by stage",
			q:      0.95,
			metric: "lt_pipeline_stage_duration_seconds",
			window: "15m",
			by:     []string{"stage"},
			want:   `histogram_quantile(0.95, sum(rate(lt_pipeline_stage_duration_seconds_bucket{job="listing-tracker"}[15m])) by (le, stage))`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := panels.Quantile(tt.q, tt.metric, tt.window, tt.by...)
			assert.Equal(t, tt.want, got)
			assert.True(t, validate.Expr(tt.name, got, knownMetrics()).Ok())
		})
	}
}

func TestRun_WritesArtifacts(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, run(Config{OutputDir: dir, DashboardEnabled: true, RulesEnabled: true}, false))

	for _, rel := range []string{
		filepath.Join("grafana", "data", "lt-overview.json"),
		filepath.Join("prometheus", "lt-recording-rules.yaml"),
		filepath.Join("prometheus", "lt-alerts.yaml"),
	} {
		data, err := os.ReadFile(filepath.Join(dir, rel))
		require.NoError(t, err, rel)
		assert.NotEmpty(t, data, rel)
	}

	rulesYAML, err := os.ReadFile(filepath.Join(dir, "prometheus", "lt-alerts.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(rulesYAML), generatedHeader)
}

func TestRun_ValidateOnlyWritesNothing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, run(Config{OutputDir: dir, RulesEnabled: true}, true))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
