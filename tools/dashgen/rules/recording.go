package rules

// RecordingRules returns a PrometheusRule CR containing pre-computed rate
// expressions used by dashboards and alert rules.
func RecordingRules() PrometheusRule {
	return newPrometheusRule("lt-recording-rules", RuleGroup{
		Name: "lt-recording",
		Rules: []Rule{
			record("lt:http_requests:rate5m", `sum(rate(lt_http_requests_total[5m]))`),
			record("lt:http_errors:rate5m", `sum(rate(lt_http_requests_total{status=~"5.."}[5m]))`),
			record("lt:pipeline_runs:rate5m", `sum by (provider, outcome) (rate(lt_pipeline_runs_total[5m]))`),
			record("lt:listings_fetched:rate5m", `sum by (provider) (rate(lt_listings_fetched_total[5m]))`),
			record("lt:listings_new:rate5m", `sum by (provider) (rate(lt_listings_new_total[5m]))`),
			record("lt:enhance_failures:rate5m", `sum(rate(lt_enhance_failures_total[5m]))`),
		},
	})
}
