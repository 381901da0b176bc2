package rules

// AlertRules returns a PrometheusRule CR containing alert rules for
// listing-tracker operational monitoring.
func AlertRules() PrometheusRule {
	return newPrometheusRule("lt-alerts", RuleGroup{
		Name: "lt-alerts",
		Rules: []Rule{
			alert("LtDown", `absent(up{job="listing-tracker"})`, "2m", SeverityCritical,
				"Listing Tracker is down",
				"The listing-tracker job has been absent for more than 2 minutes."),
			alert("LtReadinessDown", `lt_readyz_up == 0`, "2m", SeverityCritical,
				"Listing Tracker stores are unreachable",
				"The readiness probe has failed to ping the listing or job store for more than 2 minutes."),
			alert("LtHighErrorRate", `lt:http_errors:rate5m / lt:http_requests:rate5m > 0.05`, "5m", SeverityWarning,
				"High API error rate on Listing Tracker",
				"More than 5% of API requests are returning 5xx errors over the last 5 minutes."),
			alert("LtProviderFailing",
				`sum by (provider) (lt:pipeline_runs:rate5m{outcome="failed"}) / sum by (provider) (lt:pipeline_runs:rate5m) > 0.5`,
				"30m", SeverityWarning,
				"Most pipeline runs for a provider are failing",
				"More than half of the runs against provider {{ $labels.provider }} failed over the last 30 minutes."),
			alert("LtNoListingsFetched", `sum by (provider) (increase(lt_listings_fetched_total[6h])) == 0`, "0m", SeverityWarning,
				"A provider returned no listings for 6 hours",
				"Search pages of provider {{ $labels.provider }} yielded no records; its selectors may be outdated."),
			alert("LtGeocoderPaused", `max(lt_geocode_paused) == 1`, "1h", SeverityInfo,
				"Remote geocoding has been paused for over an hour",
				"The geocoding service is rate limiting requests; new listings are left for the backfill sweep."),
			alert("LtEnhanceFailures", `lt:enhance_failures:rate5m > 0.05`, "15m", SeverityWarning,
				"Custom field extraction is failing",
				"Listings are being stored without their custom fields; check the LLM backend."),
			alert("LtNotificationFailures", `increase(lt_notification_failures_total[5m]) > 0`, "1m", SeverityWarning,
				"Notification delivery failures detected",
				"Adapter {{ $labels.adapter }} failed to deliver one or more listing batches."),
		},
	})
}
