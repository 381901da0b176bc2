// Package middleware provides Echo middleware for the listing-tracker API.
package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/donaldgifford/listing-tracker/internal/metrics"
)

// probePaths are polled by orchestrators. They get an up/down gauge
// instead of request metrics and are logged only on state changes.
var probePaths = map[string]prometheus.Gauge{
	"/healthz": metrics.HealthzUp,
	"/readyz":  metrics.ReadyzUp,
}

const metricsPath = "/metrics"

// Metrics returns Echo middleware that records request duration and
// status per route template.
func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := routePath(c)

			if gauge, probe := probePaths[path]; probe {
				err := next(c)
				setUp(gauge, c.Response().Status)
				return err
			}
			if path == metricsPath {
				return next(c)
			}

			start := time.Now()
			err := next(c)

			status := strconv.Itoa(c.Response().Status)
			method := c.Request().Method
			metrics.HTTPRequestDuration.
				WithLabelValues(method, path, status).
				Observe(time.Since(start).Seconds())
			metrics.HTTPRequestsTotal.
				WithLabelValues(method, path, status).
				Inc()

			return err
		}
	}
}

// routePath prefers the matched route template to keep label cardinality
// bounded.
func routePath(c echo.Context) string {
	if p := c.Path(); p != "" {
		return p
	}
	return c.Request().URL.Path
}

func setUp(g prometheus.Gauge, status int) {
	if status >= 200 && status < 300 {
		g.Set(1)
	} else {
		g.Set(0)
	}
}
