package middleware

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/trace"
)

const requestIDHeader = "X-Request-ID"

// RequestLog returns Echo middleware that logs requests with structured
// fields and propagates a request ID through the response header and the
// echo context. Probe paths log their first success after startup or a
// failure, and every failure.
func RequestLog(log *slog.Logger) echo.MiddlewareFunc {
	var (
		mu      sync.Mutex
		probeUp = make(map[string]bool)
	)

	// quiet reports whether a probe response repeats the last logged
	// success.
	quiet := func(path string, status int) bool {
		mu.Lock()
		defer mu.Unlock()
		ok := status < 400
		was := probeUp[path]
		probeUp[path] = ok
		return ok && was
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			reqID := c.Request().Header.Get(requestIDHeader)
			if reqID == "" {
				reqID = uuid.NewString()
			}
			c.Set("request_id", reqID)
			c.Response().Header().Set(requestIDHeader, reqID)

			err := next(c)

			path := c.Request().URL.Path
			status := c.Response().Status
			_, probe := probePaths[path]
			if probe && quiet(path, status) {
				return err
			}

			level := slog.LevelInfo
			switch {
			case status >= 500 && !probe:
				level = slog.LevelError
			case status >= 400:
				level = slog.LevelWarn
			}

			attrs := []any{
				"method", c.Request().Method,
				"path", path,
				"status", status,
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", reqID,
			}
			if sc := trace.SpanContextFromContext(c.Request().Context()); sc.HasTraceID() {
				attrs = append(attrs, "trace_id", sc.TraceID().String())
			}
			log.Log(context.Background(), level, "request", attrs...)

			return err
		}
	}
}
