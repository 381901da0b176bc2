package middleware

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecovery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		method    string
		path      string
		requestID string
		handler   echo.HandlerFunc
		wantCode  int
		wantLog   []string
	}{
		{
			name:   "listing search served",
			method: http.MethodGet,
			path:   "/api/v1/listings",
			handler: func(c echo.Context) error {
				return c.JSON(http.StatusOK, []string{})
			},
			wantCode: http.StatusOK,
		},
		{
			name:      "string value from job update",
			method:    http.MethodPut,
			path:      "/api/v1/jobs/berlin-flats",
			requestID: "req-7",
			handler: func(_ echo.Context) error {
				panic("job berlin-flats has no provider")
			},
			wantCode: http.StatusInternalServerError,
			wantLog: []string{
				"panic recovered",
				"job berlin-flats has no provider",
				"method=PUT",
				"path=/api/v1/jobs/berlin-flats",
				"request_id=req-7",
			},
		},
		{
			name:   "error value from run trigger",
			method: http.MethodPost,
			path:   "/api/v1/jobs/berlin-flats/run",
			handler: func(_ echo.Context) error {
				panic(errors.New("scheduler stopped"))
			},
			wantCode: http.StatusInternalServerError,
			wantLog:  []string{"scheduler stopped", "method=POST", "stack="},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, nil))

			e := echo.New()
			req := httptest.NewRequest(tt.method, tt.path, http.NoBody)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			if tt.requestID != "" {
				c.Set("request_id", tt.requestID)
			}

			err := Recovery(logger)(tt.handler)(c)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, rec.Code)

			if len(tt.wantLog) == 0 {
				assert.Empty(t, buf.String())
				return
			}
			assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
			for _, want := range tt.wantLog {
				assert.Contains(t, buf.String(), want)
			}
		})
	}
}
