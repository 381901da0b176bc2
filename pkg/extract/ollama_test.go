package extract_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/listing-tracker/pkg/extract"
)

const flatPage = "2-Zimmer-Wohnung, Balkon nach Süden, Gasetagenheizung."

type ollamaGenerate struct {
	Model   string `json:"model"`
	Prompt  string `json:"prompt"`
	System  string `json:"system"`
	Format  string `json:"format"`
	Stream  bool   `json:"stream"`
	Options struct {
		Temperature float64 `json:"temperature"`
		NumPredict  int     `json:"num_predict"`
	} `json:"options"`
}

func TestOllamaBackend_ExtractFields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		status     int
		body       string
		want       map[string]any
		wantErrMsg string
	}{
		{
			name:   "fields from response",
			status: http.StatusOK,
			body:   `{"model":"mistral","response":"{\"rooms\":2,\"balcony\":\"yes\",\"heating\":\"Gasetagenheizung\"}","prompt_eval_count":180,"eval_count":22}`,
			want:   map[string]any{"rooms": 2.0, "balcony": true, "heating": "Gasetagenheizung"},
		},
		{
			name:   "model leaves fields out",
			status: http.StatusOK,
			body:   `{"model":"mistral","response":"{\"rooms\":null}"}`,
			want:   map[string]any{"rooms": nil, "balcony": nil, "heating": nil},
		},
		{
			name:       "model not pulled",
			status:     http.StatusNotFound,
			body:       `{"error":"model 'mistral' not found"}`,
			wantErrMsg: "ollama error (status 404)",
		},
		{
			name:       "garbled envelope",
			status:     http.StatusOK,
			body:       `not json`,
			wantErrMsg: "parsing ollama response",
		},
		{
			name:       "prose instead of json",
			status:     http.StatusOK,
			body:       `{"model":"mistral","response":"The flat has 2 rooms."}`,
			wantErrMsg: "parsing LLM JSON response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/generate", r.URL.Path)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

				var req ollamaGenerate
				if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
					return
				}
				assert.Equal(t, "mistral", req.Model)
				assert.Equal(t, extract.FormatJSON, req.Format)
				assert.False(t, req.Stream)
				assert.Contains(t, req.System, "Answer only with JSON")
				assert.Contains(t, req.Prompt, `- "rooms" (number): number of rooms`)
				assert.Contains(t, req.Prompt, `- "balcony" (boolean)`)
				assert.Contains(t, req.Prompt, "Page:\n"+flatPage)
				assert.InDelta(t, 0.1, req.Options.Temperature, 1e-9)
				assert.Equal(t, 512, req.Options.NumPredict)

				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			backend := extract.NewOllamaBackend(srv.URL, "mistral")
			got, err := extract.NewLLMExtractor(backend).ExtractFields(context.Background(), flatPage, flatFields)

			if tt.wantErrMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOllamaBackend_Timeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	backend := extract.NewOllamaBackend(srv.URL, "mistral",
		extract.WithOllamaHTTPClient(&http.Client{Timeout: 50 * time.Millisecond}))
	_, err := extract.NewLLMExtractor(backend).ExtractFields(context.Background(), flatPage, flatFields)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "calling ollama")
}

func TestOllamaBackend_Name(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "ollama", extract.NewOllamaBackend("http://localhost:11434", "mistral").Name())
}
