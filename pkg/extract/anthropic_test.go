package extract_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/listing-tracker/pkg/extract"
)

type anthropicMessages struct {
	Model     string `json:"model"`
	MaxTokens int    `json:"max_tokens"`
	System    string `json:"system"`
	Messages  []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func TestAnthropicBackend_ExtractFields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		status     int
		body       string
		want       map[string]any
		wantErrMsg string
	}{
		{
			name:   "text block carries the fields",
			status: http.StatusOK,
			body: `{"model":"claude-haiku","content":[{"type":"text","text":"{\"rooms\":\"2,5\",\"balcony\":false,\"heating\":\"Fernwärme\"}"}],` +
				`"usage":{"input_tokens":210,"output_tokens":18}}`,
			want: map[string]any{"rooms": 2.5, "balcony": false, "heating": "Fernwärme"},
		},
		{
			name:   "fenced json in text block",
			status: http.StatusOK,
			body:   `{"content":[{"type":"text","text":"` + "```json\\n{\\\"rooms\\\":4}\\n```" + `"}]}`,
			want:   map[string]any{"rooms": 4.0, "balcony": nil, "heating": nil},
		},
		{
			name:       "overloaded",
			status:     529,
			body:       `{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`,
			wantErrMsg: "anthropic API error (status 529): overloaded_error: Overloaded",
		},
		{
			name:       "plain text error body",
			status:     http.StatusBadGateway,
			body:       `upstream unavailable`,
			wantErrMsg: "anthropic API error (status 502): upstream unavailable",
		},
		{
			name:       "no content blocks",
			status:     http.StatusOK,
			body:       `{"content":[]}`,
			wantErrMsg: "empty response from anthropic",
		},
		{
			name:       "field of wrong type",
			status:     http.StatusOK,
			body:       `{"content":[{"type":"text","text":"{\"balcony\":\"maybe\"}"}]}`,
			wantErrMsg: `field "balcony"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
				assert.NotEmpty(t, r.Header.Get("anthropic-version"))

				var req anthropicMessages
				if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
					return
				}
				assert.Equal(t, "claude-haiku", req.Model)
				assert.Equal(t, 512, req.MaxTokens)
				assert.Contains(t, req.System, "Never invent values")
				if assert.Len(t, req.Messages, 1) {
					assert.Equal(t, "user", req.Messages[0].Role)
					assert.Contains(t, req.Messages[0].Content, `- "heating" (string): type of heating`)
					assert.Contains(t, req.Messages[0].Content, "Page:\n"+flatPage)
				}

				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			backend := extract.NewAnthropicBackend(
				extract.WithAnthropicEndpoint(srv.URL),
				extract.WithAnthropicModel("claude-haiku"),
				extract.WithAnthropicAPIKey("test-key"),
			)
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

func TestAnthropicBackend_MissingAPIKey(t *testing.T) {
	t.Parallel()

	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		called = true
	}))
	defer srv.Close()

	backend := extract.NewAnthropicBackend(
		extract.WithAnthropicEndpoint(srv.URL),
		extract.WithAnthropicAPIKey(""),
	)
	_, err := extract.NewLLMExtractor(backend).ExtractFields(context.Background(), flatPage, flatFields)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ANTHROPIC_API_KEY is not set")
	assert.False(t, called)
}

func TestAnthropicBackend_Name(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "anthropic", extract.NewAnthropicBackend().Name())
}
