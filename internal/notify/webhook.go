package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	domain "github.com/donaldgifford/listing-tracker/pkg/types"
)

// headerFieldPrefix marks config fields copied into request headers, e.g.
// "header.Authorization".
const headerFieldPrefix = "header."

// WebhookAdapter POSTs each batch as JSON to an arbitrary URL.
type WebhookAdapter struct {
	url     string
	headers map[string]string
	client  *http.Client
}

// WebhookOption configures a WebhookAdapter.
type WebhookOption func(*WebhookAdapter)

// WithWebhookHTTPClient sets a custom HTTP client.
func WithWebhookHTTPClient(c *http.Client) WebhookOption {
	return func(w *WebhookAdapter) {
		w.client = c
	}
}

// WithHeaders adds static headers to every request.
func WithHeaders(h map[string]string) WebhookOption {
	return func(w *WebhookAdapter) {
		for k, v := range h {
			w.headers[k] = v
		}
	}
}

// NewWebhookAdapter creates a WebhookAdapter. url is the default target,
// overridable per job with the "url" config field.
func NewWebhookAdapter(url string, opts ...WebhookOption) *WebhookAdapter {
	w := &WebhookAdapter{
		url:     url,
		headers: make(map[string]string),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// ID implements Adapter.
func (*WebhookAdapter) ID() string {
	return "webhook"
}

type webhookPayload struct {
	Job      string           `json:"job"`
	Provider string           `json:"provider"`
	Count    int              `json:"count"`
	Listings []domain.Listing `json:"listings"`
}

// Send implements Adapter.
func (w *WebhookAdapter) Send(ctx context.Context, msg Message) error {
	url := msg.Config.Fields["url"]
	if url == "" {
		url = w.url
	}
	if url == "" {
		return errors.New("webhook url not configured")
	}

	body, err := json.Marshal(webhookPayload{
		Job:      msg.JobKey,
		Provider: msg.ServiceName,
		Count:    len(msg.NewListings),
		Listings: msg.NewListings,
	})
	if err != nil {
		return fmt.Errorf("marshaling webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range w.headers {
		req.Header.Set(k, v)
	}
	for k, v := range msg.Config.Fields {
		if name, ok := strings.CutPrefix(k, headerFieldPrefix); ok {
			req.Header.Set(name, v)
		}
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("webhook returned %d: %s", resp.StatusCode, respBody)
	}
	return nil
}
