package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	domain "github.com/donaldgifford/listing-tracker/pkg/types"
)

// NominatimClient queries a Nominatim-compatible /search endpoint.
type NominatimClient struct {
	endpoint  string
	userAgent string
	client    *http.Client
}

// NominatimOption configures the NominatimClient.
type NominatimOption func(*NominatimClient)

// WithNominatimHTTPClient overrides the default HTTP client.
func WithNominatimHTTPClient(c *http.Client) NominatimOption {
	return func(n *NominatimClient) {
		n.client = c
	}
}

// NewNominatimClient creates a client. Nominatim's usage policy requires an
// identifying User-Agent.
func NewNominatimClient(endpoint, userAgent string, opts ...NominatimOption) *NominatimClient {
	n := &NominatimClient{
		endpoint:  strings.TrimRight(endpoint, "/"),
		userAgent: userAgent,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

type nominatimPlace struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Lookup returns the best match for address, or nil if there is none.
func (n *NominatimClient) Lookup(ctx context.Context, address string) (*domain.Coordinates, error) {
	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("limit", "1")
	q.Set("q", address)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.endpoint+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", n.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling geocoder: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &RateLimitError{RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), time.Now())}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoder error (status %d): %s", resp.StatusCode, string(body))
	}

	var places []nominatimPlace
	if err := json.Unmarshal(body, &places); err != nil {
		return nil, fmt.Errorf("parsing geocoder response: %w", err)
	}
	if len(places) == 0 {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing latitude %q: %w", places[0].Lat, err)
	}
	lng, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing longitude %q: %w", places[0].Lon, err)
	}
	return &domain.Coordinates{Lat: lat, Lng: lng}, nil
}

// parseRetryAfter accepts delay-seconds or an HTTP date. Anything else is
// zero, which makes the caller fall back to its default pause.
func parseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil && t.After(now) {
		return t.Sub(now)
	}
	return 0
}
