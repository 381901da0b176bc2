// Package travel computes travel time and distance from listings to a
// job's waypoints.
package travel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/donaldgifford/listing-tracker/internal/ratelimit"
	domain "github.com/donaldgifford/listing-tracker/pkg/types"
)

// ErrNoRoute is returned when the router finds no route between two points.
var ErrNoRoute = errors.New("no route found")

// ErrUnsupportedMode is returned for transport modes a router cannot serve.
var ErrUnsupportedMode = errors.New("transport mode not supported")

// Route is the result of routing between two points.
type Route struct {
	Duration time.Duration
	Distance float64 // meters
}

// Router computes a route between two coordinates.
type Router interface {
	Route(ctx context.Context, from, to domain.Coordinates, mode domain.TransportMode) (Route, error)
}

// OSRMClient queries an OSRM-compatible /route/v1 endpoint.
type OSRMClient struct {
	endpoint string
	client   *http.Client
	limiter  *ratelimit.Limiter
	profiles map[domain.TransportMode]string
}

// OSRMOption configures the OSRMClient.
type OSRMOption func(*OSRMClient)

// WithOSRMHTTPClient overrides the default HTTP client.
func WithOSRMHTTPClient(c *http.Client) OSRMOption {
	return func(o *OSRMClient) {
		o.client = c
	}
}

// WithOSRMLimiter throttles outbound requests.
func WithOSRMLimiter(l *ratelimit.Limiter) OSRMOption {
	return func(o *OSRMClient) {
		o.limiter = l
	}
}

// WithProfile maps a transport mode to a server profile name, e.g. a
// transit-capable deployment.
func WithProfile(mode domain.TransportMode, profile string) OSRMOption {
	return func(o *OSRMClient) {
		o.profiles[mode] = profile
	}
}

// NewOSRMClient creates a client for the given base URL.
func NewOSRMClient(endpoint string, opts ...OSRMOption) *OSRMClient {
	o := &OSRMClient{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   &http.Client{Timeout: 15 * time.Second},
		profiles: map[domain.TransportMode]string{
			domain.ModeDriving: "driving",
			domain.ModeWalking: "foot",
			domain.ModeCycling: "bike",
		},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

type osrmResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Duration float64 `json:"duration"`
		Distance float64 `json:"distance"`
	} `json:"routes"`
}

// Route implements Router.
func (o *OSRMClient) Route(
	ctx context.Context,
	from, to domain.Coordinates,
	mode domain.TransportMode,
) (Route, error) {
	profile, ok := o.profiles[mode]
	if !ok {
		return Route{}, fmt.Errorf("%w: %q", ErrUnsupportedMode, mode)
	}

	if o.limiter != nil {
		if err := o.limiter.Wait(ctx); err != nil {
			return Route{}, err
		}
	}

	url := fmt.Sprintf("%s/route/v1/%s/%s;%s?overview=false",
		o.endpoint, profile, lngLat(from), lngLat(to))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Route{}, fmt.Errorf("creating request: %w", err)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return Route{}, fmt.Errorf("calling router: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Route{}, fmt.Errorf("reading response: %w", err)
	}

	var r osrmResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return Route{}, fmt.Errorf("router error (status %d): %s", resp.StatusCode, string(body))
	}

	switch {
	case r.Code == "NoRoute" || (r.Code == "Ok" && len(r.Routes) == 0):
		return Route{}, ErrNoRoute
	case r.Code != "Ok":
		return Route{}, fmt.Errorf("router error (status %d, code %s): %s", resp.StatusCode, r.Code, r.Message)
	}

	return Route{
		Duration: time.Duration(r.Routes[0].Duration * float64(time.Second)),
		Distance: r.Routes[0].Distance,
	}, nil
}

func lngLat(c domain.Coordinates) string {
	return strconv.FormatFloat(c.Lng, 'f', 6, 64) + "," + strconv.FormatFloat(c.Lat, 'f', 6, 64)
}
