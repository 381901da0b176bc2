package travel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/donaldgifford/listing-tracker/internal/metrics"
	domain "github.com/donaldgifford/listing-tracker/pkg/types"
)

// Geocoder resolves a free-form waypoint location.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*domain.Coordinates, bool)
}

// Enricher fills in Listing.Travel for a job's waypoints. Every waypoint
// gets an entry; waypoints that cannot be routed get the N/A pair.
type Enricher struct {
	router   Router
	geocoder Geocoder
	log      *slog.Logger
}

// EnricherOption configures the Enricher.
type EnricherOption func(*Enricher)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) EnricherOption {
	return func(e *Enricher) {
		e.log = l
	}
}

// NewEnricher creates an Enricher. geocoder may be nil, in which case only
// "lat,lng" waypoint locations can be used.
func NewEnricher(router Router, geocoder Geocoder, opts ...EnricherOption) *Enricher {
	e := &Enricher{
		router:   router,
		geocoder: geocoder,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enrich routes from the listing to each waypoint in turn. Failures are
// recorded on the listing and summarized in a single warning.
func (e *Enricher) Enrich(ctx context.Context, l *domain.Listing, waypoints []domain.Waypoint) {
	if len(waypoints) == 0 {
		return
	}
	if l.Travel == nil {
		l.Travel = make(map[string]domain.TravelInfo, len(waypoints))
	}

	origin, hasOrigin := l.Coordinates()

	var failures []string
	for _, wp := range waypoints {
		if !hasOrigin {
			l.Travel[wp.ID] = domain.Unavailable()
			failures = append(failures, wp.Name+": listing has no coordinates")
			continue
		}

		info, err := e.route(ctx, origin, wp)
		if err != nil {
			l.Travel[wp.ID] = domain.Unavailable()
			failures = append(failures, fmt.Sprintf("%s: %v", wp.Name, err))
			metrics.RoutingFailuresTotal.Inc()
			continue
		}
		l.Travel[wp.ID] = info
	}

	if len(failures) > 0 {
		e.log.Warn("waypoint enrichment incomplete",
			"listing", l.ID,
			"failed", len(failures),
			"reasons", strings.Join(failures, "; "),
		)
	}
}

func (e *Enricher) route(ctx context.Context, origin domain.Coordinates, wp domain.Waypoint) (domain.TravelInfo, error) {
	if strings.TrimSpace(wp.Location) == "" {
		return domain.TravelInfo{}, errors.New("missing location")
	}
	if wp.TransportMode == "" {
		return domain.TravelInfo{}, errors.New("missing transport mode")
	}

	dest, err := e.locate(ctx, wp.Location)
	if err != nil {
		return domain.TravelInfo{}, err
	}

	r, err := e.router.Route(ctx, origin, dest, wp.TransportMode)
	if err != nil {
		return domain.TravelInfo{}, err
	}

	return domain.TravelInfo{
		Time:     FormatDuration(r.Duration),
		Distance: FormatDistance(r.Distance),
	}, nil
}

func (e *Enricher) locate(ctx context.Context, location string) (domain.Coordinates, error) {
	if c, ok := parseLatLng(location); ok {
		return c, nil
	}
	if e.geocoder == nil {
		return domain.Coordinates{}, errors.New("waypoint location is not lat,lng and no geocoder is configured")
	}
	c, ok := e.geocoder.Geocode(ctx, location)
	if !ok {
		return domain.Coordinates{}, errors.New("waypoint location could not be geocoded")
	}
	return *c, nil
}

func parseLatLng(s string) (domain.Coordinates, bool) {
	latStr, lngStr, ok := strings.Cut(s, ",")
	if !ok {
		return domain.Coordinates{}, false
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil || lat < -90 || lat > 90 {
		return domain.Coordinates{}, false
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngStr), 64)
	if err != nil || lng < -180 || lng > 180 {
		return domain.Coordinates{}, false
	}
	return domain.Coordinates{Lat: lat, Lng: lng}, true
}

// FormatDuration renders a travel time as whole minutes.
func FormatDuration(d time.Duration) string {
	return fmt.Sprintf("%d min", int(math.Round(d.Minutes())))
}

// FormatDistance renders meters as kilometers with one decimal.
func FormatDistance(meters float64) string {
	return fmt.Sprintf("%.1f km", meters/1000)
}
