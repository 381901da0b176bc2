// Package geo resolves listing addresses to coordinates and computes
// distances between them.
package geo

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/donaldgifford/listing-tracker/internal/metrics"
	"github.com/donaldgifford/listing-tracker/internal/ratelimit"
	domain "github.com/donaldgifford/listing-tracker/pkg/types"
)

// DefaultPause is how long remote lookups are suspended after a rate-limit
// response that carries no Retry-After header.
const DefaultPause = time.Hour

// Cache persists address lookups. A miss is (nil, nil). NotFound
// coordinates are stored for addresses the remote could not resolve.
type Cache interface {
	CachedCoordinates(ctx context.Context, address string) (*domain.Coordinates, error)
	SaveCoordinates(ctx context.Context, address string, c domain.Coordinates) error
}

// Remote looks up an address with an external geocoding service. An
// address the service does not know is (nil, nil).
type Remote interface {
	Lookup(ctx context.Context, address string) (*domain.Coordinates, error)
}

// RateLimitError is returned by a Remote when the service rejects a request
// for exceeding its rate limit.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return "geocoding rate limited, retry after " + e.RetryAfter.String()
}

// Is lets callers match with errors.Is(err, ErrRateLimited).
func (*RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

// ErrRateLimited matches any RateLimitError.
var ErrRateLimited = errors.New("geocoding rate limited")

type lookupResult int

const (
	resultResolved lookupResult = iota
	resultNotFound
	resultFailed
)

// Geocoder resolves addresses cache-first and falls back to a remote
// service. Lookups never return errors; failures leave the address
// unresolved.
type Geocoder struct {
	cache   Cache
	remote  Remote
	limiter *ratelimit.Limiter
	pause   time.Duration
	log     *slog.Logger
}

// GeocoderOption configures the Geocoder.
type GeocoderOption func(*Geocoder)

// WithGeocoderLogger sets the logger.
func WithGeocoderLogger(l *slog.Logger) GeocoderOption {
	return func(g *Geocoder) {
		g.log = l
	}
}

// WithLimiter sets the limiter gating remote calls.
func WithLimiter(l *ratelimit.Limiter) GeocoderOption {
	return func(g *Geocoder) {
		g.limiter = l
	}
}

// WithDefaultPause overrides DefaultPause.
func WithDefaultPause(d time.Duration) GeocoderOption {
	return func(g *Geocoder) {
		g.pause = d
	}
}

// NewGeocoder creates a Geocoder. cache may be nil.
func NewGeocoder(cache Cache, remote Remote, opts ...GeocoderOption) *Geocoder {
	g := &Geocoder{
		cache:  cache,
		remote: remote,
		pause:  DefaultPause,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.limiter == nil {
		g.limiter = ratelimit.New(1, 1)
	}
	return g
}

// Geocode returns the coordinates of address and whether it was resolved.
func (g *Geocoder) Geocode(ctx context.Context, address string) (*domain.Coordinates, bool) {
	c, res := g.resolve(ctx, address)
	if res != resultResolved {
		return nil, false
	}
	return c, true
}

// IsPaused reports whether remote lookups are suspended.
func (g *Geocoder) IsPaused() bool {
	paused := g.limiter.Paused()
	if paused {
		metrics.GeocodePaused.Set(1)
	} else {
		metrics.GeocodePaused.Set(0)
	}
	return paused
}

func (g *Geocoder) resolve(ctx context.Context, address string) (*domain.Coordinates, lookupResult) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, resultNotFound
	}

	if g.cache != nil {
		cached, err := g.cache.CachedCoordinates(ctx, address)
		switch {
		case err != nil:
			g.log.Warn("reading geocode cache", "address", address, "error", err)
		case cached != nil:
			metrics.GeocodeRequestsTotal.WithLabelValues("cache_hit").Inc()
			if !cached.Resolved() {
				return nil, resultNotFound
			}
			return cached, resultResolved
		}
	}

	if g.remote == nil {
		return nil, resultFailed
	}
	if g.IsPaused() {
		metrics.GeocodeRequestsTotal.WithLabelValues("paused").Inc()
		return nil, resultFailed
	}

	if err := g.limiter.Wait(ctx); err != nil {
		if errors.Is(err, ratelimit.ErrDailyLimitReached) {
			g.limiter.PauseFor(time.Until(g.limiter.ResetAt()))
		}
		metrics.GeocodeRequestsTotal.WithLabelValues("paused").Inc()
		g.log.Debug("geocode lookup deferred", "address", address, "error", err)
		return nil, resultFailed
	}

	c, err := g.remote.Lookup(ctx, address)
	if err != nil {
		var rl *RateLimitError
		if errors.As(err, &rl) {
			d := rl.RetryAfter
			if d <= 0 {
				d = g.pause
			}
			until := g.limiter.PauseFor(d)
			metrics.GeocodePaused.Set(1)
			g.log.Warn("geocoding paused by remote rate limit", "until", until)
		} else {
			g.log.Warn("geocoding address", "address", address, "error", err)
		}
		metrics.GeocodeRequestsTotal.WithLabelValues("error").Inc()
		return nil, resultFailed
	}

	if c == nil || !c.Resolved() {
		metrics.GeocodeRequestsTotal.WithLabelValues("not_found").Inc()
		g.save(ctx, address, domain.NotFound)
		return nil, resultNotFound
	}

	metrics.GeocodeRequestsTotal.WithLabelValues("resolved").Inc()
	g.save(ctx, address, *c)
	return c, resultResolved
}

func (g *Geocoder) save(ctx context.Context, address string, c domain.Coordinates) {
	if g.cache == nil {
		return
	}
	if err := g.cache.SaveCoordinates(ctx, address, c); err != nil {
		g.log.Warn("writing geocode cache", "address", address, "error", err)
	}
}
