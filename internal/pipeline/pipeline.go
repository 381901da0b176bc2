// Package pipeline runs a job against one provider: fetch the newest
// listings, keep the unseen ones, notify and enrich them.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/donaldgifford/listing-tracker/internal/notify"
	"github.com/donaldgifford/listing-tracker/internal/provider"
	"github.com/donaldgifford/listing-tracker/internal/scrape"
	"github.com/donaldgifford/listing-tracker/internal/store"
	"github.com/donaldgifford/listing-tracker/pkg/extract"
	domain "github.com/donaldgifford/listing-tracker/pkg/types"
)

// Geocoder resolves listing addresses.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*domain.Coordinates, bool)
}

// Notifier fans a batch out to a job's notification adapters.
type Notifier interface {
	Dispatch(
		ctx context.Context,
		providerID string,
		listings []domain.Listing,
		configs []domain.NotificationConfig,
		jobID string,
	) (notify.Result, error)
}

// WaypointEnricher fills a listing's travel info.
type WaypointEnricher interface {
	Enrich(ctx context.Context, l *domain.Listing, waypoints []domain.Waypoint)
}

// PageReader returns the visible text of a listing detail page.
type PageReader interface {
	PageText(ctx context.Context, url string) (string, error)
}

// SimilarityCache suppresses near-duplicate listings. Claim reports false
// for a pair already seen within the retention window.
type SimilarityCache interface {
	Claim(title, address string) bool
}

// Deps are the collaborators shared by every run. Geocoder, Fields, Pages
// and Waypoints are optional.
type Deps struct {
	Extractor scrape.Extractor
	Listings  store.DedupStore
	Enriched  store.EnrichedListingStore
	Notifier  Notifier
	Geocoder  Geocoder
	Fields    extract.FieldExtractor
	Pages     PageReader
	Waypoints WaypointEnricher

	// EnhanceMinDelay and EnhanceMaxDelay bound the random pause between
	// detail page fetches.
	EnhanceMinDelay time.Duration
	EnhanceMaxDelay time.Duration
}

// RunContext is the state of one run shared by its stages.
type RunContext struct {
	Job         *domain.Job
	JobProvider domain.JobProvider
	Provider    provider.Provider
	// URL is the prepared search URL.
	URL string

	records  []domain.RawRecord
	direct   bool
	notified []domain.Listing
}

// ProviderID returns the provider the run targets.
func (rc *RunContext) ProviderID() string {
	return rc.JobProvider.ID
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		p.log = l
	}
}

// WithClock overrides the time source used for DateFound.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

// WithSleep overrides how the enhance stage waits between pages.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(p *Pipeline) {
		p.sleep = sleep
	}
}

// Pipeline executes one (job, provider) pair.
type Pipeline struct {
	deps     Deps
	job      *domain.Job
	jp       domain.JobProvider
	provider provider.Provider
	similar  SimilarityCache
	log      *slog.Logger
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error
}

// New creates a pipeline for job on provider p.
func New(
	deps Deps,
	job *domain.Job,
	jp domain.JobProvider,
	p provider.Provider,
	similar SimilarityCache,
	opts ...Option,
) *Pipeline {
	pl := &Pipeline{
		deps:     deps,
		job:      job,
		jp:       jp,
		provider: p,
		similar:  similar,
		log:      slog.Default(),
		now:      time.Now,
		sleep:    sleepCtx,
	}
	for _, opt := range opts {
		opt(pl)
	}
	pl.log = pl.log.With("job", job.ID, "provider", jp.ID)
	return pl
}

// Stages returns the ordered stages of a run.
func (p *Pipeline) Stages() []Stage {
	return []Stage{
		{Name: "prepare_url", Run: p.prepareURL},
		{Name: "fetch", Run: p.fetch},
		{Name: "normalize", Run: p.normalize},
		{Name: "filter", Run: p.filter},
		{Name: "dedup", Run: p.dedup},
		{Name: "geocode", Run: p.geocode},
		{Name: "persist_raw", Run: p.persistRaw},
		{Name: "similarity", Run: p.similarity},
		{Name: "notify", Run: p.notify},
		{Name: "enhance", Run: p.enhance},
		{Name: "waypoints", Run: p.waypoints},
		{Name: "persist_enriched", Run: p.persistEnriched},
	}
}

// Execute runs every stage. It never returns an error: failures become a
// Failed outcome and an early stop without listings becomes Empty.
func (p *Pipeline) Execute(ctx context.Context) Outcome {
	rc := &RunContext{
		Job:         p.job,
		JobProvider: p.jp,
		Provider:    p.provider,
	}

	listings, err := runStages(ctx, rc, p.Stages(), p.log)
	switch {
	case err == nil:
		p.log.Info("run complete", "notified", len(listings))
		return Outcome{Kind: OutcomeNotified, Listings: listings}
	case errors.Is(err, ErrNoNewListings):
		p.log.Debug("run ended without new listings", "reason", err)
		return Outcome{Kind: OutcomeEmpty}
	default:
		p.log.Error("run failed", "error", err, "notified", len(rc.notified))
		return Outcome{Kind: OutcomeFailed, Listings: rc.notified, Err: err}
	}
}

// enhanceDelay picks a random pause in [min, max).
func (p *Pipeline) enhanceDelay() time.Duration {
	lo, hi := p.deps.EnhanceMinDelay, p.deps.EnhanceMaxDelay
	if hi <= lo {
		return lo
	}
	return lo + rand.N(hi-lo)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
