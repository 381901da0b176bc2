package pipeline

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/donaldgifford/listing-tracker/internal/geo"
	"github.com/donaldgifford/listing-tracker/internal/metrics"
	"github.com/donaldgifford/listing-tracker/internal/provider"
	domain "github.com/donaldgifford/listing-tracker/pkg/types"
)

var errNoExtractor = errors.New("field extraction is not configured")

func (p *Pipeline) prepareURL(_ context.Context, rc *RunContext, in []domain.Listing) ([]domain.Listing, error) {
	rc.URL = rc.Provider.NewestFirstURL(rc.JobProvider.URL)
	return in, nil
}

func (p *Pipeline) fetch(ctx context.Context, rc *RunContext, _ []domain.Listing) ([]domain.Listing, error) {
	if lf, ok := rc.Provider.(provider.ListingsFetcher); ok {
		listings, err := lf.GetListings(ctx, rc.URL)
		if err != nil {
			return nil, fmt.Errorf("getting listings: %w", err)
		}
		rc.direct = true
		metrics.ListingsFetchedTotal.WithLabelValues(rc.ProviderID()).Add(float64(len(listings)))
		return cloneListings(listings), nil
	}

	records, err := p.deps.Extractor.Fetch(ctx, rc.Provider.Query(rc.URL))
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", rc.URL, err)
	}
	rc.records = records
	metrics.ListingsFetchedTotal.WithLabelValues(rc.ProviderID()).Add(float64(len(records)))
	return nil, nil
}

// cloneListings copies provider-owned listings so later stages never write
// through to the provider's slice or maps.
func cloneListings(in []domain.Listing) []domain.Listing {
	out := make([]domain.Listing, len(in))
	for i, l := range in {
		l.Travel = maps.Clone(l.Travel)
		l.CustomFields = maps.Clone(l.CustomFields)
		out[i] = l
	}
	return out
}

func (p *Pipeline) normalize(_ context.Context, rc *RunContext, in []domain.Listing) ([]domain.Listing, error) {
	now := p.now().UTC()
	if rc.direct {
		for i := range in {
			if in[i].DateFound.IsZero() {
				in[i].DateFound = now
			}
		}
		return in, nil
	}

	out := make([]domain.Listing, 0, len(rc.records))
	for _, rec := range rc.records {
		l, err := rc.Provider.Normalize(rec)
		if err != nil {
			return nil, fmt.Errorf("normalizing record: %w", err)
		}
		l.DateFound = now
		out = append(out, l)
	}
	return out, nil
}

// filter drops listings without an ID or missing a required field,
// matching the job blacklist or repeating an ID already seen in the batch.
func (p *Pipeline) filter(_ context.Context, rc *RunContext, in []domain.Listing) ([]domain.Listing, error) {
	required := rc.Provider.RequiredFields()
	seen := make(map[string]bool, len(in))
	out := make([]domain.Listing, 0, len(in))
	var incomplete, blacklisted, repeated int

	for i := range in {
		l := &in[i]
		if l.ID == "" || !hasFields(l, required) {
			incomplete++
			continue
		}
		if l.Blacklisted(rc.Job.Blacklist) {
			blacklisted++
			continue
		}
		if seen[l.ID] {
			repeated++
			continue
		}
		seen[l.ID] = true
		out = append(out, *l)
	}

	if dropped := incomplete + blacklisted + repeated; dropped > 0 {
		p.log.Debug("filtered listings",
			"incomplete", incomplete,
			"blacklisted", blacklisted,
			"repeated", repeated,
		)
	}
	return out, nil
}

func hasFields(l *domain.Listing, names []string) bool {
	for _, name := range names {
		v, ok := l.Field(name)
		if !ok || v == "" {
			return false
		}
	}
	return true
}

func (p *Pipeline) dedup(ctx context.Context, rc *RunContext, in []domain.Listing) ([]domain.Listing, error) {
	hashes, err := p.deps.Listings.KnownHashes(ctx, rc.Job.ID, rc.ProviderID())
	if err != nil {
		return nil, fmt.Errorf("loading known hashes: %w", err)
	}
	known := make(map[string]struct{}, len(hashes))
	for _, h := range hashes {
		known[h] = struct{}{}
	}

	out := make([]domain.Listing, 0, len(in))
	for i := range in {
		if _, ok := known[in[i].ID]; !ok {
			out = append(out, in[i])
		}
	}

	metrics.ListingsNewTotal.WithLabelValues(rc.ProviderID()).Add(float64(len(out)))
	if len(out) == 0 {
		return nil, ErrNoNewListings
	}
	return out, nil
}

// geocode resolves listing addresses and, when the job has a destination,
// the distance to it. Misses leave the listing for the backfill sweep.
func (p *Pipeline) geocode(ctx context.Context, rc *RunContext, in []domain.Listing) ([]domain.Listing, error) {
	if p.deps.Geocoder == nil {
		return in, nil
	}
	for i := range in {
		l := &in[i]
		if l.Address == "" {
			continue
		}
		c, ok := p.deps.Geocoder.Geocode(ctx, l.Address)
		if !ok {
			continue
		}
		l.SetCoordinates(*c)
		if dest := rc.Job.Destination; dest != nil {
			d := geo.Distance(c.Lat, c.Lng, dest.Lat, dest.Lng)
			l.DistanceToDestination = &d
		}
	}
	return in, nil
}

func (p *Pipeline) persistRaw(ctx context.Context, rc *RunContext, in []domain.Listing) ([]domain.Listing, error) {
	if err := p.deps.Listings.StoreListings(ctx, rc.Job.ID, rc.ProviderID(), in); err != nil {
		return nil, fmt.Errorf("storing listings: %w", err)
	}
	return in, nil
}

// similarity drops listings resembling one already notified for the job,
// including earlier listings of the same batch.
func (p *Pipeline) similarity(_ context.Context, rc *RunContext, in []domain.Listing) ([]domain.Listing, error) {
	out := make([]domain.Listing, 0, len(in))
	for i := range in {
		l := &in[i]
		if !p.similar.Claim(l.Title, l.Address) {
			metrics.ListingsSimilarTotal.WithLabelValues(rc.ProviderID()).Inc()
			p.log.Debug("suppressed similar listing", "id", l.ID, "title", l.Title)
			continue
		}
		out = append(out, *l)
	}
	if len(out) == 0 {
		return nil, ErrNoNewListings
	}
	return out, nil
}

// notify dispatches the batch. Partial adapter failures are logged; the run
// fails only when every matched adapter failed.
func (p *Pipeline) notify(ctx context.Context, rc *RunContext, in []domain.Listing) ([]domain.Listing, error) {
	res, err := p.deps.Notifier.Dispatch(ctx, rc.ProviderID(), in, rc.Job.Notifications, rc.Job.ID)
	if res.Matched == 0 {
		p.log.Warn("no notification adapter matched", "configs", len(rc.Job.Notifications))
		return nil, ErrNoNewListings
	}
	if err != nil {
		if res.Failed >= res.Matched {
			return nil, fmt.Errorf("dispatching notifications: %w", err)
		}
		p.log.Error("some notifications failed",
			"error", err,
			"failed", res.Failed,
			"matched", res.Matched,
		)
	}
	rc.notified = in
	return in, nil
}

// enhance fills the job's custom fields from each listing's detail page.
// A failing listing keeps nil values and records the error.
func (p *Pipeline) enhance(ctx context.Context, rc *RunContext, in []domain.Listing) ([]domain.Listing, error) {
	fields := rc.Job.CustomFields
	if len(fields) == 0 {
		return in, nil
	}

	for i := range in {
		if err := p.sleep(ctx, p.enhanceDelay()); err != nil {
			return nil, err
		}
		l := &in[i]
		values, err := p.extractFields(ctx, l.Link, fields)
		if err != nil {
			metrics.EnhanceFailuresTotal.Inc()
			p.log.Warn("enhancing listing failed", "id", l.ID, "link", l.Link, "error", err)
			values = make(map[string]any, len(fields))
			for _, f := range fields {
				values[f.Name] = nil
			}
			l.EnhanceError = err.Error()
		}
		l.CustomFields = values
	}
	return in, nil
}

func (p *Pipeline) extractFields(ctx context.Context, link string, fields []domain.CustomField) (map[string]any, error) {
	if p.deps.Fields == nil || p.deps.Pages == nil {
		return nil, errNoExtractor
	}
	page, err := p.deps.Pages.PageText(ctx, link)
	if err != nil {
		return nil, fmt.Errorf("reading detail page: %w", err)
	}
	start := time.Now()
	values, err := p.deps.Fields.ExtractFields(ctx, page, fields)
	metrics.ExtractionDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	return values, nil
}

// waypoints computes travel info to each job waypoint. Without a router
// every waypoint is N/A.
func (p *Pipeline) waypoints(ctx context.Context, rc *RunContext, in []domain.Listing) ([]domain.Listing, error) {
	wps := rc.Job.Waypoints
	if len(wps) == 0 {
		return in, nil
	}
	for i := range in {
		l := &in[i]
		if p.deps.Waypoints != nil {
			p.deps.Waypoints.Enrich(ctx, l, wps)
			continue
		}
		l.Travel = make(map[string]domain.TravelInfo, len(wps))
		for _, wp := range wps {
			l.Travel[wp.ID] = domain.Unavailable()
		}
	}
	return in, nil
}

func (p *Pipeline) persistEnriched(ctx context.Context, rc *RunContext, in []domain.Listing) ([]domain.Listing, error) {
	if err := p.deps.Enriched.RegisterSchema(ctx, rc.Job.ID, rc.Job.EnrichedSchema()); err != nil {
		return nil, fmt.Errorf("registering schema: %w", err)
	}
	if err := p.deps.Enriched.AddEnrichedListings(ctx, rc.Job.ID, in); err != nil {
		return nil, fmt.Errorf("storing enriched listings: %w", err)
	}
	return in, nil
}
