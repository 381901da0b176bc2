package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/listing-tracker/internal/config"
	"github.com/donaldgifford/listing-tracker/internal/notify"
	"github.com/donaldgifford/listing-tracker/internal/provider"
	"github.com/donaldgifford/listing-tracker/internal/scrape"
	scrapeMocks "github.com/donaldgifford/listing-tracker/internal/scrape/mocks"
	"github.com/donaldgifford/listing-tracker/internal/similarity"
	"github.com/donaldgifford/listing-tracker/internal/store"
	extractMocks "github.com/donaldgifford/listing-tracker/pkg/extract/mocks"
	domain "github.com/donaldgifford/listing-tracker/pkg/types"
)

// quietLogger returns a logger that discards output for tests.
func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingAdapter struct {
	id  string
	err error

	mu      sync.Mutex
	batches [][]domain.Listing
}

func (a *recordingAdapter) ID() string { return a.id }

func (a *recordingAdapter) Send(_ context.Context, msg notify.Message) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.batches = append(a.batches, msg.NewListings)
	return a.err
}

func (a *recordingAdapter) sent() [][]domain.Listing {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.batches
}

type staticPages map[string]string

func (p staticPages) PageText(_ context.Context, url string) (string, error) {
	page, ok := p[url]
	if !ok {
		return "", errors.New("unexpected status 404")
	}
	return page, nil
}

type fakeGeocoder map[string]domain.Coordinates

func (g fakeGeocoder) Geocode(_ context.Context, address string) (*domain.Coordinates, bool) {
	c, ok := g[address]
	if !ok {
		return nil, false
	}
	return &c, true
}

type panickingExtractor struct{}

func (panickingExtractor) Fetch(context.Context, scrape.Query) ([]domain.RawRecord, error) {
	panic("selector engine exploded")
}

type directProvider struct {
	*provider.SelectorProvider
	listings []domain.Listing
}

func (d directProvider) GetListings(context.Context, string) ([]domain.Listing, error) {
	return d.listings, nil
}

func testProvider() *provider.SelectorProvider {
	return provider.NewSelectorProvider(config.ProviderConfig{
		ID:             "example",
		BaseURL:        "https://example.com",
		SortParam:      "sort",
		SortValue:      "newest",
		Container:      ".ad",
		Fields:         map[string]string{"id": "@data-id", "title": ".title", "link": "a@href"},
		IDFields:       []string{"id"},
		RequiredFields: []string{"id", "title"},
	})
}

func flatRecords() []domain.RawRecord {
	return []domain.RawRecord{
		{"id": "1", "title": "Flat A", "link": "/ads/1"},
		{"id": "2", "title": "Flat B", "link": "/ads/2"},
	}
}

func testJob() *domain.Job {
	return &domain.Job{
		ID:            "flats",
		Enabled:       true,
		Providers:     []domain.JobProvider{{ID: "example", URL: "https://example.com/search?q=flat"}},
		Notifications: []domain.NotificationConfig{{ID: "recorder"}},
	}
}

type fixture struct {
	store     *store.MemoryStore
	extractor *scrapeMocks.MockExtractor
	adapter   *recordingAdapter
	similar   *similarity.Cache
	deps      Deps
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:     store.NewMemoryStore(),
		extractor: scrapeMocks.NewMockExtractor(t),
		adapter:   &recordingAdapter{id: "recorder"},
		similar:   similarity.New(),
	}
	f.deps = Deps{
		Extractor: f.extractor,
		Listings:  f.store,
		Enriched:  f.store,
		Notifier:  notify.NewDispatcher(notify.WithLogger(quietLogger()), notify.WithAdapters(f.adapter)),
	}
	return f
}

func (f *fixture) pipeline(job *domain.Job, p provider.Provider) *Pipeline {
	return New(f.deps, job, job.Providers[0], p, f.similar,
		WithLogger(quietLogger()),
		WithSleep(func(context.Context, time.Duration) error { return nil }),
	)
}

func hashes(t *testing.T, p provider.Provider, records []domain.RawRecord) []string {
	t.Helper()
	out := make([]string, 0, len(records))
	for _, r := range records {
		l, err := p.Normalize(r)
		require.NoError(t, err)
		out = append(out, l.ID)
	}
	return out
}

func TestPipeline_EndToEnd(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	p := testProvider()
	job := testJob()

	f.extractor.EXPECT().
		Fetch(mock.Anything, mock.MatchedBy(func(q scrape.Query) bool {
			return q.URL == "https://example.com/search?q=flat&sort=newest"
		})).
		Return(flatRecords(), nil).Once()

	out := f.pipeline(job, p).Execute(context.Background())

	require.Equal(t, OutcomeNotified, out.Kind, "err: %v", out.Err)
	require.NoError(t, out.Err)
	assert.Len(t, out.Listings, 2)

	sent := f.adapter.sent()
	require.Len(t, sent, 1)
	assert.Len(t, sent[0], 2)
	assert.Equal(t, "https://example.com/ads/1", sent[0][0].Link)

	known, err := f.store.KnownHashes(context.Background(), "flats", "example")
	require.NoError(t, err)
	assert.ElementsMatch(t, hashes(t, p, flatRecords()), known)

	assert.True(t, f.similar.Check("Flat A", ""))
	assert.True(t, f.similar.Check("Flat B", ""))

	assert.Len(t, f.store.EnrichedListings("flats"), 2)
}

func TestPipeline_KnownHashesShortCircuit(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	p := testProvider()
	job := testJob()

	var seen []domain.Listing
	for _, h := range hashes(t, p, flatRecords()) {
		seen = append(seen, domain.Listing{ID: h, Title: "old", Link: "https://example.com"})
	}
	require.NoError(t, f.store.StoreListings(context.Background(), "flats", "example", seen))

	f.extractor.EXPECT().Fetch(mock.Anything, mock.Anything).Return(flatRecords(), nil).Once()

	out := f.pipeline(job, p).Execute(context.Background())

	assert.Equal(t, OutcomeEmpty, out.Kind)
	require.NoError(t, out.Err)
	assert.Empty(t, f.adapter.sent())
}

func TestPipeline_SecondRunIsEmpty(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	p := testProvider()
	job := testJob()

	f.extractor.EXPECT().Fetch(mock.Anything, mock.Anything).Return(flatRecords(), nil).Twice()

	first := f.pipeline(job, p).Execute(context.Background())
	second := f.pipeline(job, p).Execute(context.Background())

	assert.Equal(t, OutcomeNotified, first.Kind)
	assert.Equal(t, OutcomeEmpty, second.Kind)
	assert.Len(t, f.adapter.sent(), 1)
}

func TestPipeline_Filter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		records   []domain.RawRecord
		blacklist []string
		wantIDs   []string
	}{
		{
			name: "missing required title",
			records: []domain.RawRecord{
				{"id": "1", "title": "Flat A"},
				{"id": "2"},
			},
			wantIDs: []string{"1"},
		},
		{
			name: "missing identity",
			records: []domain.RawRecord{
				{"title": "No id"},
				{"id": "2", "title": "Flat B"},
			},
			wantIDs: []string{"2"},
		},
		{
			name: "blacklisted title",
			records: []domain.RawRecord{
				{"id": "1", "title": "Flat A Tausch"},
				{"id": "2", "title": "Flat B"},
			},
			blacklist: []string{"Tausch"},
			wantIDs:   []string{"2"},
		},
		{
			name: "repeated id keeps first",
			records: []domain.RawRecord{
				{"id": "1", "title": "Flat A"},
				{"id": "1", "title": "Flat A again"},
			},
			wantIDs: []string{"1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			p := testProvider()
			job := testJob()
			job.Blacklist = tt.blacklist

			f.extractor.EXPECT().Fetch(mock.Anything, mock.Anything).Return(tt.records, nil).Once()

			out := f.pipeline(job, p).Execute(context.Background())
			require.Equal(t, OutcomeNotified, out.Kind, "err: %v", out.Err)

			var want []string
			for _, id := range tt.wantIDs {
				want = append(want, hashes(t, p, []domain.RawRecord{{"id": id}})...)
			}
			var got []string
			for _, l := range out.Listings {
				got = append(got, l.ID)
			}
			assert.Equal(t, want, got)
		})
	}
}

func TestPipeline_SimilarSuppressed(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	p := testProvider()
	job := testJob()
	f.similar.Add("Flat A", "")

	f.extractor.EXPECT().Fetch(mock.Anything, mock.Anything).Return([]domain.RawRecord{
		{"id": "1", "title": "Flat A"},
		{"id": "2", "title": "Flat A"},
		{"id": "3", "title": "Flat C"},
		{"id": "4", "title": "Flat C"},
	}, nil).Once()

	out := f.pipeline(job, p).Execute(context.Background())

	require.Equal(t, OutcomeNotified, out.Kind)
	require.Len(t, out.Listings, 1)
	assert.Equal(t, "Flat C", out.Listings[0].Title)

	// Suppressed listings are still remembered as seen.
	known, err := f.store.KnownHashes(context.Background(), "flats", "example")
	require.NoError(t, err)
	assert.Len(t, known, 4)
}

func TestPipeline_AllSimilarIsEmpty(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.similar.Add("Flat A", "")
	f.similar.Add("Flat B", "")
	f.extractor.EXPECT().Fetch(mock.Anything, mock.Anything).Return(flatRecords(), nil).Once()

	out := f.pipeline(testJob(), testProvider()).Execute(context.Background())

	assert.Equal(t, OutcomeEmpty, out.Kind)
	assert.Empty(t, f.adapter.sent())
}

func TestPipeline_NotifyPolicy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		notifications []domain.NotificationConfig
		adapterErr    error
		wantKind      OutcomeKind
		wantEnriched  int
	}{
		{
			name:          "no adapter matched",
			notifications: []domain.NotificationConfig{{ID: "telegram"}},
			wantKind:      OutcomeEmpty,
		},
		{
			name:          "every adapter failed",
			notifications: []domain.NotificationConfig{{ID: "recorder"}},
			adapterErr:    errors.New("webhook returned 500"),
			wantKind:      OutcomeFailed,
		},
		{
			name:          "delivered",
			notifications: []domain.NotificationConfig{{ID: "recorder"}, {ID: "telegram"}},
			wantKind:      OutcomeNotified,
			wantEnriched:  2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			f.adapter.err = tt.adapterErr
			job := testJob()
			job.Notifications = tt.notifications

			f.extractor.EXPECT().Fetch(mock.Anything, mock.Anything).Return(flatRecords(), nil).Once()

			out := f.pipeline(job, testProvider()).Execute(context.Background())

			assert.Equal(t, tt.wantKind, out.Kind)
			if tt.wantKind == OutcomeFailed {
				require.Error(t, out.Err)
				assert.Contains(t, out.Err.Error(), "notify")
			}
			assert.Len(t, f.store.EnrichedListings("flats"), tt.wantEnriched)
		})
	}
}

func TestPipeline_PartialNotifyFailureContinues(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	broken := &recordingAdapter{id: "broken", err: errors.New("connection refused")}
	f.deps.Notifier = notify.NewDispatcher(
		notify.WithLogger(quietLogger()),
		notify.WithAdapters(f.adapter, broken),
	)
	job := testJob()
	job.Notifications = append(job.Notifications, domain.NotificationConfig{ID: "broken"})

	f.extractor.EXPECT().Fetch(mock.Anything, mock.Anything).Return(flatRecords(), nil).Once()

	out := f.pipeline(job, testProvider()).Execute(context.Background())

	assert.Equal(t, OutcomeNotified, out.Kind)
	assert.Len(t, f.adapter.sent(), 1)
	assert.Len(t, broken.sent(), 1)
}

func TestPipeline_FetchErrorFails(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.extractor.EXPECT().Fetch(mock.Anything, mock.Anything).
		Return(nil, errors.New("unexpected status 503")).Once()

	out := f.pipeline(testJob(), testProvider()).Execute(context.Background())

	assert.Equal(t, OutcomeFailed, out.Kind)
	require.Error(t, out.Err)
	assert.Contains(t, out.Err.Error(), "fetch")
	assert.Contains(t, out.Err.Error(), "503")
	assert.Empty(t, out.Listings)
}

func TestPipeline_PanicBecomesFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.deps.Extractor = panickingExtractor{}

	out := f.pipeline(testJob(), testProvider()).Execute(context.Background())

	assert.Equal(t, OutcomeFailed, out.Kind)
	require.Error(t, out.Err)
	assert.Contains(t, out.Err.Error(), "selector engine exploded")
}

func TestPipeline_ListingsFetcherBypassesExtractor(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	p := directProvider{
		SelectorProvider: testProvider(),
		listings: []domain.Listing{
			{ID: "direct-1", Title: "Loft", Link: "https://example.com/loft"},
		},
	}

	out := f.pipeline(testJob(), p).Execute(context.Background())

	require.Equal(t, OutcomeNotified, out.Kind, "err: %v", out.Err)
	require.Len(t, out.Listings, 1)
	assert.Equal(t, "direct-1", out.Listings[0].ID)
	assert.False(t, out.Listings[0].DateFound.IsZero())
}

func TestPipeline_ListingsFetcherResultUntouched(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	owned := []domain.Listing{
		{ID: "a", Title: "SPAM flat", Link: "https://example.com/a"},
		{ID: "b", Title: "Loft", Link: "https://example.com/b"},
	}
	p := directProvider{SelectorProvider: testProvider(), listings: owned}
	job := testJob()
	job.Blacklist = []string{"SPAM"}
	job.Waypoints = []domain.Waypoint{{ID: "office"}}

	out := f.pipeline(job, p).Execute(context.Background())

	require.Equal(t, OutcomeNotified, out.Kind, "err: %v", out.Err)
	require.Len(t, out.Listings, 1)
	assert.Equal(t, "b", out.Listings[0].ID)

	assert.Equal(t, "a", owned[0].ID)
	assert.Equal(t, "SPAM flat", owned[0].Title)
	assert.Equal(t, "b", owned[1].ID)
	assert.True(t, owned[1].DateFound.IsZero())
	assert.Nil(t, owned[1].Travel)
}

func TestPipeline_EmptyIDDroppedWithoutRequiredID(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	p := provider.NewSelectorProvider(config.ProviderConfig{
		ID:             "example",
		BaseURL:        "https://example.com",
		Container:      ".ad",
		Fields:         map[string]string{"id": "@data-id", "title": ".title"},
		IDFields:       []string{"id"},
		RequiredFields: []string{"title"},
	})
	records := []domain.RawRecord{
		{"title": "No id A"},
		{"title": "No id B"},
		{"id": "3", "title": "Flat C"},
	}
	f.extractor.EXPECT().Fetch(mock.Anything, mock.Anything).Return(records, nil).Once()

	out := f.pipeline(testJob(), p).Execute(context.Background())

	require.Equal(t, OutcomeNotified, out.Kind, "err: %v", out.Err)
	require.Len(t, out.Listings, 1)
	assert.Equal(t, "Flat C", out.Listings[0].Title)

	known, err := f.store.KnownHashes(context.Background(), "flats", "example")
	require.NoError(t, err)
	assert.NotContains(t, known, "")
	assert.Len(t, known, 1)
}

type failingNormalizer struct {
	*provider.SelectorProvider
}

func (failingNormalizer) Normalize(domain.RawRecord) (domain.Listing, error) {
	return domain.Listing{}, errors.New("price is not a number")
}

type rejectingEnriched struct {
	store.EnrichedListingStore
}

func (rejectingEnriched) AddEnrichedListings(context.Context, string, []domain.Listing) error {
	return fmt.Errorf("%w: listing misses column rooms", store.ErrSchemaMismatch)
}

func TestPipeline_StageFatalErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		setup        func(f *fixture) provider.Provider
		wantErr      error
		wantContains string
		wantNotified int
	}{
		{
			name: "normalize error",
			setup: func(*fixture) provider.Provider {
				return failingNormalizer{testProvider()}
			},
			wantContains: "price is not a number",
		},
		{
			name: "enriched schema rejected",
			setup: func(f *fixture) provider.Provider {
				f.deps.Enriched = rejectingEnriched{f.store}
				return testProvider()
			},
			wantErr:      store.ErrSchemaMismatch,
			wantNotified: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			p := tt.setup(f)
			f.extractor.EXPECT().Fetch(mock.Anything, mock.Anything).Return(flatRecords(), nil).Once()

			out := f.pipeline(testJob(), p).Execute(context.Background())

			assert.Equal(t, OutcomeFailed, out.Kind)
			require.Error(t, out.Err)
			if tt.wantErr != nil {
				require.ErrorIs(t, out.Err, tt.wantErr)
			}
			if tt.wantContains != "" {
				assert.Contains(t, out.Err.Error(), tt.wantContains)
			}
			assert.Len(t, out.Listings, tt.wantNotified)
			assert.Len(t, f.adapter.sent(), min(tt.wantNotified, 1))
		})
	}
}

func TestPipeline_GeocodeAndDistance(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.deps.Geocoder = fakeGeocoder{"Alexanderplatz 1": {Lat: 52.5219, Lng: 13.4132}}
	job := testJob()
	job.Destination = &domain.Coordinates{Lat: 52.5219, Lng: 13.4132}

	f.extractor.EXPECT().Fetch(mock.Anything, mock.Anything).Return([]domain.RawRecord{
		{"id": "1", "title": "Flat A", "address": "Alexanderplatz 1"},
		{"id": "2", "title": "Flat B", "address": "Nowhere 99"},
	}, nil).Once()

	out := f.pipeline(job, testProvider()).Execute(context.Background())

	require.Equal(t, OutcomeNotified, out.Kind)
	require.Len(t, out.Listings, 2)

	c, ok := out.Listings[0].Coordinates()
	require.True(t, ok)
	assert.InDelta(t, 52.5219, c.Lat, 1e-9)
	require.NotNil(t, out.Listings[0].DistanceToDestination)
	assert.InDelta(t, 0, *out.Listings[0].DistanceToDestination, 1e-9)

	_, ok = out.Listings[1].Coordinates()
	assert.False(t, ok)
	assert.Nil(t, out.Listings[1].DistanceToDestination)
}

func TestPipeline_Enhance(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	fields := []domain.CustomField{
		{Name: "rooms", Description: "number of rooms", Type: "number"},
		{Name: "balcony", Description: "has a balcony", Type: "boolean"},
	}
	fx := extractMocks.NewMockFieldExtractor(t)
	fx.EXPECT().ExtractFields(mock.Anything, "two rooms, balcony", fields).
		Return(map[string]any{"rooms": 2.0, "balcony": true}, nil).Once()

	f.deps.Fields = fx
	f.deps.Pages = staticPages{"https://example.com/ads/1": "two rooms, balcony"}

	job := testJob()
	job.CustomFields = fields

	f.extractor.EXPECT().Fetch(mock.Anything, mock.Anything).Return(flatRecords(), nil).Once()

	out := f.pipeline(job, testProvider()).Execute(context.Background())

	require.Equal(t, OutcomeNotified, out.Kind, "err: %v", out.Err)
	require.Len(t, out.Listings, 2)

	assert.Equal(t, map[string]any{"rooms": 2.0, "balcony": true}, out.Listings[0].CustomFields)
	assert.Empty(t, out.Listings[0].EnhanceError)

	// The second detail page is missing: fields fall back to nil.
	assert.Equal(t, map[string]any{"rooms": nil, "balcony": nil}, out.Listings[1].CustomFields)
	assert.Contains(t, out.Listings[1].EnhanceError, "404")

	enriched := f.store.EnrichedListings("flats")
	require.Len(t, enriched, 2)
}

func TestPipeline_EnhanceDelaysEveryRequest(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.deps.EnhanceMinDelay = 2 * time.Second
	f.deps.EnhanceMaxDelay = 10 * time.Second
	job := testJob()
	job.CustomFields = []domain.CustomField{{Name: "rooms", Type: "number"}}

	f.extractor.EXPECT().Fetch(mock.Anything, mock.Anything).Return(flatRecords(), nil).Once()

	var (
		mu     sync.Mutex
		delays []time.Duration
	)
	pl := New(f.deps, job, job.Providers[0], testProvider(), f.similar,
		WithLogger(quietLogger()),
		WithSleep(func(_ context.Context, d time.Duration) error {
			mu.Lock()
			defer mu.Unlock()
			delays = append(delays, d)
			return nil
		}),
	)

	out := pl.Execute(context.Background())

	require.Equal(t, OutcomeNotified, out.Kind, "err: %v", out.Err)
	require.Len(t, delays, 2)
	for _, d := range delays {
		assert.GreaterOrEqual(t, d, 2*time.Second)
		assert.Less(t, d, 10*time.Second)
	}
}

func TestPipeline_EnhanceWithoutExtractor(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	job := testJob()
	job.CustomFields = []domain.CustomField{{Name: "rooms", Type: "number"}}

	f.extractor.EXPECT().Fetch(mock.Anything, mock.Anything).Return(flatRecords(), nil).Once()

	out := f.pipeline(job, testProvider()).Execute(context.Background())

	require.Equal(t, OutcomeNotified, out.Kind, "err: %v", out.Err)
	for _, l := range out.Listings {
		assert.Equal(t, map[string]any{"rooms": nil}, l.CustomFields)
		assert.Equal(t, errNoExtractor.Error(), l.EnhanceError)
	}
}

func TestPipeline_WaypointsWithoutRouter(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	job := testJob()
	job.Waypoints = []domain.Waypoint{
		{ID: "office", Location: "52.52,13.40", TransportMode: domain.ModeDriving},
	}

	f.extractor.EXPECT().Fetch(mock.Anything, mock.Anything).Return(flatRecords(), nil).Once()

	out := f.pipeline(job, testProvider()).Execute(context.Background())

	require.Equal(t, OutcomeNotified, out.Kind, "err: %v", out.Err)
	for _, l := range out.Listings {
		assert.Equal(t, domain.Unavailable(), l.Travel["office"])
	}
	for _, rec := range f.store.EnrichedListings("flats") {
		assert.Equal(t, domain.NotAvailable, rec[domain.TravelTimeColumn("office")])
	}
}

func TestOutcomeKind_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind OutcomeKind
		want string
	}{
		{OutcomeNotified, "notified"},
		{OutcomeEmpty, "empty"},
		{OutcomeFailed, "failed"},
		{OutcomeKind(42), "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.kind.String())
	}
}

func TestEnhanceDelay(t *testing.T) {
	t.Parallel()

	p := &Pipeline{deps: Deps{EnhanceMinDelay: time.Second, EnhanceMaxDelay: 3 * time.Second}}
	for range 50 {
		d := p.enhanceDelay()
		assert.GreaterOrEqual(t, d, time.Second)
		assert.Less(t, d, 3*time.Second)
	}

	p.deps.EnhanceMaxDelay = 0
	assert.Equal(t, time.Second, p.enhanceDelay())
}
