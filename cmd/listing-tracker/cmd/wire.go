package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"

	"github.com/donaldgifford/listing-tracker/internal/config"
	"github.com/donaldgifford/listing-tracker/internal/geo"
	"github.com/donaldgifford/listing-tracker/internal/notify"
	"github.com/donaldgifford/listing-tracker/internal/pipeline"
	"github.com/donaldgifford/listing-tracker/internal/provider"
	"github.com/donaldgifford/listing-tracker/internal/ratelimit"
	"github.com/donaldgifford/listing-tracker/internal/scrape"
	"github.com/donaldgifford/listing-tracker/internal/store"
	"github.com/donaldgifford/listing-tracker/internal/store/sqlite"
	"github.com/donaldgifford/listing-tracker/internal/travel"
	"github.com/donaldgifford/listing-tracker/pkg/extract"
	"github.com/donaldgifford/listing-tracker/pkg/logger"
	domain "github.com/donaldgifford/listing-tracker/pkg/types"
)

// app holds every long-lived component built from the config.
type app struct {
	cfg       *config.Config
	log       *slog.Logger
	store     store.Store
	jobs      *sqlite.JobStore
	providers *provider.Registry
	scraper   *scrape.Multi
	browser   *scrape.BrowserFetcher
	geocoder  *geo.Geocoder
	engine    *pipeline.Engine
}

func newApp(ctx context.Context, cfg *config.Config, log *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log}

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	a.store = st

	a.jobs, err = sqlite.Open(ctx, cfg.JobStore.Path)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("opening job store: %w", err)
	}

	a.providers, err = provider.FromConfig(cfg.Providers)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("building providers: %w", err)
	}

	a.scraper, a.browser = newScraper(cfg, log)
	a.geocoder = newGeocoder(cfg, st, log)

	deps := pipeline.Deps{
		Extractor:       a.scraper,
		Listings:        st,
		Enriched:        st,
		Notifier:        newDispatcher(cfg.Notifications, log),
		Pages:           a.scraper,
		EnhanceMinDelay: cfg.Pipeline.EnhanceMinDelay,
		EnhanceMaxDelay: cfg.Pipeline.EnhanceMaxDelay,
	}
	if a.geocoder != nil {
		deps.Geocoder = a.geocoder
	}
	fields, err := newFieldExtractor(cfg.LLM)
	if err != nil {
		a.close()
		return nil, err
	}
	if fields != nil {
		deps.Fields = fields
	}
	if enricher := newEnricher(cfg, a.geocoder, log); enricher != nil {
		deps.Waypoints = enricher
	}

	a.engine = pipeline.NewEngine(a.jobs, a.providers, deps,
		pipeline.WithEngineLogger(logger.Component(log, "pipeline")),
		pipeline.WithRunStore(st),
		pipeline.WithConcurrency(cfg.Pipeline.Concurrency),
		pipeline.WithRunTimeout(cfg.Pipeline.RunTimeout),
		pipeline.WithSimilarityRetention(cfg.Pipeline.SimilarityRetention),
	)

	return a, nil
}

// backfill returns the geocode backfill task, or nil without a geocoder.
func (a *app) backfill() pipeline.BackfillFunc {
	if a.geocoder == nil {
		return nil
	}
	return func(ctx context.Context) (int, error) {
		return a.geocoder.BackfillSweep(ctx, a.store, a.cfg.Geocoding.BackfillBatch)
	}
}

func (a *app) close() {
	if a.engine != nil {
		a.engine.Close()
	}
	if a.browser != nil {
		a.browser.Close()
	}
	if a.jobs != nil {
		if err := a.jobs.Close(); err != nil {
			a.log.Warn("closing job store", "error", err)
		}
	}
	if a.store != nil {
		a.store.Close()
	}
}

func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (store.Store, error) {
	if !cfg.Database.Enabled() {
		log.Warn("no database configured, listing state is kept in memory")
		return store.NewMemoryStore(), nil
	}

	st, err := store.NewPostgresStore(ctx, cfg.Database.DSN(), int32(cfg.Database.PoolSize)) //nolint:gosec // pool size from config
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return st, nil
}

func newScraper(cfg *config.Config, log *slog.Logger) (*scrape.Multi, *scrape.BrowserFetcher) {
	scrapeLog := logger.Component(log, "scrape")
	opts := []scrape.MultiOption{scrape.WithLogger(scrapeLog)}

	var browser *scrape.BrowserFetcher
	if needsBrowser(cfg.Providers) {
		browser = scrape.NewBrowserFetcher(scrape.BrowserOptions{
			ExecPath:  cfg.Scrape.ChromePath,
			UserAgent: cfg.Scrape.UserAgent,
			Headless:  !cfg.Scrape.ShowBrowser,
			Timeout:   cfg.Scrape.BrowserTimeout,
			Logger:    scrapeLog,
		})
		opts = append(opts, scrape.WithBrowser(browser))
	}

	httpFetcher := scrape.NewHTTPFetcher(cfg.Scrape.Timeout, scrape.WithUserAgent(cfg.Scrape.UserAgent))
	return scrape.NewMulti(httpFetcher, opts...), browser
}

func needsBrowser(providers []config.ProviderConfig) bool {
	for i := range providers {
		if providers[i].Browser {
			return true
		}
	}
	return false
}

func newGeocoder(cfg *config.Config, cache geo.Cache, log *slog.Logger) *geo.Geocoder {
	if !cfg.Geocoding.Enabled {
		return nil
	}
	g := cfg.Geocoding
	limiter := ratelimit.New(g.RatePerSecond, 1, ratelimit.WithDailyLimit(g.DailyLimit))
	remote := geo.NewNominatimClient(g.Endpoint, g.UserAgent)
	return geo.NewGeocoder(cache, remote,
		geo.WithGeocoderLogger(logger.Component(log, "geocoder")),
		geo.WithLimiter(limiter),
		geo.WithDefaultPause(g.Pause),
	)
}

// newEnricher returns nil when routing is disabled; the pipeline then marks
// every waypoint unavailable.
func newEnricher(cfg *config.Config, geocoder *geo.Geocoder, log *slog.Logger) *travel.Enricher {
	if !cfg.Routing.Enabled {
		return nil
	}
	r := cfg.Routing

	opts := []travel.OSRMOption{
		travel.WithOSRMHTTPClient(&http.Client{Timeout: r.Timeout}),
		travel.WithOSRMLimiter(ratelimit.New(r.RatePerSecond, 1)),
	}
	modes := make([]string, 0, len(r.Profiles))
	for mode := range r.Profiles {
		modes = append(modes, mode)
	}
	sort.Strings(modes)
	for _, mode := range modes {
		opts = append(opts, travel.WithProfile(domain.TransportMode(mode), r.Profiles[mode]))
	}
	router := travel.NewOSRMClient(r.Endpoint, opts...)

	var wpGeocoder travel.Geocoder
	if geocoder != nil {
		wpGeocoder = geocoder
	}
	return travel.NewEnricher(router, wpGeocoder, travel.WithLogger(logger.Component(log, "travel")))
}

// newFieldExtractor returns nil when no LLM backend is configured.
func newFieldExtractor(cfg config.LLMConfig) (extract.FieldExtractor, error) {
	backend, err := newLLMBackend(cfg)
	if err != nil || backend == nil {
		return nil, err
	}
	return extract.NewLLMExtractor(backend, extract.WithMaxPageChars(cfg.MaxPageChars)), nil
}

func newLLMBackend(cfg config.LLMConfig) (extract.LLMBackend, error) {
	hc := &http.Client{Timeout: cfg.Timeout}
	switch cfg.Backend {
	case "", "none":
		return nil, nil
	case "ollama":
		return extract.NewOllamaBackend(cfg.Ollama.Endpoint, cfg.Ollama.Model,
			extract.WithOllamaHTTPClient(hc)), nil
	case "anthropic":
		return extract.NewAnthropicBackend(
			extract.WithAnthropicModel(cfg.Anthropic.Model),
			extract.WithAnthropicHTTPClient(hc),
		), nil
	case "openai_compat":
		return extract.NewOpenAICompatBackend(cfg.OpenAICompat.Endpoint, cfg.OpenAICompat.Model,
			extract.WithOpenAICompatHTTPClient(hc)), nil
	default:
		return nil, errors.New("unknown llm backend: " + cfg.Backend)
	}
}

func newDispatcher(cfg config.NotificationsConfig, log *slog.Logger) *notify.Dispatcher {
	notifyLog := logger.Component(log, "notify")

	var adapters []notify.Adapter
	if cfg.Discord.Enabled {
		adapters = append(adapters, notify.NewDiscordAdapter(cfg.Discord.WebhookURL))
	}
	if cfg.Webhook.Enabled {
		adapters = append(adapters, notify.NewWebhookAdapter(cfg.Webhook.URL,
			notify.WithHeaders(cfg.Webhook.Headers)))
	}
	if cfg.Console.Enabled {
		adapters = append(adapters, notify.NewConsoleAdapter(notifyLog))
	}

	return notify.NewDispatcher(
		notify.WithLogger(notifyLog),
		notify.WithAdapters(adapters...),
	)
}
