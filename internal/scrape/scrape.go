// Package scrape fetches provider search pages and extracts raw listing
// records from them with CSS selectors.
package scrape

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/donaldgifford/listing-tracker/internal/metrics"
	domain "github.com/donaldgifford/listing-tracker/pkg/types"
)

// ErrNoBrowser is returned when a query needs a browser and none is
// configured.
var ErrNoBrowser = errors.New("query requires a browser but none is configured")

// Query describes one search page extraction.
type Query struct {
	URL string
	// WaitSelector is awaited before the page is read. Browser only.
	WaitSelector string
	// Container selects one element per listing.
	Container string
	// Fields maps record keys to selectors relative to the container.
	// "sel" reads text, "sel@attr" reads an attribute and "@attr" reads an
	// attribute of the container itself.
	Fields  map[string]string
	Browser bool
}

// Extractor turns a search page into raw records.
type Extractor interface {
	Fetch(ctx context.Context, q Query) ([]domain.RawRecord, error)
}

// PageFetcher returns the rendered HTML of a page.
type PageFetcher interface {
	FetchPage(ctx context.Context, url, waitSelector string) (string, error)
}

// Multi routes queries to an HTTP or a browser fetcher and parses the
// returned HTML.
type Multi struct {
	http    PageFetcher
	browser PageFetcher
	log     *slog.Logger
}

// MultiOption configures Multi.
type MultiOption func(*Multi)

// WithBrowser sets the fetcher used for browser queries.
func WithBrowser(f PageFetcher) MultiOption {
	return func(m *Multi) {
		m.browser = f
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) MultiOption {
	return func(m *Multi) {
		m.log = l
	}
}

// NewMulti creates an extractor backed by httpFetcher.
func NewMulti(httpFetcher PageFetcher, opts ...MultiOption) *Multi {
	m := &Multi{
		http: httpFetcher,
		log:  slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Fetch loads q.URL and extracts one record per container match.
func (m *Multi) Fetch(ctx context.Context, q Query) ([]domain.RawRecord, error) {
	html, err := m.Page(ctx, q.URL, q.WaitSelector, q.Browser)
	if err != nil {
		return nil, err
	}
	records, err := ParseRecords(html, q.Container, q.Fields)
	if err != nil {
		return nil, err
	}
	m.log.Debug("extracted records", "url", q.URL, "count", len(records))
	return records, nil
}

// Page returns the HTML of url, rendered in the browser when browser is set
// or a wait selector is given.
func (m *Multi) Page(ctx context.Context, url, waitSelector string, browser bool) (string, error) {
	mode := "http"
	f := m.http
	if browser || waitSelector != "" {
		mode = "browser"
		f = m.browser
	}
	if f == nil {
		return "", ErrNoBrowser
	}

	start := time.Now()
	html, err := f.FetchPage(ctx, url, waitSelector)
	metrics.PageFetchDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.PageFetchErrorsTotal.WithLabelValues(mode).Inc()
		return "", err
	}
	return html, nil
}

// PageText returns the visible text of url, whitespace collapsed. Used to
// feed detail pages to the field extractor.
func (m *Multi) PageText(ctx context.Context, url string) (string, error) {
	html, err := m.Page(ctx, url, "", false)
	if err != nil {
		return "", err
	}
	return VisibleText(html)
}
