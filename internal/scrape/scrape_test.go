package scrape_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/listing-tracker/internal/scrape"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeFetcher struct {
	html  string
	err   error
	calls []string
}

func (f *fakeFetcher) FetchPage(_ context.Context, url, waitSelector string) (string, error) {
	f.calls = append(f.calls, url+"|"+waitSelector)
	return f.html, f.err
}

const page = `<div class="ad" data-id="1"><h2>Loft</h2></div>`

func TestMulti_RoutesByQuery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		query       scrape.Query
		wantBrowser bool
	}{
		{name: "plain http", query: scrape.Query{URL: "u"}},
		{name: "browser flag", query: scrape.Query{URL: "u", Browser: true}, wantBrowser: true},
		{name: "wait selector implies browser", query: scrape.Query{URL: "u", WaitSelector: ".ad"}, wantBrowser: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			httpF := &fakeFetcher{html: page}
			browserF := &fakeFetcher{html: page}
			m := scrape.NewMulti(httpF, scrape.WithBrowser(browserF), scrape.WithLogger(quietLogger()))

			q := tt.query
			q.Container = "div.ad"
			q.Fields = map[string]string{"id": "@data-id", "title": "h2"}

			records, err := m.Fetch(context.Background(), q)
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.Equal(t, "Loft", records[0]["title"])

			if tt.wantBrowser {
				assert.Len(t, browserF.calls, 1)
				assert.Empty(t, httpF.calls)
			} else {
				assert.Len(t, httpF.calls, 1)
				assert.Empty(t, browserF.calls)
			}
		})
	}
}

func TestMulti_NoBrowserConfigured(t *testing.T) {
	t.Parallel()

	m := scrape.NewMulti(&fakeFetcher{}, scrape.WithLogger(quietLogger()))
	_, err := m.Fetch(context.Background(), scrape.Query{URL: "u", Browser: true})
	require.ErrorIs(t, err, scrape.ErrNoBrowser)
}

func TestMulti_FetchError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	m := scrape.NewMulti(&fakeFetcher{err: boom}, scrape.WithLogger(quietLogger()))
	_, err := m.Fetch(context.Background(), scrape.Query{URL: "u", Container: "div"})
	require.ErrorIs(t, err, boom)
}

func TestMulti_PageText(t *testing.T) {
	t.Parallel()

	m := scrape.NewMulti(&fakeFetcher{html: "<body><p>Balcony:  yes</p></body>"})
	text, err := m.PageText(context.Background(), "u")
	require.NoError(t, err)
	assert.Equal(t, "Balcony: yes", text)
}
