package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/donaldgifford/listing-tracker/pkg/types"
)

func testListing(i int) domain.Listing {
	return domain.Listing{
		ID:      fmt.Sprintf("hash-%d", i),
		Title:   fmt.Sprintf("2-room flat #%d", i),
		Price:   "1.150 €",
		Size:    "54 m²",
		Address: "Hauptstraße 5, Berlin",
		Link:    fmt.Sprintf("https://example.test/expose/%d", i),
		Image:   "https://example.test/img.jpg",
	}
}

func testListings(n int) []domain.Listing {
	out := make([]domain.Listing, n)
	for i := range n {
		out[i] = testListing(i)
	}
	return out
}

type capturedPosts struct {
	mu       sync.Mutex
	payloads []discordWebhookPayload
}

func (c *capturedPosts) handler(status int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p discordWebhookPayload
		_ = json.NewDecoder(r.Body).Decode(&p)
		c.mu.Lock()
		c.payloads = append(c.payloads, p)
		c.mu.Unlock()
		w.WriteHeader(status)
	}
}

func TestDiscordAdapter_Send(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		listings     int
		statusCode   int
		wantErr      bool
		errMsg       string
		wantMessages int
	}{
		{name: "single listing", listings: 1, statusCode: http.StatusNoContent, wantMessages: 1},
		{name: "exactly ten embeds", listings: 10, statusCode: http.StatusNoContent, wantMessages: 1},
		{name: "split across messages", listings: 23, statusCode: http.StatusNoContent, wantMessages: 3},
		{name: "rate limited", listings: 1, statusCode: http.StatusTooManyRequests, wantErr: true, errMsg: "rate limited", wantMessages: 1},
		{name: "server error", listings: 1, statusCode: http.StatusInternalServerError, wantErr: true, errMsg: "500", wantMessages: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			posts := &capturedPosts{}
			srv := httptest.NewServer(posts.handler(tt.statusCode))
			defer srv.Close()

			d := NewDiscordAdapter(srv.URL)
			err := d.Send(context.Background(), Message{
				ServiceName: "immowelt",
				JobKey:      "berlin-flats",
				NewListings: testListings(tt.listings),
			})

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				require.NoError(t, err)
			}

			require.Len(t, posts.payloads, tt.wantMessages)
			total := 0
			for _, p := range posts.payloads {
				assert.LessOrEqual(t, len(p.Embeds), discordMaxEmbeds)
				total += len(p.Embeds)
			}
			if !tt.wantErr {
				assert.Equal(t, tt.listings, total)
				assert.Contains(t, posts.payloads[0].Content, "berlin-flats")
			}
		})
	}
}

func TestDiscordAdapter_ConfigOverridesWebhook(t *testing.T) {
	t.Parallel()

	posts := &capturedPosts{}
	srv := httptest.NewServer(posts.handler(http.StatusNoContent))
	defer srv.Close()

	d := NewDiscordAdapter("http://127.0.0.1:1/unused")
	err := d.Send(context.Background(), Message{
		NewListings: testListings(1),
		Config:      domain.NotificationConfig{ID: "discord", Fields: map[string]string{"webhook_url": srv.URL}},
	})

	require.NoError(t, err)
	assert.Len(t, posts.payloads, 1)
}

func TestDiscordAdapter_NoWebhook(t *testing.T) {
	t.Parallel()

	err := NewDiscordAdapter("").Send(context.Background(), Message{NewListings: testListings(1)})
	require.Error(t, err)
}

func TestBuildEmbed(t *testing.T) {
	t.Parallel()

	l := testListing(1)
	dist := 2345.0
	l.DistanceToDestination = &dist

	e := buildEmbed(&l, "immowelt")

	assert.Equal(t, l.Title, e.Title)
	assert.Equal(t, l.Link, e.URL)
	assert.Equal(t, colorBlue, e.Color)
	require.NotNil(t, e.Thumbnail)
	assert.Equal(t, l.Image, e.Thumbnail.URL)
	assert.Equal(t, "immowelt", e.Footer.Text)

	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"Price", "Size", "Address", "Distance"}, names)
	assert.Equal(t, "2.3 km", e.Fields[3].Value)
}

func TestBuildEmbed_Sparse(t *testing.T) {
	t.Parallel()

	e := buildEmbed(&domain.Listing{Title: "bare"}, "p")

	assert.Empty(t, e.Fields)
	assert.Nil(t, e.Thumbnail)
	assert.Equal(t, colorGrey, e.Color)
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab…", truncate("abcdef", 3))
	assert.Equal(t, "äö…", truncate("äöüß", 3))
}
