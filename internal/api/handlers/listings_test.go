package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/listing-tracker/internal/api/handlers"
	"github.com/donaldgifford/listing-tracker/internal/store"
	domain "github.com/donaldgifford/listing-tracker/pkg/types"
)

type listingsBody struct {
	Listings []domain.Listing `json:"listings"`
	Total    int              `json:"total"`
	Limit    int              `json:"limit"`
	Offset   int              `json:"offset"`
}

func TestListListings(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := store.NewMemoryStore()
	found := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, s.StoreListings(ctx, "berlin", "example", []domain.Listing{
		{ID: "a", Title: "Loft", Address: "Main St 1", Link: "https://example.com/a", DateFound: found},
		{ID: "b", Title: "Flat", Link: "https://example.com/b", DateFound: found.Add(time.Hour)},
	}))
	require.NoError(t, s.StoreListings(ctx, "hamburg", "other", []domain.Listing{
		{ID: "c", Title: "House", Link: "https://other.example.com/c", DateFound: found},
	}))
	require.NoError(t, s.UpdateCoordinates(ctx, "a", domain.Coordinates{Lat: 52.5, Lng: 13.4}))

	_, api := humatest.New(t)
	handlers.RegisterListingRoutes(api, handlers.NewListingsHandler(s))

	tests := []struct {
		name      string
		path      string
		wantIDs   []string
		wantTotal int
		wantLimit int
	}{
		{name: "all", path: "/api/v1/listings", wantIDs: []string{"b", "a", "c"}, wantTotal: 3, wantLimit: 50},
		{name: "by job", path: "/api/v1/listings?job_id=berlin", wantIDs: []string{"b", "a"}, wantTotal: 2, wantLimit: 50},
		{name: "by provider", path: "/api/v1/listings?provider_id=other", wantIDs: []string{"c"}, wantTotal: 1, wantLimit: 50},
		{name: "geocoded", path: "/api/v1/listings?geocoded=true", wantIDs: []string{"a"}, wantTotal: 1, wantLimit: 50},
		{name: "paged", path: "/api/v1/listings?limit=1&offset=1", wantIDs: []string{"a"}, wantTotal: 3, wantLimit: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := api.Get(tt.path)
			require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

			var body listingsBody
			require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))

			var ids []string
			for _, l := range body.Listings {
				ids = append(ids, l.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, tt.wantTotal, body.Total)
			assert.Equal(t, tt.wantLimit, body.Limit)
		})
	}
}

func TestListListings_RejectsBadGeocodedFilter(t *testing.T) {
	t.Parallel()

	_, api := humatest.New(t)
	handlers.RegisterListingRoutes(api, handlers.NewListingsHandler(store.NewMemoryStore()))

	resp := api.Get("/api/v1/listings?geocoded=maybe")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
}
