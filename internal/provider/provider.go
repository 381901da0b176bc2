// Package provider adapts classified-ad sources to the listing pipeline.
// Providers are registered explicitly at startup.
package provider

import (
	"context"
	"fmt"
	"sort"

	"github.com/donaldgifford/listing-tracker/internal/scrape"
	domain "github.com/donaldgifford/listing-tracker/pkg/types"
)

// Info describes a provider for logs and the API.
type Info struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	BaseURL string `json:"base_url"`
}

// Provider turns a job's search URL into canonical listings.
type Provider interface {
	Info() Info
	// NewestFirstURL rewrites a search URL to sort newest first. Pure.
	NewestFirstURL(searchURL string) string
	// Query builds the extraction query for a prepared URL.
	Query(searchURL string) scrape.Query
	// Normalize maps a raw record to a listing. Its ID is derived from
	// stable fields only; it is empty when the record has no identity.
	Normalize(rec domain.RawRecord) (domain.Listing, error)
	// RequiredFields names the listing fields every kept listing must have.
	RequiredFields() []string
}

// ListingsFetcher is implemented by providers that produce listings
// directly, bypassing fetch and normalize.
type ListingsFetcher interface {
	GetListings(ctx context.Context, searchURL string) ([]domain.Listing, error)
}

// Registry holds the providers known to the process.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry registers providers. Duplicate IDs are an error.
func NewRegistry(providers ...Provider) (*Registry, error) {
	r := &Registry{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		id := p.Info().ID
		if _, ok := r.providers[id]; ok {
			return nil, fmt.Errorf("provider %q registered twice", id)
		}
		r.providers[id] = p
	}
	return r, nil
}

// Get returns the provider with id.
func (r *Registry) Get(id string) (Provider, bool) {
	p, ok := r.providers[id]
	return p, ok
}

// Infos returns every registered provider sorted by ID.
func (r *Registry) Infos() []Info {
	infos := make([]Info, 0, len(r.providers))
	for _, p := range r.providers {
		infos = append(infos, p.Info())
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}
