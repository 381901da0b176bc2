package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/listing-tracker/internal/store"
	domain "github.com/donaldgifford/listing-tracker/pkg/types"
)

// ListingLister defines the store method required by the listings handler.
type ListingLister interface {
	ListListings(ctx context.Context, q *store.ListingQuery) ([]domain.Listing, int, error)
}

// ListingsHandler handles listing query endpoints.
type ListingsHandler struct {
	store ListingLister
}

// NewListingsHandler creates a new ListingsHandler.
func NewListingsHandler(s ListingLister) *ListingsHandler {
	return &ListingsHandler{store: s}
}

// ListListingsInput is the input for listing stored listings.
type ListListingsInput struct {
	JobID      string    `query:"job_id"      doc:"Filter by job"`
	ProviderID string    `query:"provider_id" doc:"Filter by provider"`
	Since      time.Time `query:"since"       doc:"Only listings found at or after this time (RFC 3339)"`
	Geocoded   string    `query:"geocoded"    doc:"Filter by geocoding state" enum:"true,false,"`
	Limit      int       `query:"limit"       doc:"Number of results (default 50)" minimum:"0" maximum:"1000"`
	Offset     int       `query:"offset"      doc:"Pagination offset"              minimum:"0"`
}

// ListListingsOutput is the response for listing listings.
type ListListingsOutput struct {
	Body struct {
		Listings []domain.Listing `json:"listings"`
		Total    int              `json:"total"`
		Limit    int              `json:"limit"`
		Offset   int              `json:"offset"`
	}
}

// ListListings returns stored listings newest first.
func (h *ListingsHandler) ListListings(
	ctx context.Context,
	input *ListListingsInput,
) (*ListListingsOutput, error) {
	q := &store.ListingQuery{
		Limit:  input.Limit,
		Offset: input.Offset,
	}
	if input.JobID != "" {
		q.JobID = &input.JobID
	}
	if input.ProviderID != "" {
		q.ProviderID = &input.ProviderID
	}
	if !input.Since.IsZero() {
		q.Since = &input.Since
	}
	if input.Geocoded != "" {
		geocoded := input.Geocoded == "true"
		q.Geocoded = &geocoded
	}

	listings, total, err := h.store.ListListings(ctx, q)
	if err != nil {
		return nil, huma.Error500InternalServerError("listing query failed: " + err.Error())
	}
	if listings == nil {
		listings = []domain.Listing{}
	}

	limit, offset := q.Normalized()
	resp := &ListListingsOutput{}
	resp.Body.Listings = listings
	resp.Body.Total = total
	resp.Body.Limit = limit
	resp.Body.Offset = offset
	return resp, nil
}

// RegisterListingRoutes registers listing endpoints with the Huma API.
func RegisterListingRoutes(api huma.API, h *ListingsHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-listings",
		Method:      http.MethodGet,
		Path:        "/api/v1/listings",
		Summary:     "List listings",
		Description: "Returns stored listings newest first with optional job, provider and geocoding filters.",
		Tags:        []string{"listings"},
		Errors:      []int{http.StatusInternalServerError},
	}, h.ListListings)
}
