package geo

import (
	"context"
	"fmt"

	domain "github.com/donaldgifford/listing-tracker/pkg/types"
)

// ListingStore exposes stored listings that still lack coordinates.
type ListingStore interface {
	UngeocodedListings(ctx context.Context, limit int) ([]domain.Listing, error)
	UpdateCoordinates(ctx context.Context, listingID string, c domain.Coordinates) error
}

// BackfillSweep geocodes up to limit stored listings that have no
// coordinates yet. Addresses the remote cannot resolve are marked with the
// NotFound sentinel so they are not retried. The sweep stops early when
// remote lookups are paused. It returns the number of listings updated.
func (g *Geocoder) BackfillSweep(ctx context.Context, listings ListingStore, limit int) (int, error) {
	pending, err := listings.UngeocodedListings(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("listing ungeocoded listings: %w", err)
	}

	updated := 0
	for i := range pending {
		if err := ctx.Err(); err != nil {
			return updated, err
		}
		if g.IsPaused() {
			g.log.Info("geocode backfill stopped, remote paused",
				"updated", updated, "remaining", len(pending)-i)
			break
		}

		l := &pending[i]
		c, res := g.resolve(ctx, l.Address)

		var target domain.Coordinates
		switch res {
		case resultResolved:
			target = *c
		case resultNotFound:
			target = domain.NotFound
		default:
			continue
		}

		if err := listings.UpdateCoordinates(ctx, l.ID, target); err != nil {
			return updated, fmt.Errorf("updating coordinates for %s: %w", l.ID, err)
		}
		updated++
	}

	g.log.Debug("geocode backfill complete", "count", updated)
	return updated, nil
}
