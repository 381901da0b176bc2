// Package store defines the persistence contracts of the listing pipeline
// and their PostgreSQL and in-memory implementations. Business logic
// depends on the interfaces only.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/donaldgifford/listing-tracker/pkg/types"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrSchemaMismatch is returned when enriched listings do not carry
	// every column of the job's registered schema.
	ErrSchemaMismatch = errors.New("listing does not match enriched schema")
)

// DedupStore remembers which listing hashes have been seen per job and
// provider.
type DedupStore interface {
	KnownHashes(ctx context.Context, jobID, providerID string) ([]string, error)
	// StoreListings is idempotent on (job, provider, hash).
	StoreListings(ctx context.Context, jobID, providerID string, listings []domain.Listing) error
}

// GeoStore caches geocoding results and tracks listings awaiting
// coordinates.
type GeoStore interface {
	CachedCoordinates(ctx context.Context, address string) (*domain.Coordinates, error)
	SaveCoordinates(ctx context.Context, address string, c domain.Coordinates) error
	UngeocodedListings(ctx context.Context, limit int) ([]domain.Listing, error)
	UpdateCoordinates(ctx context.Context, listingID string, c domain.Coordinates) error
}

// EnrichedListingStore persists fully enriched listings against a per-job
// schema.
type EnrichedListingStore interface {
	RegisterSchema(ctx context.Context, jobID string, cols []domain.ColumnDef) error
	Schema(ctx context.Context, jobID string) ([]domain.ColumnDef, error)
	// AddEnrichedListings rejects the whole batch with ErrSchemaMismatch if
	// any listing misses a schema column.
	AddEnrichedListings(ctx context.Context, jobID string, listings []domain.Listing) error
}

// RunStore records pipeline executions.
type RunStore interface {
	InsertJobRun(ctx context.Context, run *domain.JobRun) error
	CompleteJobRun(ctx context.Context, run *domain.JobRun) error
	// ListJobRuns returns runs newest first. An empty jobID lists all jobs.
	ListJobRuns(ctx context.Context, jobID string, limit int) ([]domain.JobRun, error)
	// RecoverStaleJobRuns marks runs left running since before olderThan as
	// failed and returns how many it marked.
	RecoverStaleJobRuns(ctx context.Context, olderThan time.Duration) (int, error)
}

// ListingReader pages through stored listings.
type ListingReader interface {
	ListListings(ctx context.Context, q *ListingQuery) ([]domain.Listing, int, error)
}

// Store is everything the pipeline persists.
type Store interface {
	DedupStore
	GeoStore
	EnrichedListingStore
	RunStore
	ListingReader

	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close()
}

// ValidateAgainstSchema checks that every listing carries every column in
// cols. Base columns are always present; custom field and waypoint columns
// must have been set, even if to nil.
func ValidateAgainstSchema(cols []domain.ColumnDef, listings []domain.Listing) error {
	var errs []error
	for i := range listings {
		rec := listings[i].Record()
		for _, c := range cols {
			if _, ok := rec[c.Name]; !ok {
				errs = append(errs, fmt.Errorf("listing %s: missing column %q", listings[i].ID, c.Name))
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrSchemaMismatch, errors.Join(errs...))
	}
	return nil
}
