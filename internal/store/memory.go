package store

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	domain "github.com/donaldgifford/listing-tracker/pkg/types"
)

type listingKey struct {
	jobID, providerID, hash string
}

type storedListing struct {
	jobID, providerID string
	listing           domain.Listing
}

// MemoryStore is a process-local Store used when no database is configured
// and in tests. Nothing survives a restart.
type MemoryStore struct {
	mu       sync.RWMutex
	listings map[listingKey]*storedListing
	geocodes map[string]domain.Coordinates
	schemas  map[string][]domain.ColumnDef
	enriched map[string]map[string]map[string]any
	runs     []domain.JobRun
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		listings: make(map[listingKey]*storedListing),
		geocodes: make(map[string]domain.Coordinates),
		schemas:  make(map[string][]domain.ColumnDef),
		enriched: make(map[string]map[string]map[string]any),
	}
}

func (*MemoryStore) Ping(context.Context) error    { return nil }
func (*MemoryStore) Migrate(context.Context) error { return nil }
func (*MemoryStore) Close()                        {}

func (m *MemoryStore) KnownHashes(_ context.Context, jobID, providerID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var hashes []string
	for k := range m.listings {
		if k.jobID == jobID && k.providerID == providerID {
			hashes = append(hashes, k.hash)
		}
	}
	sort.Strings(hashes)
	return hashes, nil
}

func (m *MemoryStore) StoreListings(_ context.Context, jobID, providerID string, listings []domain.Listing) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range listings {
		k := listingKey{jobID: jobID, providerID: providerID, hash: listings[i].ID}
		if _, ok := m.listings[k]; ok {
			continue
		}
		l := listings[i]
		if l.DateFound.IsZero() {
			l.DateFound = time.Now()
		}
		m.listings[k] = &storedListing{jobID: jobID, providerID: providerID, listing: l}
	}
	return nil
}

func (m *MemoryStore) CachedCoordinates(_ context.Context, address string) (*domain.Coordinates, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.geocodes[address]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (m *MemoryStore) SaveCoordinates(_ context.Context, address string, c domain.Coordinates) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.geocodes[address] = c
	return nil
}

func (m *MemoryStore) UngeocodedListings(_ context.Context, limit int) ([]domain.Listing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]bool)
	var out []domain.Listing
	for _, s := range m.listings {
		l := s.listing
		if l.Latitude != nil || strings.TrimSpace(l.Address) == "" || seen[l.ID] {
			continue
		}
		seen[l.ID] = true
		out = append(out, domain.Listing{ID: l.ID, Address: l.Address})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) UpdateCoordinates(_ context.Context, listingID string, c domain.Coordinates) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for k, s := range m.listings {
		if k.hash == listingID {
			s.listing.SetCoordinates(c)
		}
	}
	return nil
}

func (m *MemoryStore) RegisterSchema(_ context.Context, jobID string, cols []domain.ColumnDef) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schemas[jobID] = slices.Clone(cols)
	return nil
}

func (m *MemoryStore) Schema(_ context.Context, jobID string) ([]domain.ColumnDef, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cols, ok := m.schemas[jobID]
	if !ok {
		return nil, ErrNotFound
	}
	return slices.Clone(cols), nil
}

func (m *MemoryStore) AddEnrichedListings(ctx context.Context, jobID string, listings []domain.Listing) error {
	if len(listings) == 0 {
		return nil
	}

	cols, err := m.Schema(ctx, jobID)
	if err != nil {
		return fmt.Errorf("%w: no schema registered for job %s", ErrSchemaMismatch, jobID)
	}
	if err := ValidateAgainstSchema(cols, listings); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rows, ok := m.enriched[jobID]
	if !ok {
		rows = make(map[string]map[string]any)
		m.enriched[jobID] = rows
	}
	for i := range listings {
		rows[listings[i].ID] = listings[i].Record()
	}
	return nil
}

// EnrichedListings returns the stored records of a job keyed by hash.
func (m *MemoryStore) EnrichedListings(jobID string) map[string]map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]map[string]any, len(m.enriched[jobID]))
	for k, v := range m.enriched[jobID] {
		out[k] = v
	}
	return out
}

func (m *MemoryStore) InsertJobRun(_ context.Context, run *domain.JobRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	if run.Status == "" {
		run.Status = domain.RunRunning
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, *run)
	return nil
}

func (m *MemoryStore) CompleteJobRun(_ context.Context, run *domain.JobRun) error {
	if run.CompletedAt == nil {
		now := time.Now()
		run.CompletedAt = &now
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.runs {
		if m.runs[i].ID == run.ID {
			m.runs[i].CompletedAt = run.CompletedAt
			m.runs[i].Status = run.Status
			m.runs[i].Notified = run.Notified
			m.runs[i].ErrorText = run.ErrorText
			return nil
		}
	}
	return fmt.Errorf("completing job run %s: %w", run.ID, ErrNotFound)
}

func (m *MemoryStore) ListJobRuns(_ context.Context, jobID string, limit int) ([]domain.JobRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var runs []domain.JobRun
	for _, r := range m.runs {
		if jobID == "" || r.JobID == jobID {
			runs = append(runs, r)
		}
	}
	sort.SliceStable(runs, func(i, j int) bool { return runs[i].StartedAt.After(runs[j].StartedAt) })
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func (m *MemoryStore) RecoverStaleJobRuns(_ context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)

	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for i := range m.runs {
		if m.runs[i].Status == domain.RunRunning && m.runs[i].StartedAt.Before(cutoff) {
			now := time.Now()
			m.runs[i].Status = domain.RunFailed
			m.runs[i].CompletedAt = &now
			m.runs[i].ErrorText = "interrupted"
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) ListListings(_ context.Context, q *ListingQuery) ([]domain.Listing, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []domain.Listing
	for _, s := range m.listings {
		if q.JobID != nil && s.jobID != *q.JobID {
			continue
		}
		if q.ProviderID != nil && s.providerID != *q.ProviderID {
			continue
		}
		if q.Since != nil && s.listing.DateFound.Before(*q.Since) {
			continue
		}
		if q.Geocoded != nil {
			_, ok := s.listing.Coordinates()
			if ok != *q.Geocoded {
				continue
			}
		}
		matched = append(matched, s.listing)
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].DateFound.Equal(matched[j].DateFound) {
			return matched[i].DateFound.After(matched[j].DateFound)
		}
		return matched[i].ID < matched[j].ID
	})

	total := len(matched)
	limit, offset := q.Normalized()
	if offset >= total {
		return nil, total, nil
	}
	end := min(offset+limit, total)
	return matched[offset:end], total, nil
}
