package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/listing-tracker/internal/store"
	"github.com/donaldgifford/listing-tracker/internal/store/sqlite"
	domain "github.com/donaldgifford/listing-tracker/pkg/types"
)

func openStore(t *testing.T) *sqlite.JobStore {
	t.Helper()
	s, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "jobs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func job(id string, enabled bool) *domain.Job {
	return &domain.Job{
		ID:        id,
		Name:      "Flats " + id,
		Enabled:   enabled,
		Providers: []domain.JobProvider{{ID: "example", URL: "https://example.test/search"}},
		Waypoints: []domain.Waypoint{{ID: "work", Location: "52.5,13.4", TransportMode: domain.ModeWalking}},
		Blacklist: []string{"WG"},
	}
}

func TestJobStore_SaveAndGet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := openStore(t)

	require.NoError(t, s.SaveJob(ctx, job("a", true)))

	got, err := s.GetJob(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, job("a", true), got)

	updated := job("a", false)
	updated.Name = "Renamed"
	require.NoError(t, s.SaveJob(ctx, updated))

	got, err = s.GetJob(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.False(t, got.Enabled)

	_, err = s.GetJob(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestJobStore_SaveRejectsInvalidJob(t *testing.T) {
	t.Parallel()

	s := openStore(t)
	err := s.SaveJob(context.Background(), &domain.Job{ID: "x"})
	require.ErrorContains(t, err, "at least one provider")
}

func TestJobStore_ListJobs(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := openStore(t)
	require.NoError(t, s.SaveJob(ctx, job("b", true)))
	require.NoError(t, s.SaveJob(ctx, job("a", false)))
	require.NoError(t, s.SaveJob(ctx, job("c", true)))

	all, err := s.ListJobs(ctx, false)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "a", all[0].ID)

	enabled, err := s.ListJobs(ctx, true)
	require.NoError(t, err)
	require.Len(t, enabled, 2)
	assert.Equal(t, "b", enabled[0].ID)
	assert.Equal(t, "c", enabled[1].ID)
}

func TestJobStore_DeleteJob(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := openStore(t)
	require.NoError(t, s.SaveJob(ctx, job("a", true)))

	require.NoError(t, s.DeleteJob(ctx, "a"))
	require.ErrorIs(t, s.DeleteJob(ctx, "a"), store.ErrNotFound)

	jobs, err := s.ListJobs(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestJobStore_InMemory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, err := sqlite.Open(ctx, ":memory:")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Ping(ctx))
	require.NoError(t, s.SaveJob(ctx, job("a", true)))
	jobs, err := s.ListJobs(ctx, true)
	require.NoError(t, err)
	assert.Len(t, jobs, 1)
}
