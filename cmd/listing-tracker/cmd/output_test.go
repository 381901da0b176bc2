package cmd

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apiclient "github.com/donaldgifford/listing-tracker/internal/api/client"
	"github.com/donaldgifford/listing-tracker/internal/pipeline"
	domain "github.com/donaldgifford/listing-tracker/pkg/types"
)

func TestToRunResults(t *testing.T) {
	t.Parallel()

	got := toRunResults([]pipeline.Result{
		{JobID: "flats", ProviderID: "example", Kind: pipeline.OutcomeNotified, Notified: 3},
		{JobID: "flats", ProviderID: "other", Kind: pipeline.OutcomeEmpty, Skipped: true},
		{JobID: "flats", ProviderID: "broken", Kind: pipeline.OutcomeFailed, Err: errors.New("fetch: timeout")},
	})

	assert.Equal(t, []apiclient.RunResult{
		{JobID: "flats", ProviderID: "example", Outcome: "notified", Notified: 3},
		{JobID: "flats", ProviderID: "other", Outcome: "skipped"},
		{JobID: "flats", ProviderID: "broken", Outcome: "failed", Error: "fetch: timeout"},
	}, got)
}

func TestWriteRunResultsTable(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, writeRunResultsTable(&buf, []apiclient.RunResult{
		{JobID: "flats", ProviderID: "example", Outcome: "notified", Notified: 2},
	}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, []string{"JOB", "PROVIDER", "OUTCOME", "NOTIFIED", "ERROR"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"flats", "example", "notified", "2"}, strings.Fields(lines[1]))
}

func TestWriteJobsTable(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, writeJobsTable(&buf, []domain.Job{{
		ID:            "flats",
		Name:          "Flats",
		Enabled:       true,
		Providers:     []domain.JobProvider{{ID: "a"}, {ID: "b"}},
		Notifications: []domain.NotificationConfig{{ID: "discord"}},
		CustomFields:  []domain.CustomField{{Name: "rooms"}},
	}}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, []string{"flats", "Flats", "true", "a,b", "discord", "1", "0"}, strings.Fields(lines[1]))
}

func TestWriteRunsTable(t *testing.T) {
	t.Parallel()

	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	completed := started.Add(time.Minute)

	var buf bytes.Buffer
	require.NoError(t, writeRunsTable(&buf, []domain.JobRun{
		{JobID: "flats", ProviderID: "a", Status: domain.RunRunning, StartedAt: started},
		{JobID: "flats", ProviderID: "b", Status: domain.RunNotified, Notified: 4, StartedAt: started, CompletedAt: &completed},
	}))

	out := buf.String()
	assert.Contains(t, out, "2026-03-01 12:01:00")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], " - ")
}

func TestWriteListingsTable(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, writeListingsTable(&buf, []domain.Listing{
		{ID: "l1", Title: "Flat A", Price: "900"},
	}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	fields := strings.Fields(lines[1])
	assert.Equal(t, "l1", fields[0])
	assert.Equal(t, "-", fields[4], "missing size")
	assert.Equal(t, "-", fields[5], "missing address")
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		max  int
		want string
	}{
		{in: "short", max: 10, want: "short"},
		{in: "exactly10!", max: 10, want: "exactly10!"},
		{in: "this is far too long", max: 10, want: "this is..."},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, truncate(tt.in, tt.max))
	}
}
