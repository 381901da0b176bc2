package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	apiclient "github.com/donaldgifford/listing-tracker/internal/api/client"
	"github.com/donaldgifford/listing-tracker/internal/pipeline"
	domain "github.com/donaldgifford/listing-tracker/pkg/types"
)

const timeLayout = "2006-01-02 15:04:05"

// tabWriter wraps tabwriter with error tracking.
type tabWriter struct {
	*tabwriter.Writer
	err error
}

func newTabWriter(w io.Writer) *tabWriter {
	return &tabWriter{Writer: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
}

func (tw *tabWriter) writef(format string, args ...any) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.Writer, format, args...)
}

func (tw *tabWriter) finish() error {
	if tw.err != nil {
		return tw.err
	}
	return tw.Flush()
}

// toRunResults converts engine results to the shape the API returns so
// local and remote runs print the same way.
func toRunResults(results []pipeline.Result) []apiclient.RunResult {
	out := make([]apiclient.RunResult, 0, len(results))
	for _, r := range results {
		rr := apiclient.RunResult{
			JobID:      r.JobID,
			ProviderID: r.ProviderID,
			Outcome:    r.Kind.String(),
			Notified:   r.Notified,
		}
		if r.Skipped {
			rr.Outcome = "skipped"
		}
		if r.Err != nil {
			rr.Error = r.Err.Error()
		}
		out = append(out, rr)
	}
	return out
}

func printRunResults(results []apiclient.RunResult) error {
	if jsonOutput() {
		return outputJSON(results)
	}
	if len(results) == 0 {
		fmt.Println("No enabled jobs.")
		return nil
	}
	return writeRunResultsTable(os.Stdout, results)
}

func writeRunResultsTable(w io.Writer, results []apiclient.RunResult) error {
	tw := newTabWriter(w)
	tw.writef("JOB\tPROVIDER\tOUTCOME\tNOTIFIED\tERROR\n")
	for _, r := range results {
		tw.writef("%s\t%s\t%s\t%d\t%s\n",
			r.JobID,
			r.ProviderID,
			r.Outcome,
			r.Notified,
			truncate(r.Error, 60),
		)
	}
	return tw.finish()
}

func printJobsTable(jobs []domain.Job) error {
	return writeJobsTable(os.Stdout, jobs)
}

func writeJobsTable(w io.Writer, jobs []domain.Job) error {
	tw := newTabWriter(w)
	tw.writef("ID\tNAME\tENABLED\tPROVIDERS\tNOTIFY\tFIELDS\tWAYPOINTS\n")
	for i := range jobs {
		j := &jobs[i]
		providers := make([]string, 0, len(j.Providers))
		for _, p := range j.Providers {
			providers = append(providers, p.ID)
		}
		notifications := make([]string, 0, len(j.Notifications))
		for _, n := range j.Notifications {
			notifications = append(notifications, n.ID)
		}
		tw.writef("%s\t%s\t%v\t%s\t%s\t%d\t%d\n",
			j.ID,
			truncate(j.Name, 30),
			j.Enabled,
			strings.Join(providers, ","),
			strings.Join(notifications, ","),
			len(j.CustomFields),
			len(j.Waypoints),
		)
	}
	return tw.finish()
}

func printRunsTable(runs []domain.JobRun) error {
	return writeRunsTable(os.Stdout, runs)
}

func writeRunsTable(w io.Writer, runs []domain.JobRun) error {
	tw := newTabWriter(w)
	tw.writef("JOB\tPROVIDER\tSTATUS\tNOTIFIED\tSTARTED\tCOMPLETED\tERROR\n")
	for i := range runs {
		r := &runs[i]
		completed := "-"
		if r.CompletedAt != nil {
			completed = r.CompletedAt.Format(timeLayout)
		}
		tw.writef("%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			r.JobID,
			r.ProviderID,
			r.Status,
			r.Notified,
			r.StartedAt.Format(timeLayout),
			completed,
			truncate(r.ErrorText, 40),
		)
	}
	return tw.finish()
}

func printListingsTable(listings []domain.Listing) error {
	return writeListingsTable(os.Stdout, listings)
}

func writeListingsTable(w io.Writer, listings []domain.Listing) error {
	tw := newTabWriter(w)
	tw.writef("ID\tTITLE\tPRICE\tSIZE\tADDRESS\tFOUND\n")
	for i := range listings {
		l := &listings[i]
		tw.writef("%s\t%s\t%s\t%s\t%s\t%s\n",
			truncate(l.ID, 24),
			truncate(l.Title, 40),
			orDash(l.Price),
			orDash(l.Size),
			truncate(orDash(l.Address), 30),
			l.DateFound.Format(timeLayout),
		)
	}
	return tw.finish()
}

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
