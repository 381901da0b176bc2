package client

import (
	"context"
	"net/url"
	"strconv"

	domain "github.com/donaldgifford/listing-tracker/pkg/types"
)

// RunResult is one (job, provider) execution of a triggered run.
type RunResult struct {
	JobID      string `json:"job_id"`
	ProviderID string `json:"provider_id"`
	Outcome    string `json:"outcome"`
	Notified   int    `json:"notified"`
	Error      string `json:"error,omitempty"`
}

type triggerResponse struct {
	Results []RunResult `json:"results"`
}

// RunAll runs every enabled job on the server and waits for the results.
func (c *Client) RunAll(ctx context.Context) ([]RunResult, error) {
	var resp triggerResponse
	if err := c.post(ctx, "/api/v1/run", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// RunJob runs one job on the server.
func (c *Client) RunJob(ctx context.Context, jobID string) ([]RunResult, error) {
	var resp triggerResponse
	if err := c.post(ctx, "/api/v1/jobs/"+url.PathEscape(jobID)+"/run", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// ListRuns returns run history newest first. An empty jobID lists all jobs.
func (c *Client) ListRuns(ctx context.Context, jobID string, limit int) ([]domain.JobRun, error) {
	q := url.Values{}
	if jobID != "" {
		q.Set("job_id", jobID)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/api/v1/runs"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var runs []domain.JobRun
	if err := c.get(ctx, path, &runs); err != nil {
		return nil, err
	}
	return runs, nil
}
