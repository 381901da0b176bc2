package client

import (
	"context"
	"net/url"

	domain "github.com/donaldgifford/listing-tracker/pkg/types"
)

// ListJobs returns the stored job definitions.
func (c *Client) ListJobs(ctx context.Context, enabledOnly bool) ([]domain.Job, error) {
	path := "/api/v1/jobs"
	if enabledOnly {
		path += "?enabled=true"
	}
	var jobs []domain.Job
	if err := c.get(ctx, path, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// GetJob returns one job definition.
func (c *Client) GetJob(ctx context.Context, id string) (*domain.Job, error) {
	var job domain.Job
	if err := c.get(ctx, "/api/v1/jobs/"+url.PathEscape(id), &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// PutJob creates or replaces a job definition.
func (c *Client) PutJob(ctx context.Context, job *domain.Job) (*domain.Job, error) {
	var saved domain.Job
	if err := c.put(ctx, "/api/v1/jobs/"+url.PathEscape(job.ID), job, &saved); err != nil {
		return nil, err
	}
	return &saved, nil
}

// DeleteJob removes a job definition.
func (c *Client) DeleteJob(ctx context.Context, id string) error {
	return c.del(ctx, "/api/v1/jobs/"+url.PathEscape(id), nil)
}
