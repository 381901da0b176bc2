package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/listing-tracker/internal/store"
	domain "github.com/donaldgifford/listing-tracker/pkg/types"
)

// JobStore defines the job definition methods required by the jobs handler.
type JobStore interface {
	ListJobs(ctx context.Context, enabledOnly bool) ([]domain.Job, error)
	GetJob(ctx context.Context, id string) (*domain.Job, error)
	SaveJob(ctx context.Context, job *domain.Job) error
	DeleteJob(ctx context.Context, id string) error
}

// JobsHandler serves job definitions.
type JobsHandler struct {
	store JobStore
}

// NewJobsHandler creates a new JobsHandler.
func NewJobsHandler(s JobStore) *JobsHandler {
	return &JobsHandler{store: s}
}

// ListJobsInput filters the job list.
type ListJobsInput struct {
	Enabled bool `query:"enabled" doc:"Only return enabled jobs"`
}

// ListJobsOutput is the response body for listing jobs.
type ListJobsOutput struct {
	Body []domain.Job
}

// JobIDInput addresses a single job.
type JobIDInput struct {
	ID string `path:"id" doc:"Job ID"`
}

// JobOutput is the response body for a single job.
type JobOutput struct {
	Body domain.Job
}

// PutJobInput creates or replaces a job.
type PutJobInput struct {
	ID   string `path:"id" doc:"Job ID"`
	Body domain.Job
}

// ListJobs returns the stored job definitions.
func (h *JobsHandler) ListJobs(ctx context.Context, input *ListJobsInput) (*ListJobsOutput, error) {
	jobs, err := h.store.ListJobs(ctx, input.Enabled)
	if err != nil {
		return nil, huma.Error500InternalServerError("listing jobs failed: " + err.Error())
	}
	if jobs == nil {
		jobs = []domain.Job{}
	}
	return &ListJobsOutput{Body: jobs}, nil
}

// GetJob returns one job definition.
func (h *JobsHandler) GetJob(ctx context.Context, input *JobIDInput) (*JobOutput, error) {
	job, err := h.store.GetJob(ctx, input.ID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, huma.Error404NotFound("job not found")
	}
	if err != nil {
		return nil, huma.Error500InternalServerError("getting job failed: " + err.Error())
	}
	return &JobOutput{Body: *job}, nil
}

// PutJob validates and stores a job definition. The path ID wins over the
// body.
func (h *JobsHandler) PutJob(ctx context.Context, input *PutJobInput) (*JobOutput, error) {
	job := input.Body
	job.ID = input.ID
	if err := job.Validate(); err != nil {
		return nil, huma.Error422UnprocessableEntity("invalid job: " + err.Error())
	}
	if err := h.store.SaveJob(ctx, &job); err != nil {
		return nil, huma.Error500InternalServerError("saving job failed: " + err.Error())
	}
	return &JobOutput{Body: job}, nil
}

// DeleteJob removes a job definition.
func (h *JobsHandler) DeleteJob(ctx context.Context, input *JobIDInput) (*struct{}, error) {
	err := h.store.DeleteJob(ctx, input.ID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, huma.Error404NotFound("job not found")
	}
	if err != nil {
		return nil, huma.Error500InternalServerError("deleting job failed: " + err.Error())
	}
	return nil, nil
}

// RegisterJobRoutes registers job endpoints with the Huma API.
func RegisterJobRoutes(api huma.API, h *JobsHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-jobs",
		Method:      http.MethodGet,
		Path:        "/api/v1/jobs",
		Summary:     "List jobs",
		Description: "Returns the stored job definitions ordered by ID.",
		Tags:        []string{"jobs"},
		Errors:      []int{http.StatusInternalServerError},
	}, h.ListJobs)

	huma.Register(api, huma.Operation{
		OperationID: "get-job",
		Method:      http.MethodGet,
		Path:        "/api/v1/jobs/{id}",
		Summary:     "Get a job",
		Tags:        []string{"jobs"},
		Errors:      []int{http.StatusNotFound, http.StatusInternalServerError},
	}, h.GetJob)

	huma.Register(api, huma.Operation{
		OperationID: "put-job",
		Method:      http.MethodPut,
		Path:        "/api/v1/jobs/{id}",
		Summary:     "Create or replace a job",
		Description: "Validates the job definition and stores it. Takes effect on the next sweep.",
		Tags:        []string{"jobs"},
		Errors:      []int{http.StatusUnprocessableEntity, http.StatusInternalServerError},
	}, h.PutJob)

	huma.Register(api, huma.Operation{
		OperationID:   "delete-job",
		Method:        http.MethodDelete,
		Path:          "/api/v1/jobs/{id}",
		Summary:       "Delete a job",
		Tags:          []string{"jobs"},
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusNotFound, http.StatusInternalServerError},
	}, h.DeleteJob)
}
