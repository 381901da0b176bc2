package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domain "github.com/donaldgifford/listing-tracker/pkg/types"
)

const defaultRunHistoryLimit = 20

// RunLister defines the store method required by the runs handler.
type RunLister interface {
	ListJobRuns(ctx context.Context, jobID string, limit int) ([]domain.JobRun, error)
}

// RunsHandler serves pipeline run history.
type RunsHandler struct {
	store RunLister
}

// NewRunsHandler creates a new RunsHandler.
func NewRunsHandler(s RunLister) *RunsHandler {
	return &RunsHandler{store: s}
}

// ListRunsInput filters run history.
type ListRunsInput struct {
	JobID string `query:"job_id" doc:"Only runs of this job"`
	Limit int    `query:"limit"  doc:"Number of runs (default 20)" minimum:"0" maximum:"500"`
}

// ListRunsOutput is the response body for run history.
type ListRunsOutput struct {
	Body []domain.JobRun
}

// ListRuns returns runs newest first.
func (h *RunsHandler) ListRuns(ctx context.Context, input *ListRunsInput) (*ListRunsOutput, error) {
	limit := input.Limit
	if limit == 0 {
		limit = defaultRunHistoryLimit
	}

	runs, err := h.store.ListJobRuns(ctx, input.JobID, limit)
	if err != nil {
		return nil, huma.Error500InternalServerError("listing runs failed: " + err.Error())
	}
	if runs == nil {
		runs = []domain.JobRun{}
	}
	return &ListRunsOutput{Body: runs}, nil
}

// RegisterRunRoutes registers run history endpoints with the Huma API.
func RegisterRunRoutes(api huma.API, h *RunsHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-runs",
		Method:      http.MethodGet,
		Path:        "/api/v1/runs",
		Summary:     "List pipeline runs",
		Description: "Returns (job, provider) executions newest first.",
		Tags:        []string{"runs"},
		Errors:      []int{http.StatusInternalServerError},
	}, h.ListRuns)
}
