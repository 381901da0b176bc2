package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/listing-tracker/internal/pipeline"
	"github.com/donaldgifford/listing-tracker/internal/store"
)

// Runner triggers pipeline sweeps.
type Runner interface {
	RunAll(ctx context.Context) ([]pipeline.Result, error)
	RunJob(ctx context.Context, jobID string) ([]pipeline.Result, error)
}

// TriggerHandler handles manual run requests.
type TriggerHandler struct {
	runner Runner
}

// NewTriggerHandler creates a new TriggerHandler.
func NewTriggerHandler(r Runner) *TriggerHandler {
	return &TriggerHandler{runner: r}
}

// RunResult is one (job, provider) execution in a trigger response.
type RunResult struct {
	JobID      string `json:"job_id"`
	ProviderID string `json:"provider_id"`
	Outcome    string `json:"outcome"            example:"notified" doc:"notified, empty, failed or skipped"`
	Notified   int    `json:"notified"`
	Error      string `json:"error,omitempty"`
}

// TriggerOutput is the response body of a trigger.
type TriggerOutput struct {
	Body struct {
		Results []RunResult `json:"results"`
	}
}

// RunAll runs every enabled job and waits for the results.
func (h *TriggerHandler) RunAll(ctx context.Context, _ *struct{}) (*TriggerOutput, error) {
	results, err := h.runner.RunAll(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("sweep failed: " + err.Error())
	}
	return toTriggerOutput(results), nil
}

// RunJob runs one job, enabled or not.
func (h *TriggerHandler) RunJob(ctx context.Context, input *JobIDInput) (*TriggerOutput, error) {
	results, err := h.runner.RunJob(ctx, input.ID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, huma.Error404NotFound("job not found")
	}
	if err != nil {
		return nil, huma.Error500InternalServerError("run failed: " + err.Error())
	}
	return toTriggerOutput(results), nil
}

func toTriggerOutput(results []pipeline.Result) *TriggerOutput {
	out := &TriggerOutput{}
	out.Body.Results = make([]RunResult, 0, len(results))
	for _, r := range results {
		rr := RunResult{
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
		out.Body.Results = append(out.Body.Results, rr)
	}
	return out
}

// RegisterTriggerRoutes registers trigger endpoints with the Huma API.
func RegisterTriggerRoutes(api huma.API, h *TriggerHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "trigger-run",
		Method:      http.MethodPost,
		Path:        "/api/v1/run",
		Summary:     "Run all enabled jobs",
		Description: "Runs a full sweep and returns one result per (job, provider). " +
			"Pairs still running from a scheduled sweep are reported as skipped.",
		Tags:   []string{"runs"},
		Errors: []int{http.StatusInternalServerError},
	}, h.RunAll)

	huma.Register(api, huma.Operation{
		OperationID: "trigger-job-run",
		Method:      http.MethodPost,
		Path:        "/api/v1/jobs/{id}/run",
		Summary:     "Run one job",
		Tags:        []string{"runs"},
		Errors:      []int{http.StatusNotFound, http.StatusInternalServerError},
	}, h.RunJob)
}
