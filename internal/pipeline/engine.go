package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/donaldgifford/listing-tracker/internal/metrics"
	"github.com/donaldgifford/listing-tracker/internal/provider"
	"github.com/donaldgifford/listing-tracker/internal/similarity"
	"github.com/donaldgifford/listing-tracker/internal/store"
	"github.com/donaldgifford/listing-tracker/internal/tracing"
	domain "github.com/donaldgifford/listing-tracker/pkg/types"
)

const defaultConcurrency = 4

// ErrUnknownProvider is reported for job providers missing from the
// registry.
var ErrUnknownProvider = errors.New("unknown provider")

// JobSource lists the job definitions to run.
type JobSource interface {
	ListJobs(ctx context.Context, enabledOnly bool) ([]domain.Job, error)
	GetJob(ctx context.Context, id string) (*domain.Job, error)
}

// Result summarizes one (job, provider) execution of a sweep.
type Result struct {
	JobID      string
	ProviderID string
	Kind       OutcomeKind
	Notified   int
	// Skipped is set when the pair was still running from a previous sweep.
	Skipped bool
	Err     error
}

// Engine runs the pipelines of every enabled job.
type Engine struct {
	jobs      JobSource
	providers *provider.Registry
	deps      Deps
	runs      store.RunStore
	log       *slog.Logger

	concurrency int
	runTimeout  time.Duration
	retention   time.Duration
	pipeOpts    []Option

	mu       sync.Mutex
	inFlight map[string]struct{}
	caches   map[string]*similarity.Cache

	outcomes metric.Int64Counter
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithEngineLogger sets the logger.
func WithEngineLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.log = l
	}
}

// WithRunStore records every execution as a job run.
func WithRunStore(rs store.RunStore) EngineOption {
	return func(e *Engine) {
		e.runs = rs
	}
}

// WithConcurrency bounds the pipelines running at once.
func WithConcurrency(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithRunTimeout bounds a single pipeline execution. Zero disables it.
func WithRunTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		e.runTimeout = d
	}
}

// WithSimilarityRetention sets how long per-job similarity keys live.
func WithSimilarityRetention(d time.Duration) EngineOption {
	return func(e *Engine) {
		e.retention = d
	}
}

// WithPipelineOptions passes options to every pipeline the engine builds.
func WithPipelineOptions(opts ...Option) EngineOption {
	return func(e *Engine) {
		e.pipeOpts = append(e.pipeOpts, opts...)
	}
}

// NewEngine creates an Engine.
func NewEngine(jobs JobSource, providers *provider.Registry, deps Deps, opts ...EngineOption) *Engine {
	e := &Engine{
		jobs:        jobs,
		providers:   providers,
		deps:        deps,
		log:         slog.Default(),
		concurrency: defaultConcurrency,
		inFlight:    make(map[string]struct{}),
		caches:      make(map[string]*similarity.Cache),
	}
	for _, opt := range opts {
		opt(e)
	}

	counter, err := otel.Meter(tracing.InstrumentationName).Int64Counter(
		"pipeline.outcomes",
		metric.WithDescription("Pipeline executions by outcome."),
	)
	if err != nil {
		e.log.Warn("creating outcome counter", "error", err)
	}
	e.outcomes = counter
	return e
}

// RunAll runs every provider of every enabled job.
func (e *Engine) RunAll(ctx context.Context) ([]Result, error) {
	start := time.Now()
	defer func() {
		metrics.SweepDuration.Observe(time.Since(start).Seconds())
	}()

	jobs, err := e.jobs.ListJobs(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("listing jobs: %w", err)
	}
	e.log.Info("sweep starting", "jobs", len(jobs))

	results := e.run(ctx, jobs)
	e.log.Info("sweep complete",
		"jobs", len(jobs),
		"runs", len(results),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return results, nil
}

// RunJob runs every provider of one job, enabled or not.
func (e *Engine) RunJob(ctx context.Context, jobID string) ([]Result, error) {
	job, err := e.jobs.GetJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("getting job %s: %w", jobID, err)
	}
	return e.run(ctx, []domain.Job{*job}), nil
}

func (e *Engine) run(ctx context.Context, jobs []domain.Job) []Result {
	var (
		mu      sync.Mutex
		results []Result
	)

	// Pipelines are independent; one failing must not cancel the others.
	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for i := range jobs {
		job := &jobs[i]
		for _, jp := range job.Providers {
			g.Go(func() error {
				r := e.runPipeline(ctx, job, jp)
				mu.Lock()
				results = append(results, r)
				mu.Unlock()
				return nil
			})
		}
	}
	_ = g.Wait()
	return results
}

func (e *Engine) runPipeline(ctx context.Context, job *domain.Job, jp domain.JobProvider) Result {
	res := Result{JobID: job.ID, ProviderID: jp.ID}

	key := job.ID + "/" + jp.ID
	if !e.acquire(key) {
		e.log.Warn("previous run still in flight, skipping", "job", job.ID, "provider", jp.ID)
		metrics.PipelineSkippedTotal.Inc()
		res.Skipped = true
		return res
	}
	defer e.release(key)

	run := &domain.JobRun{JobID: job.ID, ProviderID: jp.ID}
	e.startRun(ctx, run)

	var outcome Outcome
	p, ok := e.providers.Get(jp.ID)
	if !ok {
		outcome = Outcome{Kind: OutcomeFailed, Err: fmt.Errorf("%w %q", ErrUnknownProvider, jp.ID)}
		e.log.Error("job references unknown provider", "job", job.ID, "provider", jp.ID)
	} else {
		outcome = e.execute(ctx, job, jp, p)
	}

	metrics.PipelineRunsTotal.WithLabelValues(jp.ID, outcome.Kind.String()).Inc()
	if e.outcomes != nil {
		e.outcomes.Add(ctx, 1, metric.WithAttributes(
			attribute.String("provider", jp.ID),
			attribute.String("outcome", outcome.Kind.String()),
		))
	}
	e.completeRun(ctx, run, outcome)

	res.Kind = outcome.Kind
	res.Notified = len(outcome.Listings)
	res.Err = outcome.Err
	return res
}

func (e *Engine) execute(ctx context.Context, job *domain.Job, jp domain.JobProvider, p provider.Provider) Outcome {
	metrics.PipelinesInFlight.Inc()
	defer metrics.PipelinesInFlight.Dec()

	if e.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.runTimeout)
		defer cancel()
	}

	opts := append([]Option{WithLogger(e.log)}, e.pipeOpts...)
	return New(e.deps, job, jp, p, e.similarityCache(job.ID), opts...).Execute(ctx)
}

func (e *Engine) startRun(ctx context.Context, run *domain.JobRun) {
	if e.runs == nil {
		return
	}
	if err := e.runs.InsertJobRun(ctx, run); err != nil {
		e.log.Error("recording job run", "job", run.JobID, "provider", run.ProviderID, "error", err)
	}
}

func (e *Engine) completeRun(ctx context.Context, run *domain.JobRun, o Outcome) {
	if e.runs == nil || run.ID == "" {
		return
	}
	now := time.Now().UTC()
	run.CompletedAt = &now
	run.Notified = len(o.Listings)
	switch o.Kind {
	case OutcomeNotified:
		run.Status = domain.RunNotified
	case OutcomeEmpty:
		run.Status = domain.RunEmpty
	default:
		run.Status = domain.RunFailed
	}
	if o.Err != nil {
		run.ErrorText = o.Err.Error()
	}

	// The run context may have expired; the record must still be closed.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := e.runs.CompleteJobRun(ctx, run); err != nil {
		e.log.Error("completing job run", "job", run.JobID, "provider", run.ProviderID, "error", err)
	}
}

func (e *Engine) acquire(key string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, busy := e.inFlight[key]; busy {
		return false
	}
	e.inFlight[key] = struct{}{}
	return true
}

func (e *Engine) release(key string) {
	e.mu.Lock()
	delete(e.inFlight, key)
	e.mu.Unlock()
}

// similarityCache returns the cache shared by every provider of jobID.
func (e *Engine) similarityCache(jobID string) *similarity.Cache {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, ok := e.caches[jobID]
	if !ok {
		opts := []similarity.Option{similarity.WithLogger(e.log)}
		if e.retention > 0 {
			opts = append(opts, similarity.WithRetention(e.retention))
		}
		c = similarity.New(opts...)
		c.Start()
		e.caches[jobID] = c
	}
	return c
}

// Close stops the similarity cache timers.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for id, c := range e.caches {
		c.Stop()
		delete(e.caches, id)
	}
}
