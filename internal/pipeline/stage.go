package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/donaldgifford/listing-tracker/internal/metrics"
	"github.com/donaldgifford/listing-tracker/internal/tracing"
	domain "github.com/donaldgifford/listing-tracker/pkg/types"
)

// StageFunc transforms the listings of a run.
type StageFunc func(ctx context.Context, rc *RunContext, in []domain.Listing) ([]domain.Listing, error)

// Stage is a named step of a run.
type Stage struct {
	Name string
	Run  StageFunc
}

// runStages feeds each stage the output of the previous one and stops at
// the first error.
func runStages(ctx context.Context, rc *RunContext, stages []Stage, log *slog.Logger) ([]domain.Listing, error) {
	var listings []domain.Listing
	for _, s := range stages {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%s: %w", s.Name, err)
		}
		out, err := runStage(ctx, rc, s, listings, log)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.Name, err)
		}
		listings = out
	}
	return listings, nil
}

// runStage wraps one stage with a span, a duration histogram and debug
// logs. A panic inside the stage becomes its error.
func runStage(
	ctx context.Context,
	rc *RunContext,
	s Stage,
	in []domain.Listing,
	log *slog.Logger,
) (out []domain.Listing, err error) {
	ctx, span := tracing.Tracer().Start(ctx, "pipeline."+s.Name, trace.WithAttributes(
		attribute.String("job", rc.Job.ID),
		attribute.String("provider", rc.ProviderID()),
		attribute.Int("listings.in", len(in)),
	))
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("panic: %v", r)
		}

		elapsed := time.Since(start)
		metrics.PipelineStageDuration.WithLabelValues(s.Name).Observe(elapsed.Seconds())
		span.SetAttributes(attribute.Int("listings.out", len(out)))
		if err != nil && !errors.Is(err, ErrNoNewListings) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()

		log.Debug("stage finished",
			"stage", s.Name,
			"count", len(out),
			"duration_ms", elapsed.Milliseconds(),
		)
	}()

	log.Debug("stage starting", "stage", s.Name, "count", len(in))
	return s.Run(ctx, rc, in)
}
