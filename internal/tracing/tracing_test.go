package tracing_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/listing-tracker/internal/config"
	"github.com/donaldgifford/listing-tracker/internal/tracing"
)

func TestSetup_Disabled(t *testing.T) {
	t.Parallel()

	shutdown, err := tracing.Setup(context.Background(), config.TracingConfig{}, "test")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestTracer_NoopWithoutSetup(t *testing.T) {
	t.Parallel()

	_, span := tracing.Tracer().Start(context.Background(), "test")
	defer span.End()

	assert.False(t, span.SpanContext().IsSampled())
}
