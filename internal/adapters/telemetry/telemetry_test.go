package telemetry_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/largo/internal/adapters/telemetry"
)

func TestOTelTracer_SpanLifecycle(t *testing.T) {
	shutdown := telemetry.SetupProvider()
	t.Cleanup(func() { require.NoError(t, shutdown(t.Context())) })

	tracer := telemetry.NewOTelTracer("largo-test")

	ctx, span := tracer.Start(t.Context(), "resolve")
	assert.NotNil(t, ctx)
	require.NotNil(t, span)

	span.SetAttribute("packages", 3)
	span.SetAttribute("profile", "release")
	span.SetAttribute("cached", true)
	span.SetAttribute("fingerprints", []string{"aa", "bb"})
	span.SetAttribute("other", struct{ X int }{1})
	span.RecordError(errors.New("resolution failed"))
	span.End()
}

func TestNoOpTracer(t *testing.T) {
	t.Parallel()

	tracer := telemetry.NewNoOpTracer()

	ctx, span := tracer.Start(t.Context(), "anything")
	assert.NotNil(t, ctx)
	require.NotNil(t, span)

	span.SetAttribute("key", "value")
	span.RecordError(errors.New("ignored"))
	span.End()
}
