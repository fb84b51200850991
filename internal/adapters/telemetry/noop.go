package telemetry

import (
	"context"

	"go.trai.ch/largo/internal/core/ports"
)

// NoOpTracer discards every span. It keeps call sites unconditional when
// tracing is disabled.
type NoOpTracer struct{}

// NewNoOpTracer creates a tracer that records nothing.
func NewNoOpTracer() *NoOpTracer {
	return &NoOpTracer{}
}

// Start returns the context unchanged and a span that does nothing.
func (t *NoOpTracer) Start(ctx context.Context, _ string, _ ...ports.SpanOption) (context.Context, ports.Span) {
	return ctx, noOpSpan{}
}

type noOpSpan struct{}

func (noOpSpan) End()                     {}
func (noOpSpan) RecordError(error)        {}
func (noOpSpan) SetAttribute(string, any) {}

var _ ports.Tracer = (*NoOpTracer)(nil)
