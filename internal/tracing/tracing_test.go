package tracing

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func TestNewProvider_Disabled(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{Enabled: false})
	if err != nil {
		t.Fatalf("NewProvider failed: %v", err)
	}

	if p.Tracer() == nil {
		t.Fatal("Tracer() returned nil")
	}

	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}
}

func TestNewProvider_EnabledWithoutExporter(t *testing.T) {
	ctx := context.Background()
	p, err := NewProvider(ctx, Config{Enabled: true, SampleRate: 1})
	if err != nil {
		t.Fatalf("NewProvider failed: %v", err)
	}
	defer p.Shutdown(ctx)

	spanCtx, span := TraceIngest(ctx, p.Tracer(), "stdin", "time")
	defer span.End()

	if !span.SpanContext().IsValid() {
		t.Error("expected a recording span with a valid span context")
	}

	// Helpers must be safe on the active span.
	SetAttributes(spanCtx, attribute.Int("records.total", 3))
	AddEvent(spanCtx, "checkpoint")
	RecordError(spanCtx, errors.New("boom"))
}

func TestHelpers_NoSpan(t *testing.T) {
	ctx := context.Background()

	// No span in context: helpers operate on the no-op span.
	SetAttributes(ctx, attribute.String("k", "v"))
	AddEvent(ctx, "event")
	RecordError(ctx, errors.New("ignored"))
}

func TestTraceRenderAndWrite(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{})
	if err != nil {
		t.Fatalf("NewProvider failed: %v", err)
	}

	ctx, span := TraceRender(context.Background(), p.Tracer(), "json")
	span.End()

	_, span = TraceWrite(ctx, p.Tracer(), "stdout", 42)
	span.End()
}
