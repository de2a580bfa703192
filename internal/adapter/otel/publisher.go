package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/wafd/internal/domain"
)

// TracingPublisher wraps a domain.EventPublisher with OpenTelemetry tracing.
type TracingPublisher struct {
	next   domain.EventPublisher
	tracer trace.Tracer
}

// Compile-time check: TracingPublisher implements domain.EventPublisher.
var _ domain.EventPublisher = (*TracingPublisher)(nil)

// NewTracingPublisher creates a tracing decorator around the given publisher.
func NewTracingPublisher(next domain.EventPublisher) *TracingPublisher {
	return &TracingPublisher{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

func (p *TracingPublisher) Publish(ctx context.Context, event domain.Event) error {
	ctx, span := p.tracer.Start(ctx, "EventPublisher.Publish",
		trace.WithAttributes(attribute.String("event.type", string(event.Kind))),
	)
	defer span.End()

	if event.BedID != 0 {
		span.SetAttributes(attribute.Int64("bed.id", event.BedID))
	}
	if event.TentID != 0 {
		span.SetAttributes(attribute.Int64("tent.id", event.TentID))
	}
	if event.PilgrimID != 0 {
		span.SetAttributes(attribute.Int64("pilgrim.id", event.PilgrimID))
	}

	err := p.next.Publish(ctx, event)
	recordError(span, err)
	return err
}
