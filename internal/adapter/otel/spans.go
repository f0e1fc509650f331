package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "crmlite"

// StartGenerateSpan starts a span for one strategy generation.
func StartGenerateSpan(ctx context.Context, opportunityID int64, model string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "strategy.generate",
		trace.WithAttributes(
			attribute.Int64("opportunity.id", opportunityID),
			attribute.String("llm.model", model),
		),
	)
}

// StartCascadeSpan starts a span for an opportunity cascade delete.
func StartCascadeSpan(ctx context.Context, opportunityID int64) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "opportunity.delete",
		trace.WithAttributes(attribute.Int64("opportunity.id", opportunityID)),
	)
}

// EndSpan records err on span, if any, and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
