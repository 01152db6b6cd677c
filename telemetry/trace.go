package telemetry

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName scopes every tracer, meter and instrument of the site.
const InstrumentationName = "storefront"

//nolint:gochecknoglobals // attribute keys are shared by spans and metrics
var (
	AttrOperationKey = attribute.Key("storefront_operation")
	AttrStatusKey    = attribute.Key("storefront_status")
	AttrErrorKey     = attribute.Key("storefront_error")
	AttrChromeKey    = attribute.Key("storefront_chrome_mode")
	AttrReasonKey    = attribute.Key("storefront_not_found_reason")
)

type Tracer interface {
	Start(ctx context.Context, operation string, options ...trace.SpanStartOption) (context.Context, trace.Span)
	End(ctx context.Context, span trace.Span, err error, options ...trace.SpanEndOption)
}

type spanStart struct {
	operation string
	at        time.Time
}

type startContextKey struct{}

type tracer struct {
	tracer  trace.Tracer
	latency metric.Float64Histogram
}

// NewTracer returns a tracer that also records operation latency.
func NewTracer(options ...trace.TracerOption) Tracer {
	return &tracer{
		tracer:  otel.Tracer(InstrumentationName, options...),
		latency: LatencyMeasure(InstrumentationName),
	}
}

// Start opens a span; the caller must pass the returned context to End.
//
//nolint:spancheck // span is ended by End
func (t *tracer) Start(
	ctx context.Context,
	operation string,
	options ...trace.SpanStartOption,
) (context.Context, trace.Span) {
	options = append(options, trace.WithAttributes(AttrOperationKey.String(operation)))

	ctx, span := t.tracer.Start(ctx, operation, options...)
	return context.WithValue(ctx, startContextKey{}, spanStart{operation: operation, at: time.Now()}), span
}

// End closes span, marks it failed when err is set and records latency.
func (t *tracer) End(ctx context.Context, span trace.Span, err error, options ...trace.SpanEndOption) {
	if err != nil {
		options = append(options, trace.WithStackTrace(true))
		span.SetAttributes(AttrErrorKey.String(err.Error()))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End(options...)

	start, ok := ctx.Value(startContextKey{}).(spanStart)
	if !ok {
		return
	}

	t.latency.Record(ctx,
		float64(time.Since(start.at).Milliseconds()),
		metric.WithAttributes(
			AttrStatusKey.String(ErrorCode(err)),
			AttrOperationKey.String(start.operation)),
	)
}

func ErrorCode(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "deadline exceeded"
	default:
		return "err"
	}
}
