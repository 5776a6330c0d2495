// Package fallback implements the try-primary-then-fallback protocol shared by
// every outbound estimate, selection and summary call.
package fallback

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/deal-finder/internal/logger"
)

const (
	tracerName = "github.com/fd1az/deal-finder/internal/fallback"
	meterName  = "github.com/fd1az/deal-finder/internal/fallback"
)

// Outcome tells which branch produced the returned value.
type Outcome string

const (
	OutcomePrimary  Outcome = "primary"
	OutcomeFallback Outcome = "fallback"
	OutcomeSentinel Outcome = "sentinel"
)

// Recorder logs and counts attempts. The zero value and nil are usable.
type Recorder struct {
	logger   logger.LoggerInterface
	attempts metric.Int64Counter
	tracer   trace.Tracer
}

// NewRecorder creates a Recorder bound to the global OTEL meter provider.
func NewRecorder(log logger.LoggerInterface) (*Recorder, error) {
	attempts, err := otel.Meter(meterName).Int64Counter(
		"fallback_attempts_total",
		metric.WithDescription("Attempt outcomes per operation"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, err
	}

	return &Recorder{
		logger:   log,
		attempts: attempts,
		tracer:   otel.Tracer(tracerName),
	}, nil
}

// Attempt runs primary once. If it fails, secondary runs once. If both fail,
// sentinel is returned. Errors never escape; the last one is returned only for
// logging by the caller.
func Attempt[T any](ctx context.Context, r *Recorder, operation string, primary, secondary func(context.Context) (T, error), sentinel T) (T, Outcome, error) {
	ctx, span := r.start(ctx, operation)
	defer span.End()

	value, err := primary(ctx)
	if err == nil {
		r.record(ctx, span, operation, OutcomePrimary)
		return value, OutcomePrimary, nil
	}
	r.warn(ctx, "primary attempt failed, trying fallback", "operation", operation, "error", err)
	span.AddEvent("primary_failed", trace.WithAttributes(attribute.String("error", err.Error())))

	if secondary == nil {
		r.record(ctx, span, operation, OutcomeSentinel)
		return sentinel, OutcomeSentinel, err
	}

	value, err = secondary(ctx)
	if err == nil {
		r.record(ctx, span, operation, OutcomeFallback)
		return value, OutcomeFallback, nil
	}
	r.warn(ctx, "fallback attempt failed", "operation", operation, "error", err)

	span.SetStatus(codes.Error, "all attempts failed")
	r.record(ctx, span, operation, OutcomeSentinel)
	return sentinel, OutcomeSentinel, err
}

func (r *Recorder) start(ctx context.Context, operation string) (context.Context, trace.Span) {
	if r == nil || r.tracer == nil {
		return ctx, trace.SpanFromContext(context.Background())
	}
	return r.tracer.Start(ctx, "fallback.attempt",
		trace.WithAttributes(attribute.String("operation", operation)),
	)
}

func (r *Recorder) record(ctx context.Context, span trace.Span, operation string, outcome Outcome) {
	span.SetAttributes(attribute.String("outcome", string(outcome)))
	if r == nil || r.attempts == nil {
		return
	}
	r.attempts.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("outcome", string(outcome)),
	))
}

func (r *Recorder) warn(ctx context.Context, msg string, args ...any) {
	if r == nil || r.logger == nil {
		return
	}
	r.logger.Warnc(ctx, 4, msg, args...)
}
