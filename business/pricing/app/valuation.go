package app

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/deal-finder/business/pricing/domain"
	"github.com/fd1az/deal-finder/internal/logger"
)

// ValuationService estimates the true value of a product by averaging the
// frontier and specialist estimates.
type ValuationService struct {
	frontier   Estimator
	specialist SpecialistPricer
	logger     logger.LoggerInterface
	tracer     trace.Tracer
	blended    metric.Int64Counter
}

// NewValuationService creates a ValuationService.
func NewValuationService(frontier Estimator, specialist SpecialistPricer, log logger.LoggerInterface) (*ValuationService, error) {
	blended, err := otel.Meter(meterName).Int64Counter(
		"estimates_blended_total",
		metric.WithDescription("Blended true-value estimates"),
		metric.WithUnit("{estimate}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	return &ValuationService{
		frontier:   frontier,
		specialist: specialist,
		logger:     log,
		tracer:     otel.Tracer(tracerName),
		blended:    blended,
	}, nil
}

// EstimateTrueValue returns the unweighted mean of both estimates. When either
// side is the sentinel the mean is still returned and a warning is logged.
func (s *ValuationService) EstimateTrueValue(ctx context.Context, description string) domain.Valuation {
	ctx, span := s.tracer.Start(ctx, "pricing.estimate_true_value")
	defer span.End()

	frontier := s.frontier.Estimate(ctx, description)
	specialist := s.specialist.Price(ctx, description)

	v := domain.Blend(description, frontier, specialist)

	span.SetAttributes(
		attribute.String("frontier", frontier.String()),
		attribute.String("specialist", specialist.String()),
		attribute.String("estimate", v.Estimate.String()),
		attribute.Bool("degraded", v.Degraded()),
	)
	s.blended.Add(ctx, 1, metric.WithAttributes(attribute.Bool("degraded", v.Degraded())))

	if v.Degraded() {
		s.logger.Warn(ctx, "blending with a missing estimate",
			"frontier", frontier.StringFixed(2),
			"specialist", specialist.StringFixed(2),
			"estimate", v.Estimate.StringFixed(2))
	} else {
		s.logger.Info(ctx, "true value estimated", "estimate", v.Estimate.StringFixed(2))
	}

	return v
}
