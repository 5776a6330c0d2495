package app

import (
	"context"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/deal-finder/business/planning/domain"
	pricingDomain "github.com/fd1az/deal-finder/business/pricing/domain"
	scanningDomain "github.com/fd1az/deal-finder/business/scanning/domain"
	"github.com/fd1az/deal-finder/internal/logger"
)

// Planner drives one run using the tools it is given. It returns the run's
// opportunity, or nil when nothing was worth surfacing.
type Planner interface {
	Mode() string
	Plan(ctx context.Context, tools *Toolset) (*domain.Opportunity, error)
}

var (
	_ Planner = (*PipelinePlanner)(nil)
	_ Planner = (*AgentPlanner)(nil)
)

// PipelinePlanner runs the fixed sequence: select, value every candidate,
// and notify about the largest discount when it clears the threshold.
type PipelinePlanner struct {
	threshold decimal.Decimal
	logger    logger.LoggerInterface
	tracer    trace.Tracer
}

// NewPipelinePlanner creates a pipeline planner.
func NewPipelinePlanner(threshold decimal.Decimal, log logger.LoggerInterface) *PipelinePlanner {
	return &PipelinePlanner{
		threshold: threshold,
		logger:    log,
		tracer:    otel.Tracer(tracerName),
	}
}

// Mode returns "pipeline".
func (p *PipelinePlanner) Mode() string {
	return "pipeline"
}

type valuedDeal struct {
	deal      scanningDomain.CandidateDeal
	valuation pricingDomain.Valuation
	discount  decimal.Decimal
}

// Plan runs the pipeline.
func (p *PipelinePlanner) Plan(ctx context.Context, tools *Toolset) (*domain.Opportunity, error) {
	ctx, span := p.tracer.Start(ctx, "planning.pipeline",
		trace.WithAttributes(attribute.String("run_id", tools.RunID())),
	)
	defer span.End()

	sel, err := tools.ScanForBargains(ctx)
	if err != nil {
		return nil, err
	}
	if sel == nil || len(sel.Deals) == 0 {
		p.logger.Info(ctx, "no candidate deals this run", "run_id", tools.RunID())
		return nil, nil
	}

	var best *valuedDeal
	for _, deal := range sel.Deals {
		if err := ctx.Err(); err != nil {
			return tools.Opportunity(), err
		}

		v := tools.EstimateTrueValue(ctx, deal.ProductDescription)
		discount := v.Estimate.Sub(deal.Price)

		p.logger.Info(ctx, "candidate valued",
			"url", deal.URL,
			"price", deal.Price.String(),
			"estimate", v.Estimate.StringFixed(2),
			"discount", discount.StringFixed(2))

		if best == nil || discount.GreaterThan(best.discount) {
			best = &valuedDeal{deal: deal, valuation: v, discount: discount}
		}
	}

	span.SetAttributes(attribute.String("best_discount", best.discount.StringFixed(2)))

	if best.discount.LessThan(p.threshold) {
		p.logger.Info(ctx, "best discount below threshold",
			"discount", best.discount.StringFixed(2),
			"threshold", p.threshold.String())
		return nil, nil
	}

	opp := tools.NotifyUserOfDeal(ctx, best.deal.ProductDescription, best.deal.Price, best.valuation.Estimate, best.deal.URL)
	if err := tools.WriteDealSummary(ctx, opp.Markdown()); err != nil {
		p.logger.Warn(ctx, "failed to write deal summary", "error", err)
	}

	return opp, nil
}
