package app

import (
	"context"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/deal-finder/business/pricing/domain"
	"github.com/fd1az/deal-finder/internal/fallback"
	"github.com/fd1az/deal-finder/internal/llm"
	"github.com/fd1az/deal-finder/internal/logger"
)

const (
	estimateSystemPrompt = "You estimate prices. Reply with only the numeric price."
	localPricerPrompt    = "You are an expert product pricer. Reply with only the numeric price in USD, no extra text.\n\nProduct: "

	estimateMaxTokens = 10
)

var _ Estimator = (*FrontierEstimator)(nil)

// ContextMaker is a SimilarFinder that can also render its results.
type ContextMaker interface {
	SimilarFinder
	MakeContext(docs []string, prices []decimal.Decimal) string
}

// FrontierEstimator prices a product with the remote model, grounded on
// similar items, and falls back to the local model without context.
type FrontierEstimator struct {
	remote   llm.Backend
	local    llm.Backend
	contexts ContextMaker
	recorder *fallback.Recorder
	logger   logger.LoggerInterface
	tracer   trace.Tracer
}

// NewFrontierEstimator creates a FrontierEstimator.
func NewFrontierEstimator(remote, local llm.Backend, contexts ContextMaker, recorder *fallback.Recorder, log logger.LoggerInterface) *FrontierEstimator {
	return &FrontierEstimator{
		remote:   remote,
		local:    local,
		contexts: contexts,
		recorder: recorder,
		logger:   log,
		tracer:   otel.Tracer(tracerName),
	}
}

// Estimate returns a price for description, or the zero sentinel when both the
// primary and the fallback attempt fail. It never returns an error.
func (e *FrontierEstimator) Estimate(ctx context.Context, description string) decimal.Decimal {
	ctx, span := e.tracer.Start(ctx, "pricing.frontier_estimate")
	defer span.End()

	price, outcome, err := fallback.Attempt(ctx, e.recorder, "frontier_estimate",
		func(ctx context.Context) (decimal.Decimal, error) {
			return e.estimateRemote(ctx, description)
		},
		func(ctx context.Context) (decimal.Decimal, error) {
			return e.estimateLocal(ctx, description)
		},
		domain.NoEstimate,
	)

	span.SetAttributes(
		attribute.String("outcome", string(outcome)),
		attribute.String("estimate", price.String()),
	)
	if outcome == fallback.OutcomeSentinel {
		e.logger.Warn(ctx, "frontier estimate unavailable", "error", err)
		return domain.NoEstimate
	}

	e.logger.Info(ctx, "frontier estimate", "estimate", price.StringFixed(2), "source", string(outcome))
	return price
}

func (e *FrontierEstimator) estimateRemote(ctx context.Context, description string) (decimal.Decimal, error) {
	docs, prices, err := e.contexts.FindSimilars(ctx, description)
	if err != nil {
		return domain.NoEstimate, err
	}

	reply, err := e.remote.Complete(ctx, llm.Prompt{
		System:    estimateSystemPrompt,
		User:      e.contexts.MakeContext(docs, prices) + "\nEstimate price for:\n" + description,
		MaxTokens: estimateMaxTokens,
	})
	if err != nil {
		return domain.NoEstimate, err
	}

	return domain.ExtractPrice(reply), nil
}

func (e *FrontierEstimator) estimateLocal(ctx context.Context, description string) (decimal.Decimal, error) {
	reply, err := e.local.Complete(ctx, llm.Prompt{User: localPricerPrompt + description})
	if err != nil {
		return domain.NoEstimate, err
	}
	return domain.ExtractPrice(reply), nil
}
