package app

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/deal-finder/business/scanning/domain"
	"github.com/fd1az/deal-finder/internal/fallback"
	"github.com/fd1az/deal-finder/internal/llm"
	"github.com/fd1az/deal-finder/internal/logger"
)

const (
	tracerName = "github.com/fd1az/deal-finder/business/scanning"

	selectionMaxTokens = 1000

	systemPrompt = `You identify and summarize the 5 most detailed deals from a list, by selecting deals
that have the most detailed, high quality description and the most clear price.
Respond strictly in JSON with no explanation, using this format. You should provide the price as
a number derived from the description. If the price of a deal isn't clear, do not include that deal
in your response. Most important is that you respond with the 5 deals that have the most detailed
product description with price. It's not important to mention the terms of the deal; most important
is a thorough description of the product. Be careful with products that are described as "$XXX off"
or "reduced by $XXX" - this isn't the actual price of the product. Only respond with products when
you are highly confident about the price.

{"deals": [
    {
        "product_description": "Your clearly expressed summary of the product in 3-4 sentences...",
        "price": 99.99,
        "url": "the url as provided"
    },
    ...
]}`

	userPromptPrefix = `Respond with the most promising 5 deals from this list, selecting those which
have the most detailed, high quality product description and a clear price that is greater than 0.
Respond strictly in JSON, and only JSON. You should rephrase the description to be a summary of the
product itself, not the terms of the deal. Remember to respond with a short paragraph of text in
the product_description field for each of the 5 items that you select. Be careful with products
that are described as "$XXX off" or "reduced by $XXX" - this isn't the actual price of the product.
Only respond with products when you are highly confident about the price.

Deals:
`

	userPromptSuffix = "\n\nStrictly respond in JSON and include exactly 5 deals, no more."
)

// Selector asks a model to pick the most promising new listings.
type Selector struct {
	feed     FeedSource
	remote   llm.Backend
	local    llm.Backend
	recorder *fallback.Recorder
	logger   logger.LoggerInterface
	tracer   trace.Tracer
}

// NewSelector creates a Selector.
func NewSelector(feed FeedSource, remote, local llm.Backend, recorder *fallback.Recorder, log logger.LoggerInterface) *Selector {
	return &Selector{
		feed:     feed,
		remote:   remote,
		local:    local,
		recorder: recorder,
		logger:   log,
		tracer:   otel.Tracer(tracerName),
	}
}

// Select returns the model's pick among listings whose URL is not in exclude.
// A nil Selection means nothing to act on this run: no new listings, both
// models failed, or the reply could not be parsed. The error is non-nil only
// when ctx is done.
func (s *Selector) Select(ctx context.Context, exclude map[string]struct{}) (*domain.Selection, error) {
	ctx, span := s.tracer.Start(ctx, "scanning.select")
	defer span.End()

	listings, err := s.feed.Fetch(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Warn(ctx, "feed fetch failed", "error", err)
		return nil, nil
	}

	fresh := domain.ExcludeSeen(listings, exclude)
	span.SetAttributes(
		attribute.Int("listings", len(listings)),
		attribute.Int("new_listings", len(fresh)),
	)
	s.logger.Info(ctx, "listings fetched", "total", len(listings), "new", len(fresh))
	if len(fresh) == 0 {
		return nil, nil
	}

	prompt := llm.Prompt{
		System:    systemPrompt,
		User:      UserPrompt(fresh),
		MaxTokens: selectionMaxTokens,
	}
	s.logger.Debug(ctx, "selection prompt", "prompt", prompt.User)

	raw, outcome, err := fallback.Attempt(ctx, s.recorder, "deal_selection",
		func(ctx context.Context) (string, error) {
			return s.remote.Complete(ctx, prompt)
		},
		func(ctx context.Context) (string, error) {
			return s.local.Complete(ctx, prompt)
		},
		"",
	)
	span.SetAttributes(attribute.String("outcome", string(outcome)))
	if outcome == fallback.OutcomeSentinel {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Warn(ctx, "no model could select deals", "error", err)
		return nil, nil
	}
	s.logger.Debug(ctx, "selection reply", "source", string(outcome), "reply", raw)

	sel, err := domain.ParseSelection(raw)
	if err != nil {
		s.logger.Warn(ctx, "selection reply rejected", "error", err)
		return nil, nil
	}

	span.SetAttributes(attribute.Int("selected", len(sel.Deals)))
	s.logger.Info(ctx, "deals selected", "count", len(sel.Deals), "source", string(outcome))
	return sel, nil
}

// UserPrompt embeds every listing's description verbatim, separated by blank lines.
func UserPrompt(listings []domain.ScrapedListing) string {
	descs := make([]string, 0, len(listings))
	for _, l := range listings {
		descs = append(descs, l.Describe())
	}
	return userPromptPrefix + strings.Join(descs, "\n\n") + userPromptSuffix
}
