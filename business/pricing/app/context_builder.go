package app

import (
	"context"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/deal-finder/business/pricing/domain"
	"github.com/fd1az/deal-finder/internal/apperror"
	"github.com/fd1az/deal-finder/internal/llm"
	"github.com/fd1az/deal-finder/internal/logger"
)

const (
	tracerName = "github.com/fd1az/deal-finder/business/pricing"
	meterName  = "github.com/fd1az/deal-finder/business/pricing"

	// DefaultTopK is how many similar items feed an estimate.
	DefaultTopK = 5

	rewritePrefix = "Rewrite this more concisely: "
)

var _ SimilarFinder = (*ContextBuilder)(nil)

// ContextBuilder finds historically priced products similar to a description.
type ContextBuilder struct {
	rewriter llm.Backend
	embedder Embedder
	store    VectorStore
	topK     int
	logger   logger.LoggerInterface
	tracer   trace.Tracer
}

// NewContextBuilder creates a ContextBuilder. rewriter is the local model.
func NewContextBuilder(rewriter llm.Backend, embedder Embedder, store VectorStore, topK int, log logger.LoggerInterface) *ContextBuilder {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &ContextBuilder{
		rewriter: rewriter,
		embedder: embedder,
		store:    store,
		topK:     topK,
		logger:   log,
		tracer:   otel.Tracer(tracerName),
	}
}

// FindSimilars rewrites the description with the local model, embeds it and
// queries the store. A rewrite failure is returned as-is; there is no fallback
// at this level.
func (b *ContextBuilder) FindSimilars(ctx context.Context, description string) ([]string, []decimal.Decimal, error) {
	ctx, span := b.tracer.Start(ctx, "pricing.find_similars",
		trace.WithAttributes(attribute.Int("top_k", b.topK)),
	)
	defer span.End()

	rewritten, err := b.rewriter.Complete(ctx, llm.Prompt{User: rewritePrefix + description})
	if err != nil {
		span.RecordError(err)
		return nil, nil, err
	}
	b.logger.Debug(ctx, "description rewritten", "original_len", len(description), "rewritten_len", len(rewritten))

	vector, err := b.embedder.Encode(ctx, rewritten)
	if err != nil {
		span.RecordError(err)
		return nil, nil, apperror.Wrap(err, apperror.CodeEmbeddingFailed, "encode rewritten description")
	}

	docs, prices, err := b.store.Query(ctx, vector, b.topK)
	if err != nil {
		span.RecordError(err)
		return nil, nil, apperror.Wrap(err, apperror.CodeVectorQueryFailed, "query similar products")
	}

	span.SetAttributes(attribute.Int("results", len(docs)))
	b.logger.Debug(ctx, "similar products found", "count", len(docs))

	return docs, prices, nil
}

// MakeContext renders similar items as an estimate prompt preamble.
func (b *ContextBuilder) MakeContext(docs []string, prices []decimal.Decimal) string {
	return domain.RenderContext(domain.PairSimilars(docs, prices))
}
