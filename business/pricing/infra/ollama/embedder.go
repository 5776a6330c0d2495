// Package ollama provides the embedding adapter backed by a local Ollama daemon.
package ollama

import (
	"context"
	"fmt"
	"time"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/deal-finder/business/pricing/app"
	"github.com/fd1az/deal-finder/internal/apperror"
	"github.com/fd1az/deal-finder/internal/httpclient"
	"github.com/fd1az/deal-finder/internal/logger"
)

const (
	tracerName = "github.com/fd1az/deal-finder/business/pricing/infra/ollama"

	embedPath = "/api/embed"

	// DefaultModel is all-MiniLM-L6-v2, the model the product store was built with.
	DefaultModel = "all-minilm"
)

var _ app.Embedder = (*Embedder)(nil)

// Config holds configuration for the embedder.
type Config struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Embedder encodes text through Ollama's /api/embed.
type Embedder struct {
	client httpclient.Client
	config Config
	logger logger.LoggerInterface
	tracer trace.Tracer
}

// NewEmbedder creates a new Embedder.
func NewEmbedder(cfg Config, log logger.LoggerInterface) (*Embedder, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	tracer := otel.Tracer(tracerName)

	client, err := httpclient.NewInstrumentedClient(
		httpclient.WithProviderName("ollama-embed"),
		httpclient.WithBaseURL(cfg.BaseURL),
		httpclient.WithRequestTimeout(cfg.Timeout),
		httpclient.WithTraceOptions(tracer, httpclient.TraceRequest),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	return &Embedder{
		client: client,
		config: cfg,
		logger: log,
		tracer: tracer,
	}, nil
}

// Encode returns the embedding of text.
func (e *Embedder) Encode(ctx context.Context, text string) ([]float32, error) {
	ctx, span := e.tracer.Start(ctx, "ollama.embed",
		trace.WithAttributes(attribute.String("model", e.config.Model)),
	)
	defer span.End()

	resp, err := e.client.NewRequestWithOptions(
		httpclient.WithLabels(httpclient.NewLabel("endpoint", "embed")),
		httpclient.WithResponseErrorHandler(httpclient.StatusErrorHandler(apperror.CodeEmbeddingFailed)),
	).
		SetBody(map[string]any{
			"model": e.config.Model,
			"input": text,
		}).
		Post(ctx, embedPath)
	if err != nil {
		span.RecordError(err)
		return nil, apperror.Wrap(err, apperror.CodeEmbeddingFailed, "ollama embed request")
	}

	values := gjson.GetBytes(resp.Body(), "embeddings.0").Array()
	if len(values) == 0 {
		return nil, apperror.New(apperror.CodeEmbeddingFailed,
			apperror.WithContext("response carries no embedding"))
	}

	vector := make([]float32, len(values))
	for i, v := range values {
		vector[i] = float32(v.Float())
	}

	span.SetAttributes(attribute.Int("dimensions", len(vector)))
	e.logger.Debug(ctx, "text embedded", "dimensions", len(vector))

	return vector, nil
}
