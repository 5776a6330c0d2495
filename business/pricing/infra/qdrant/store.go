// Package qdrant provides the vector store adapter for historical product prices.
package qdrant

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/deal-finder/business/pricing/app"
	"github.com/fd1az/deal-finder/internal/apperror"
	"github.com/fd1az/deal-finder/internal/httpclient"
	"github.com/fd1az/deal-finder/internal/logger"
)

const tracerName = "github.com/fd1az/deal-finder/business/pricing/infra/qdrant"

var _ app.VectorStore = (*Store)(nil)

// Config holds configuration for the Qdrant store.
type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

// Store queries a Qdrant collection whose points carry "document" and "price"
// payload fields.
type Store struct {
	client httpclient.Client
	config Config
	logger logger.LoggerInterface
	tracer trace.Tracer
}

// NewStore creates a new Store.
func NewStore(cfg Config, log logger.LoggerInterface) (*Store, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	headers := map[string]string{"Accept": "application/json"}
	if cfg.APIKey != "" {
		headers["api-key"] = cfg.APIKey
	}

	tracer := otel.Tracer(tracerName)

	client, err := httpclient.NewInstrumentedClient(
		httpclient.WithProviderName("qdrant"),
		httpclient.WithBaseURL(cfg.URL),
		httpclient.WithRequestTimeout(cfg.Timeout),
		httpclient.WithTraceOptions(tracer, httpclient.TraceResponse),
		httpclient.WithHeaders(headers),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	return &Store{
		client: client,
		config: cfg,
		logger: log,
		tracer: tracer,
	}, nil
}

// Query returns up to k nearest documents with their prices. Points with a
// missing or malformed price are skipped.
func (s *Store) Query(ctx context.Context, embedding []float32, k int) ([]string, []decimal.Decimal, error) {
	ctx, span := s.tracer.Start(ctx, "qdrant.search",
		trace.WithAttributes(
			attribute.String("collection", s.config.Collection),
			attribute.Int("k", k),
		),
	)
	defer span.End()

	resp, err := s.client.NewRequestWithOptions(
		httpclient.WithLabels(httpclient.NewLabel("endpoint", "search")),
		httpclient.WithResponseErrorHandler(httpclient.StatusErrorHandler(apperror.CodeVectorQueryFailed)),
	).
		SetBody(map[string]any{
			"vector":       embedding,
			"limit":        k,
			"with_payload": true,
		}).
		Post(ctx, s.collectionPath()+"/points/search")
	if err != nil {
		span.RecordError(err)
		return nil, nil, apperror.Wrap(err, apperror.CodeVectorQueryFailed, "qdrant search")
	}

	var (
		docs   []string
		prices []decimal.Decimal
	)
	for _, point := range gjson.GetBytes(resp.Body(), "result").Array() {
		doc := point.Get("payload.document").String()
		price, err := decimal.NewFromString(point.Get("payload.price").String())
		if doc == "" || err != nil {
			s.logger.Debug(ctx, "skipping malformed point", "id", point.Get("id").String())
			continue
		}
		docs = append(docs, doc)
		prices = append(prices, price)
	}

	span.SetAttributes(attribute.Int("results", len(docs)))
	return docs, prices, nil
}

// Ping checks that the collection exists.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.NewRequestWithOptions(
		httpclient.WithResponseErrorHandler(httpclient.StatusErrorHandler(apperror.CodeServiceUnavailable)),
	).Get(ctx, s.collectionPath())
	return err
}

func (s *Store) collectionPath() string {
	return "/collections/" + url.PathEscape(s.config.Collection)
}
