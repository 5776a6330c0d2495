// Package specialist calls the hosted fine-tuned pricer and falls back to the
// local model when it is unavailable.
package specialist

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/deal-finder/business/pricing/app"
	"github.com/fd1az/deal-finder/business/pricing/domain"
	"github.com/fd1az/deal-finder/internal/apperror"
	"github.com/fd1az/deal-finder/internal/fallback"
	"github.com/fd1az/deal-finder/internal/httpclient"
	"github.com/fd1az/deal-finder/internal/llm"
	"github.com/fd1az/deal-finder/internal/logger"
)

const (
	tracerName = "github.com/fd1az/deal-finder/business/pricing/infra/specialist"

	question     = "Please reply with only the numeric price in USD, no extra text."
	systemPrompt = "You estimate prices. Reply with only the numeric price."
)

var _ app.SpecialistPricer = (*Client)(nil)

// Config holds configuration for the hosted pricer.
type Config struct {
	Enabled bool
	URL     string
	Token   string
	Timeout time.Duration
}

// Client prices descriptions with the hosted specialist model.
type Client struct {
	client   httpclient.Client
	local    llm.Backend
	config   Config
	recorder *fallback.Recorder
	logger   logger.LoggerInterface
	tracer   trace.Tracer
}

// NewClient creates a Client. When cfg.Enabled is false every call goes
// straight to the local model.
func NewClient(cfg Config, local llm.Backend, recorder *fallback.Recorder, log logger.LoggerInterface) (*Client, error) {
	if cfg.Enabled && cfg.URL == "" {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext("specialist.url is required when the specialist is enabled"))
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 90 * time.Second
	}

	headers := map[string]string{"Accept": "application/json"}
	if cfg.Token != "" {
		headers["Authorization"] = "Bearer " + cfg.Token
	}

	tracer := otel.Tracer(tracerName)

	client, err := httpclient.NewInstrumentedClient(
		httpclient.WithProviderName("specialist"),
		httpclient.WithRequestTimeout(cfg.Timeout),
		httpclient.WithTraceOptions(tracer, httpclient.TraceResponse),
		httpclient.WithHeaders(headers),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	return &Client{
		client:   client,
		local:    local,
		config:   cfg,
		recorder: recorder,
		logger:   log,
		tracer:   tracer,
	}, nil
}

// Price returns the specialist's estimate, the local model's estimate when the
// hosted pricer fails, or the zero sentinel when both fail.
func (c *Client) Price(ctx context.Context, description string) decimal.Decimal {
	ctx, span := c.tracer.Start(ctx, "specialist.price")
	defer span.End()

	price, outcome, err := fallback.Attempt(ctx, c.recorder, "specialist_estimate",
		func(ctx context.Context) (decimal.Decimal, error) {
			return c.priceRemote(ctx, description)
		},
		func(ctx context.Context) (decimal.Decimal, error) {
			return c.priceLocal(ctx, description)
		},
		domain.NoEstimate,
	)

	span.SetAttributes(
		attribute.String("outcome", string(outcome)),
		attribute.String("estimate", price.String()),
	)
	if outcome == fallback.OutcomeSentinel {
		c.logger.Warn(ctx, "specialist estimate unavailable", "error", err)
		return domain.NoEstimate
	}

	c.logger.Info(ctx, "specialist estimate", "estimate", price.StringFixed(2), "source", string(outcome))
	return price
}

// priceRemote accepts either {"price": n} or a bare text reply.
func (c *Client) priceRemote(ctx context.Context, description string) (decimal.Decimal, error) {
	if !c.config.Enabled {
		return domain.NoEstimate, apperror.New(apperror.CodeSpecialistFailed,
			apperror.WithContext("hosted pricer disabled"))
	}

	resp, err := c.client.NewRequestWithOptions(
		httpclient.WithLabels(httpclient.NewLabel("endpoint", "price")),
		httpclient.WithResponseErrorHandler(httpclient.StatusErrorHandler(apperror.CodeSpecialistFailed)),
	).
		SetBody(map[string]string{"description": description}).
		Post(ctx, c.config.URL)
	if err != nil {
		return domain.NoEstimate, apperror.Wrap(err, apperror.CodeSpecialistFailed, "hosted pricer request")
	}

	body := resp.Body()
	if gjson.ValidBytes(body) {
		if p := gjson.GetBytes(body, "price"); p.Exists() {
			return domain.ExtractPrice(p.String()), nil
		}
	}
	return domain.ExtractPrice(string(body)), nil
}

func (c *Client) priceLocal(ctx context.Context, description string) (decimal.Decimal, error) {
	reply, err := c.local.Complete(ctx, llm.Prompt{
		System: systemPrompt,
		User:   question + "\n\n" + description,
	})
	if err != nil {
		return domain.NoEstimate, err
	}
	return domain.ExtractPrice(reply), nil
}
