package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/deal-finder/internal/apperror"
	"github.com/fd1az/deal-finder/internal/httpclient"
	"github.com/fd1az/deal-finder/internal/logger"
)

const (
	DefaultOllamaURL = "http://127.0.0.1:11436"

	ollamaChatPath = "/api/chat"
	ollamaTagsPath = "/api/tags"
)

var _ Backend = (*OllamaClient)(nil)

// OllamaConfig configures the local daemon.
type OllamaConfig struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// OllamaClient calls a local Ollama daemon with streaming disabled.
type OllamaClient struct {
	client httpclient.Client
	config OllamaConfig
	logger logger.LoggerInterface
	tracer trace.Tracer
}

// NewOllamaClient creates a local backend client.
func NewOllamaClient(cfg OllamaConfig, log logger.LoggerInterface) (*OllamaClient, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOllamaURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}

	tracer := otel.Tracer(tracerName)

	client, err := httpclient.NewInstrumentedClient(
		httpclient.WithProviderName("ollama"),
		httpclient.WithBaseURL(cfg.BaseURL),
		httpclient.WithRequestTimeout(cfg.Timeout),
		httpclient.WithTraceOptions(tracer, httpclient.TraceResponse),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	return &OllamaClient{
		client: client,
		config: cfg,
		logger: log,
		tracer: tracer,
	}, nil
}

// Model returns the configured model name.
func (c *OllamaClient) Model() string {
	return c.config.Model
}

// Complete sends a single-turn prompt and returns the trimmed reply text.
func (c *OllamaClient) Complete(ctx context.Context, p Prompt) (string, error) {
	ctx, span := c.tracer.Start(ctx, "llm.local.complete",
		trace.WithAttributes(attribute.String("model", c.config.Model)),
	)
	defer span.End()

	body := map[string]any{
		"model":    c.config.Model,
		"messages": promptMessages(p),
		"stream":   false,
	}
	if p.MaxTokens > 0 {
		body["options"] = map[string]any{"num_predict": p.MaxTokens}
	}

	resp, err := c.client.NewRequestWithOptions(
		httpclient.WithLabels(
			httpclient.NewLabel("endpoint", "chat"),
			httpclient.NewLabel("model", c.config.Model),
		),
		httpclient.WithResponseErrorHandler(httpclient.StatusErrorHandler(apperror.CodeLLMRequestFailed)),
	).
		SetBody(body).
		Post(ctx, ollamaChatPath)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		if apperror.IsAppError(err) {
			return "", err
		}
		return "", apperror.New(apperror.CodeLLMRequestFailed,
			apperror.WithCause(err),
			apperror.WithContext("local chat request failed"))
	}

	reply := strings.TrimSpace(gjson.GetBytes(resp.Body(), "message.content").String())
	if reply == "" {
		span.SetStatus(codes.Error, "empty reply")
		return "", apperror.New(apperror.CodeLLMEmptyReply,
			apperror.WithContext("local model "+c.config.Model))
	}

	c.logger.Debug(ctx, "local completion", "model", c.config.Model, "reply_len", len(reply))

	return reply, nil
}

// Ping checks that the daemon answers.
func (c *OllamaClient) Ping(ctx context.Context) error {
	_, err := c.client.NewRequestWithOptions(
		httpclient.WithResponseErrorHandler(httpclient.StatusErrorHandler(apperror.CodeServiceUnavailable)),
	).Get(ctx, ollamaTagsPath)
	return err
}
