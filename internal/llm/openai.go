package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/deal-finder/internal/apperror"
	"github.com/fd1az/deal-finder/internal/circuitbreaker"
	"github.com/fd1az/deal-finder/internal/httpclient"
	"github.com/fd1az/deal-finder/internal/logger"
	"github.com/fd1az/deal-finder/internal/ratelimit"
)

const chatCompletionsPath = "chat/completions"

var (
	_ Backend    = (*OpenAIClient)(nil)
	_ ToolCaller = (*OpenAIClient)(nil)
)

// OpenAIConfig configures an OpenAI-compatible chat endpoint.
type OpenAIConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// OpenAIClient talks to /chat/completions. Calls pass through a rate limiter
// and a circuit breaker; an open breaker fails fast.
type OpenAIClient struct {
	client  httpclient.Client
	config  OpenAIConfig
	limiter *ratelimit.Limiter
	cb      *circuitbreaker.CircuitBreaker[[]byte]
	logger  logger.LoggerInterface
	tracer  trace.Tracer
}

// NewOpenAIClient creates a client. limiter may be shared between clients
// hitting the same account; nil disables limiting.
func NewOpenAIClient(cfg OpenAIConfig, limiter *ratelimit.Limiter, log logger.LoggerInterface) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext("remote chat backend requires an API key"))
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if limiter == nil {
		limiter = ratelimit.New(0)
	}

	tracer := otel.Tracer(tracerName)

	client, err := httpclient.NewInstrumentedClient(
		httpclient.WithProviderName("openai-compatible"),
		httpclient.WithBaseURL(cfg.BaseURL),
		httpclient.WithRequestTimeout(cfg.Timeout),
		httpclient.WithTraceOptions(tracer, httpclient.TraceResponse),
		httpclient.WithHeaders(map[string]string{
			"Authorization": "Bearer " + cfg.APIKey,
			"Accept":        "application/json",
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	c := &OpenAIClient{
		client:  client,
		config:  cfg,
		limiter: limiter,
		logger:  log,
		tracer:  tracer,
	}

	cbCfg := circuitbreaker.DefaultConfig("llm-remote-" + cfg.Model)
	cbCfg.OnStateChange = func(name string, from, to gobreaker.State) {
		log.Info(context.Background(), "circuit breaker state change",
			"breaker", name, "from", from.String(), "to", to.String())
	}
	c.cb = circuitbreaker.New[[]byte](cbCfg)

	return c, nil
}

// Model returns the configured model name.
func (c *OpenAIClient) Model() string {
	return c.config.Model
}

// Complete sends a single-turn prompt and returns the trimmed reply text.
func (c *OpenAIClient) Complete(ctx context.Context, p Prompt) (string, error) {
	ctx, span := c.tracer.Start(ctx, "llm.remote.complete",
		trace.WithAttributes(
			attribute.String("model", c.config.Model),
			attribute.Int("max_tokens", p.MaxTokens),
		),
	)
	defer span.End()

	body := map[string]any{
		"model":    c.config.Model,
		"messages": promptMessages(p),
	}
	if p.MaxTokens > 0 {
		body["max_tokens"] = p.MaxTokens
	}

	raw, err := c.post(ctx, body)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	reply := strings.TrimSpace(gjson.GetBytes(raw, "choices.0.message.content").String())
	if reply == "" {
		err := apperror.New(apperror.CodeLLMEmptyReply,
			apperror.WithContext(fmt.Sprintf("model %s, finish_reason %s", c.config.Model,
				gjson.GetBytes(raw, "choices.0.finish_reason").String())))
		span.SetStatus(codes.Error, "empty reply")
		return "", err
	}

	span.SetAttributes(attribute.Int("reply_len", len(reply)))
	c.logger.Debug(ctx, "remote completion", "model", c.config.Model, "reply_len", len(reply))

	return reply, nil
}

// Chat sends a conversation with tools and returns the assistant message,
// which carries either content or tool calls.
func (c *OpenAIClient) Chat(ctx context.Context, messages []Message, tools []Tool) (Message, error) {
	ctx, span := c.tracer.Start(ctx, "llm.remote.chat",
		trace.WithAttributes(
			attribute.String("model", c.config.Model),
			attribute.Int("messages", len(messages)),
			attribute.Int("tools", len(tools)),
		),
	)
	defer span.End()

	body := map[string]any{
		"model":    c.config.Model,
		"messages": messages,
	}
	if len(tools) > 0 {
		wire := make([]map[string]any, 0, len(tools))
		for _, t := range tools {
			wire = append(wire, t.wire())
		}
		body["tools"] = wire
	}

	raw, err := c.post(ctx, body)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return Message{}, err
	}

	msg := gjson.GetBytes(raw, "choices.0.message")
	if !msg.Exists() {
		return Message{}, apperror.New(apperror.CodeLLMEmptyReply,
			apperror.WithContext("response has no choices"))
	}

	out := Message{
		Role:    RoleAssistant,
		Content: msg.Get("content").String(),
	}
	for _, tc := range msg.Get("tool_calls").Array() {
		out.ToolCalls = append(out.ToolCalls, ToolCall{
			ID:        tc.Get("id").String(),
			Name:      tc.Get("function.name").String(),
			Arguments: tc.Get("function.arguments").String(),
		})
	}

	if out.Content == "" && len(out.ToolCalls) == 0 {
		return Message{}, apperror.New(apperror.CodeLLMEmptyReply,
			apperror.WithContext("assistant message has neither content nor tool calls"))
	}

	span.SetAttributes(attribute.Int("tool_calls", len(out.ToolCalls)))
	return out, nil
}

func (c *OpenAIClient) post(ctx context.Context, body map[string]any) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	return c.cb.Execute(func() ([]byte, error) {
		resp, err := c.client.NewRequestWithOptions(
			httpclient.WithLabels(
				httpclient.NewLabel("endpoint", "chat_completions"),
				httpclient.NewLabel("model", c.config.Model),
			),
			httpclient.WithResponseErrorHandler(httpclient.StatusErrorHandler(apperror.CodeLLMRequestFailed)),
		).
			SetBody(body).
			Post(ctx, chatCompletionsPath)
		if err != nil {
			if apperror.IsAppError(err) {
				return nil, err
			}
			return nil, apperror.New(apperror.CodeLLMRequestFailed,
				apperror.WithCause(err),
				apperror.WithContext("remote chat request failed"))
		}
		return resp.Body(), nil
	})
}
