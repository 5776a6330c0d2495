// Package pushover delivers notifications through the Pushover API.
package pushover

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel"

	"github.com/fd1az/deal-finder/business/messaging/app"
	"github.com/fd1az/deal-finder/internal/apperror"
	"github.com/fd1az/deal-finder/internal/httpclient"
	"github.com/fd1az/deal-finder/internal/logger"
)

const (
	tracerName = "github.com/fd1az/deal-finder/business/messaging/infra/pushover"

	// DefaultURL is the public Pushover API.
	DefaultURL = "https://api.pushover.net"

	messagesPath = "/1/messages.json"
)

var _ app.PushGateway = (*Gateway)(nil)

// Config holds Pushover credentials.
type Config struct {
	URL     string
	User    string
	Token   string
	Sound   string
	Timeout time.Duration
}

// Gateway posts messages to Pushover.
type Gateway struct {
	client httpclient.Client
	config Config
	logger logger.LoggerInterface
}

// NewGateway creates a Gateway. User and token are required.
func NewGateway(cfg Config, log logger.LoggerInterface) (*Gateway, error) {
	if cfg.User == "" || cfg.Token == "" {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext("pushover user and token are required"))
	}
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	tracer := otel.Tracer(tracerName)

	client, err := httpclient.NewInstrumentedClient(
		httpclient.WithProviderName("pushover"),
		httpclient.WithBaseURL(cfg.URL),
		httpclient.WithRequestTimeout(cfg.Timeout),
		httpclient.WithTraceOptions(tracer, httpclient.TraceResponse),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	return &Gateway{
		client: client,
		config: cfg,
		logger: log,
	}, nil
}

// Send posts one message. Pushover answers {"status":1} on success.
func (g *Gateway) Send(ctx context.Context, message string) error {
	form := map[string]string{
		"token":   g.config.Token,
		"user":    g.config.User,
		"message": message,
	}
	if g.config.Sound != "" {
		form["sound"] = g.config.Sound
	}

	resp, err := g.client.NewRequestWithOptions(
		httpclient.WithLabels(httpclient.NewLabel("endpoint", "messages")),
		httpclient.WithResponseErrorHandler(httpclient.StatusErrorHandler(apperror.CodePushFailed)),
	).
		SetFormData(form).
		Post(ctx, messagesPath)
	if err != nil {
		return apperror.Wrap(err, apperror.CodePushFailed, "pushover request")
	}

	body := resp.Body()
	if gjson.GetBytes(body, "status").Int() != 1 {
		var reasons []string
		for _, e := range gjson.GetBytes(body, "errors").Array() {
			reasons = append(reasons, e.String())
		}
		return apperror.New(apperror.CodePushFailed,
			apperror.WithContext("pushover rejected message: "+strings.Join(reasons, "; ")))
	}

	g.logger.Debug(ctx, "pushover accepted message", "request", gjson.GetBytes(body, "request").String())
	return nil
}
