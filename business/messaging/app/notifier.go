package app

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/deal-finder/business/messaging/domain"
	"github.com/fd1az/deal-finder/internal/fallback"
	"github.com/fd1az/deal-finder/internal/llm"
	"github.com/fd1az/deal-finder/internal/logger"
)

const (
	tracerName = "github.com/fd1az/deal-finder/business/messaging"
	meterName  = "github.com/fd1az/deal-finder/business/messaging"

	craftSystemPrompt = "You are given details of a great deal on special offer, and you summarize it in a short message of 2-3 sentences."
)

// Notifier turns deals into push notifications.
type Notifier struct {
	writer   llm.Backend
	gateway  PushGateway
	recorder *fallback.Recorder
	logger   logger.LoggerInterface
	tracer   trace.Tracer
	sent     metric.Int64Counter
}

// NewNotifier creates a Notifier. writer is the model that crafts summaries.
func NewNotifier(writer llm.Backend, gateway PushGateway, recorder *fallback.Recorder, log logger.LoggerInterface) (*Notifier, error) {
	sent, err := otel.Meter(meterName).Int64Counter(
		"notifications_sent_total",
		metric.WithDescription("Push notifications by kind and delivery status"),
		metric.WithUnit("{notification}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	return &Notifier{
		writer:   writer,
		gateway:  gateway,
		recorder: recorder,
		logger:   log,
		tracer:   otel.Tracer(tracerName),
		sent:     sent,
	}, nil
}

// Craft asks the model for a 2-3 sentence summary of the deal. Any failure
// yields domain.DefaultSummary.
func (n *Notifier) Craft(ctx context.Context, description string, dealPrice, estimatedValue decimal.Decimal) string {
	prompt := llm.Prompt{
		System: craftSystemPrompt,
		User: "Please summarize this great deal in 2-3 sentences.\n" +
			"Item Description: " + description + "\n" +
			"Offered Price: " + dealPrice.String() + "\n" +
			"Estimated true value: " + estimatedValue.String() + "\n\n" +
			"Respond only with the 2-3 sentence message which will be used to alert the user about this deal.",
	}

	summary, _, err := fallback.Attempt(ctx, n.recorder, "craft_message",
		func(ctx context.Context) (string, error) {
			return n.writer.Complete(ctx, prompt)
		},
		nil,
		domain.DefaultSummary,
	)
	if err != nil {
		n.logger.Warn(ctx, "message crafting failed, using default summary", "error", err)
	}
	return summary
}

// Push sends text, truncated to the gateway limit.
func (n *Notifier) Push(ctx context.Context, text string) error {
	return n.push(ctx, "custom", text)
}

// Notify crafts a summary and pushes it with the deal URL. A delivery failure
// is logged and returned.
func (n *Notifier) Notify(ctx context.Context, description string, dealPrice, estimatedValue decimal.Decimal, url string) error {
	ctx, span := n.tracer.Start(ctx, "messaging.notify",
		trace.WithAttributes(attribute.String("url", url)),
	)
	defer span.End()

	summary := n.Craft(ctx, description, dealPrice, estimatedValue)
	return n.push(ctx, "notify", domain.NotifyText(summary, url))
}

// Alert pushes a fixed-format message without involving a model.
func (n *Notifier) Alert(ctx context.Context, alert domain.Alert) error {
	ctx, span := n.tracer.Start(ctx, "messaging.alert",
		trace.WithAttributes(attribute.String("url", alert.URL)),
	)
	defer span.End()

	return n.push(ctx, "alert", alert.Text())
}

func (n *Notifier) push(ctx context.Context, kind, text string) error {
	err := n.gateway.Send(ctx, domain.Truncate(text, domain.MaxMessageRunes))

	status := "sent"
	if err != nil {
		status = "failed"
		n.logger.Error(ctx, "push notification failed", "kind", kind, "error", err)
	} else {
		n.logger.Info(ctx, "push notification sent", "kind", kind)
	}
	n.sent.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("status", status),
	))
	return err
}
