// Package logsink is a push gateway that only logs, used when push delivery
// is disabled.
package logsink

import (
	"context"

	"github.com/fd1az/deal-finder/business/messaging/app"
	"github.com/fd1az/deal-finder/internal/logger"
)

var _ app.PushGateway = (*Gateway)(nil)

// Gateway writes each message to the log at info level.
type Gateway struct {
	logger logger.LoggerInterface
}

// NewGateway creates a Gateway.
func NewGateway(log logger.LoggerInterface) *Gateway {
	return &Gateway{logger: log}
}

// Send logs message and never fails.
func (g *Gateway) Send(ctx context.Context, message string) error {
	g.logger.Info(ctx, "push delivery disabled, message not sent", "message", message)
	return nil
}
