// Package messaging implements the messaging bounded context: crafting and
// pushing deal notifications.
package messaging

import (
	"context"

	"github.com/fd1az/deal-finder/business/messaging/app"
	messagingDI "github.com/fd1az/deal-finder/business/messaging/di"
	"github.com/fd1az/deal-finder/business/messaging/infra/logsink"
	"github.com/fd1az/deal-finder/business/messaging/infra/pushover"
	"github.com/fd1az/deal-finder/internal/config"
	"github.com/fd1az/deal-finder/internal/di"
	"github.com/fd1az/deal-finder/internal/fallback"
	"github.com/fd1az/deal-finder/internal/llm"
	"github.com/fd1az/deal-finder/internal/logger"
	"github.com/fd1az/deal-finder/internal/monolith"
)

// Module implements the messaging bounded context.
type Module struct{}

// RegisterServices registers all messaging services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, messagingDI.PushGateway, func(sr di.ServiceRegistry) app.PushGateway {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)

		if !cfg.Messaging.Enabled {
			return logsink.NewGateway(log)
		}

		gw, err := pushover.NewGateway(pushover.Config{
			URL:   cfg.Messaging.PushoverURL,
			User:  cfg.Messaging.PushoverUser,
			Token: cfg.Messaging.PushoverToken,
			Sound: cfg.Messaging.Sound,
		}, log)
		if err != nil {
			panic("failed to create pushover gateway: " + err.Error())
		}
		return gw
	})

	// Register Notifier (public - exposed to other modules)
	di.RegisterToken(c, messagingDI.Notifier, func(sr di.ServiceRegistry) *app.Notifier {
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)
		local := sr.Get(monolith.ServiceLocalLLM).(*llm.OllamaClient)
		recorder := sr.Get(monolith.ServiceFallback).(*fallback.Recorder)

		n, err := app.NewNotifier(local, messagingDI.GetPushGateway(sr), recorder, log)
		if err != nil {
			panic("failed to create notifier: " + err.Error())
		}
		return n
	})

	return nil
}

// Startup initializes the messaging module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	mono.Logger().Info(ctx, "messaging module started", "push_enabled", mono.Config().Messaging.Enabled)
	return nil
}
