// Package scanning implements the scanning bounded context: deal feeds and
// model-driven deal selection.
package scanning

import (
	"context"

	"github.com/fd1az/deal-finder/business/scanning/app"
	scanningDI "github.com/fd1az/deal-finder/business/scanning/di"
	"github.com/fd1az/deal-finder/business/scanning/infra/rss"
	"github.com/fd1az/deal-finder/internal/config"
	"github.com/fd1az/deal-finder/internal/di"
	"github.com/fd1az/deal-finder/internal/fallback"
	"github.com/fd1az/deal-finder/internal/llm"
	"github.com/fd1az/deal-finder/internal/logger"
	"github.com/fd1az/deal-finder/internal/monolith"
)

// Module implements the scanning bounded context.
type Module struct{}

// RegisterServices registers all scanning services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, scanningDI.FeedSource, func(sr di.ServiceRegistry) app.FeedSource {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)

		source, err := rss.NewSource(rss.Config{
			Feeds:          cfg.Scanner.Feeds,
			MaxPerFeed:     cfg.Scanner.MaxPerFeed,
			FetchDetails:   cfg.Scanner.FetchDetails,
			RequestTimeout: cfg.Scanner.RequestTimeout,
		}, log)
		if err != nil {
			panic("failed to create feed source: " + err.Error())
		}
		return source
	})

	// Register Selector (public - exposed to other modules)
	di.RegisterToken(c, scanningDI.Selector, func(sr di.ServiceRegistry) *app.Selector {
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)
		scan := sr.Get(monolith.ServiceScanLLM).(*llm.OpenAIClient)
		local := sr.Get(monolith.ServiceLocalLLM).(*llm.OllamaClient)
		recorder := sr.Get(monolith.ServiceFallback).(*fallback.Recorder)

		return app.NewSelector(scanningDI.GetFeedSource(sr), scan, local, recorder, log)
	})

	return nil
}

// Startup initializes the scanning module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	mono.Logger().Info(ctx, "scanning module started", "feeds", len(mono.Config().Scanner.Feeds))
	return nil
}
