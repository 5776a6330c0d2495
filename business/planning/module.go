// Package planning implements the planning bounded context: one run picks
// candidate deals, values them and surfaces at most one opportunity.
package planning

import (
	"context"

	"github.com/spf13/afero"

	messagingDI "github.com/fd1az/deal-finder/business/messaging/di"
	"github.com/fd1az/deal-finder/business/planning/app"
	planningDI "github.com/fd1az/deal-finder/business/planning/di"
	"github.com/fd1az/deal-finder/business/planning/infra/journal"
	"github.com/fd1az/deal-finder/business/planning/infra/memory"
	"github.com/fd1az/deal-finder/business/planning/infra/report"
	pricingDI "github.com/fd1az/deal-finder/business/pricing/di"
	scanningDI "github.com/fd1az/deal-finder/business/scanning/di"
	"github.com/fd1az/deal-finder/internal/config"
	"github.com/fd1az/deal-finder/internal/di"
	"github.com/fd1az/deal-finder/internal/llm"
	"github.com/fd1az/deal-finder/internal/logger"
	"github.com/fd1az/deal-finder/internal/monolith"
)

// Module implements the planning bounded context.
type Module struct{}

// RegisterServices registers all planning services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, planningDI.MemoryStore, func(sr di.ServiceRegistry) app.MemoryStore {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)

		if cfg.Memory.Backend == config.MemoryRedis {
			store, err := memory.NewRedisStore(cfg.Memory.RedisURL, cfg.Memory.RedisKey, log)
			if err != nil {
				panic("failed to create redis memory store: " + err.Error())
			}
			return store
		}
		return memory.NewFileStore(afero.NewOsFs(), cfg.Memory.Path, log)
	})

	di.RegisterToken(c, planningDI.Journal, func(sr di.ServiceRegistry) app.Journal {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)

		return journal.NewMarkdown(afero.NewOsFs(), cfg.Journal.Path, log)
	})

	di.RegisterToken(c, planningDI.Reporter, func(sr di.ServiceRegistry) app.Reporter {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)

		if cfg.App.TUIMode {
			return report.NewTUIReporter()
		}
		return report.NewConsoleReporter()
	})

	di.RegisterToken(c, planningDI.Planner, func(sr di.ServiceRegistry) app.Planner {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)

		if cfg.Planning.Mode == config.ModeAgent {
			remote := sr.Get(monolith.ServiceRemoteLLM).(*llm.OpenAIClient)
			return app.NewAgentPlanner(remote, cfg.Planning.MaxTurns, log)
		}
		return app.NewPipelinePlanner(cfg.Planning.DealThresholdDecimal(), log)
	})

	// Register Framework (public - exposed to other modules)
	di.RegisterToken(c, planningDI.Framework, func(sr di.ServiceRegistry) *app.Framework {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)

		svc := app.Services{
			Selector:  scanningDI.GetSelector(sr),
			Valuer:    pricingDI.GetValuationService(sr),
			Messenger: messagingDI.GetNotifier(sr),
			Journal:   planningDI.GetJournal(sr),
			Reporter:  planningDI.GetReporter(sr),
			Style:     app.MessageStyle(cfg.Planning.MessageStyle),
		}

		f, err := app.NewFramework(svc, planningDI.GetPlanner(sr), planningDI.GetMemoryStore(sr), log)
		if err != nil {
			panic("failed to create planning framework: " + err.Error())
		}
		return f
	})

	return nil
}

// Startup checks the memory backend and starts the reporter.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	cfg := mono.Config()
	sr := mono.Services()

	if store, ok := planningDI.GetMemoryStore(sr).(*memory.RedisStore); ok {
		if err := store.Ping(ctx); err != nil {
			log.Warn(ctx, "redis memory store unreachable, runs will fail until it recovers", "error", err)
		}
	}

	if err := planningDI.GetReporter(sr).Start(ctx); err != nil {
		return err
	}

	log.Info(ctx, "planning module started",
		"mode", cfg.Planning.Mode,
		"memory", cfg.Memory.Backend,
		"journal", cfg.Journal.Path)
	return nil
}
