// Package pricing implements the pricing bounded context: similarity context,
// frontier and specialist estimates, and their blend into a true value.
package pricing

import (
	"context"
	"time"

	"github.com/fd1az/deal-finder/business/pricing/app"
	pricingDI "github.com/fd1az/deal-finder/business/pricing/di"
	"github.com/fd1az/deal-finder/business/pricing/infra/ollama"
	"github.com/fd1az/deal-finder/business/pricing/infra/qdrant"
	"github.com/fd1az/deal-finder/business/pricing/infra/specialist"
	"github.com/fd1az/deal-finder/internal/config"
	"github.com/fd1az/deal-finder/internal/di"
	"github.com/fd1az/deal-finder/internal/fallback"
	"github.com/fd1az/deal-finder/internal/llm"
	"github.com/fd1az/deal-finder/internal/logger"
	"github.com/fd1az/deal-finder/internal/monolith"
)

// Module implements the pricing bounded context.
type Module struct{}

// RegisterServices registers all pricing services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, pricingDI.Embedder, func(sr di.ServiceRegistry) app.Embedder {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)

		embedder, err := ollama.NewEmbedder(ollama.Config{
			BaseURL: cfg.LLM.Local.BaseURL,
			Model:   cfg.LLM.Local.EmbedModel,
			Timeout: cfg.LLM.Local.Timeout,
		}, log)
		if err != nil {
			panic("failed to create embedder: " + err.Error())
		}
		return embedder
	})

	di.RegisterToken(c, pricingDI.VectorStore, func(sr di.ServiceRegistry) *qdrant.Store {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)

		store, err := qdrant.NewStore(qdrant.Config{
			URL:        cfg.Vector.URL,
			APIKey:     cfg.Vector.APIKey,
			Collection: cfg.Vector.Collection,
			Timeout:    cfg.Vector.Timeout,
		}, log)
		if err != nil {
			panic("failed to create vector store: " + err.Error())
		}
		return store
	})

	di.RegisterToken(c, pricingDI.ContextBuilder, func(sr di.ServiceRegistry) *app.ContextBuilder {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)
		local := sr.Get(monolith.ServiceLocalLLM).(*llm.OllamaClient)

		return app.NewContextBuilder(local,
			pricingDI.GetEmbedder(sr),
			pricingDI.GetVectorStore(sr),
			cfg.Vector.TopK, log)
	})

	di.RegisterToken(c, pricingDI.FrontierEstimator, func(sr di.ServiceRegistry) app.Estimator {
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)
		remote := sr.Get(monolith.ServiceRemoteLLM).(*llm.OpenAIClient)
		local := sr.Get(monolith.ServiceLocalLLM).(*llm.OllamaClient)
		recorder := sr.Get(monolith.ServiceFallback).(*fallback.Recorder)

		return app.NewFrontierEstimator(remote, local, pricingDI.GetContextBuilder(sr), recorder, log)
	})

	di.RegisterToken(c, pricingDI.SpecialistPricer, func(sr di.ServiceRegistry) app.SpecialistPricer {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)
		local := sr.Get(monolith.ServiceLocalLLM).(*llm.OllamaClient)
		recorder := sr.Get(monolith.ServiceFallback).(*fallback.Recorder)

		client, err := specialist.NewClient(specialist.Config{
			Enabled: cfg.Specialist.Enabled,
			URL:     cfg.Specialist.URL,
			Token:   cfg.Specialist.Token,
			Timeout: cfg.Specialist.Timeout,
		}, local, recorder, log)
		if err != nil {
			panic("failed to create specialist client: " + err.Error())
		}
		return client
	})

	// Register ValuationService (public - exposed to other modules)
	di.RegisterToken(c, pricingDI.ValuationService, func(sr di.ServiceRegistry) *app.ValuationService {
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)

		svc, err := app.NewValuationService(
			pricingDI.GetFrontierEstimator(sr),
			pricingDI.GetSpecialistPricer(sr),
			log)
		if err != nil {
			panic("failed to create valuation service: " + err.Error())
		}
		return svc
	})

	return nil
}

// Startup checks the collaborators the estimates depend on. Failures are not
// fatal: every estimate degrades to its fallback or the zero sentinel.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pricingDI.GetVectorStore(mono.Services()).Ping(pingCtx); err != nil {
		log.Warn(ctx, "vector store unreachable, frontier estimates will use the local model", "error", err)
	}
	if err := mono.LocalLLM().Ping(pingCtx); err != nil {
		log.Warn(ctx, "local model daemon unreachable, fallbacks will return no estimate", "error", err)
	}

	log.Info(ctx, "pricing module started")
	return nil
}
