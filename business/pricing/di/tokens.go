// Package di contains dependency injection tokens for the pricing context.
package di

import (
	"github.com/fd1az/deal-finder/business/pricing/app"
	"github.com/fd1az/deal-finder/business/pricing/infra/qdrant"
	"github.com/fd1az/deal-finder/internal/di"
)

// Public service tokens - exposed to other modules
var (
	ValuationService = di.NewToken[*app.ValuationService]("pricing.ValuationService")
)

// Private dependency tokens - internal to pricing module
var (
	Embedder          = di.NewToken[app.Embedder]("pricing:embedder")
	VectorStore       = di.NewToken[*qdrant.Store]("pricing:vectorStore")
	ContextBuilder    = di.NewToken[*app.ContextBuilder]("pricing:contextBuilder")
	FrontierEstimator = di.NewToken[app.Estimator]("pricing:frontierEstimator")
	SpecialistPricer  = di.NewToken[app.SpecialistPricer]("pricing:specialistPricer")
)

// Helper functions for type-safe access
func GetValuationService(c di.ServiceRegistry) *app.ValuationService {
	return di.GetToken(c, ValuationService)
}

func GetEmbedder(c di.ServiceRegistry) app.Embedder {
	return di.GetToken(c, Embedder)
}

func GetVectorStore(c di.ServiceRegistry) *qdrant.Store {
	return di.GetToken(c, VectorStore)
}

func GetContextBuilder(c di.ServiceRegistry) *app.ContextBuilder {
	return di.GetToken(c, ContextBuilder)
}

func GetFrontierEstimator(c di.ServiceRegistry) app.Estimator {
	return di.GetToken(c, FrontierEstimator)
}

func GetSpecialistPricer(c di.ServiceRegistry) app.SpecialistPricer {
	return di.GetToken(c, SpecialistPricer)
}
