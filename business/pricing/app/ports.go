// Package app contains application services and port definitions for the pricing context.
package app

import (
	"context"

	"github.com/shopspring/decimal"
)

// Embedder turns text into a vector in the same space as the product store.
type Embedder interface {
	Encode(ctx context.Context, text string) ([]float32, error)
}

// VectorStore holds historical products and their prices.
type VectorStore interface {
	// Query returns up to k nearest documents and their stored prices,
	// index-aligned.
	Query(ctx context.Context, embedding []float32, k int) ([]string, []decimal.Decimal, error)
}

// SpecialistPricer is the fine-tuned estimator. It never fails: a total
// failure yields the zero sentinel.
type SpecialistPricer interface {
	Price(ctx context.Context, description string) decimal.Decimal
}

// Estimator produces one price estimate, returning the zero sentinel on failure.
type Estimator interface {
	Estimate(ctx context.Context, description string) decimal.Decimal
}

// SimilarFinder supplies nearest historical items for a description.
type SimilarFinder interface {
	FindSimilars(ctx context.Context, description string) ([]string, []decimal.Decimal, error)
}
