// Package app contains the planning services: the opportunity gate, the run
// toolset, the pipeline and agent planners, and the framework that runs them.
package app

import (
	"context"

	"github.com/shopspring/decimal"

	messagingDomain "github.com/fd1az/deal-finder/business/messaging/domain"
	"github.com/fd1az/deal-finder/business/planning/domain"
	pricingDomain "github.com/fd1az/deal-finder/business/pricing/domain"
	scanningDomain "github.com/fd1az/deal-finder/business/scanning/domain"
)

// DealSelector picks candidate deals among listings not yet surfaced.
type DealSelector interface {
	Select(ctx context.Context, exclude map[string]struct{}) (*scanningDomain.Selection, error)
}

// Valuer estimates the true value of a product.
type Valuer interface {
	EstimateTrueValue(ctx context.Context, description string) pricingDomain.Valuation
}

// Messenger delivers deal notifications.
type Messenger interface {
	Notify(ctx context.Context, description string, dealPrice, estimatedValue decimal.Decimal, url string) error
	Alert(ctx context.Context, alert messagingDomain.Alert) error
}

// MemoryStore persists surfaced opportunities between runs.
type MemoryStore interface {
	Load(ctx context.Context) (domain.Memory, error)
	Save(ctx context.Context, memory domain.Memory) error
}

// Journal appends markdown entries to the deal log.
type Journal interface {
	Append(ctx context.Context, markdown string) error
}

// Reporter receives run progress for display.
type Reporter interface {
	// Start initializes the reporter.
	Start(ctx context.Context) error

	// RunStarted marks the beginning of a run.
	RunStarted(runID, mode string, remembered int)

	// Candidates shows the deals picked by the selector.
	Candidates(sel *scanningDomain.Selection)

	// Valued shows one blended estimate.
	Valued(v pricingDomain.Valuation)

	// Report shows the run's opportunity.
	Report(opp *domain.Opportunity)

	// RunFinished marks the end of a run; opp is nil when nothing was surfaced.
	RunFinished(runID string, opp *domain.Opportunity, err error)

	// Stop gracefully shuts down the reporter.
	Stop() error
}
