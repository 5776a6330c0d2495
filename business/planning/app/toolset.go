package app

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/fd1az/deal-finder/business/planning/domain"
	pricingDomain "github.com/fd1az/deal-finder/business/pricing/domain"
	scanningDomain "github.com/fd1az/deal-finder/business/scanning/domain"
	"github.com/fd1az/deal-finder/internal/logger"
)

const (
	tracerName = "github.com/fd1az/deal-finder/business/planning"
	meterName  = "github.com/fd1az/deal-finder/business/planning"
)

// Services are the long-lived collaborators shared by every run.
type Services struct {
	Selector  DealSelector
	Valuer    Valuer
	Messenger Messenger
	Journal   Journal
	Reporter  Reporter
	Style     MessageStyle
}

// Toolset is everything a planner may do during one run. It owns the run's
// gate and the set of URLs to exclude, so runs never share state.
type Toolset struct {
	runID    string
	services Services
	gate     *Gate
	seen     map[string]struct{}
	logger   logger.LoggerInterface
}

// NewToolset creates the toolset for one run.
func NewToolset(runID string, svc Services, memory domain.Memory, log logger.LoggerInterface) *Toolset {
	if svc.Reporter == nil {
		svc.Reporter = nopReporter{}
	}
	return &Toolset{
		runID:    runID,
		services: svc,
		gate:     NewGate(svc.Messenger, svc.Style, log),
		seen:     memory.Seen(),
		logger:   log,
	}
}

// RunID identifies the run.
func (t *Toolset) RunID() string {
	return t.runID
}

// ScanForBargains selects candidate deals among listings not yet surfaced.
// A nil Selection means there is nothing to act on.
func (t *Toolset) ScanForBargains(ctx context.Context) (*scanningDomain.Selection, error) {
	t.logger.Info(ctx, "scanning for bargains", "run_id", t.runID, "excluded", len(t.seen))

	sel, err := t.services.Selector.Select(ctx, t.seen)
	if err != nil {
		return nil, err
	}
	if sel != nil {
		t.services.Reporter.Candidates(sel)
	}
	return sel, nil
}

// EstimateTrueValue returns the blended estimate for a product.
func (t *Toolset) EstimateTrueValue(ctx context.Context, description string) pricingDomain.Valuation {
	v := t.services.Valuer.EstimateTrueValue(ctx, description)
	t.services.Reporter.Valued(v)
	return v
}

// NotifyUserOfDeal passes the deal through the run's gate.
func (t *Toolset) NotifyUserOfDeal(ctx context.Context, description string, dealPrice, estimatedValue decimal.Decimal, url string) *domain.Opportunity {
	return t.gate.NotifyOnce(ctx, description, dealPrice, estimatedValue, url)
}

// WriteDealSummary appends markdown to the deal journal.
func (t *Toolset) WriteDealSummary(ctx context.Context, markdown string) error {
	return t.services.Journal.Append(ctx, markdown)
}

// Opportunity returns the run's opportunity, or nil.
func (t *Toolset) Opportunity() *domain.Opportunity {
	return t.gate.Opportunity()
}

type nopReporter struct{}

func (nopReporter) Start(context.Context) error                    { return nil }
func (nopReporter) RunStarted(string, string, int)                 {}
func (nopReporter) Candidates(*scanningDomain.Selection)           {}
func (nopReporter) Valued(pricingDomain.Valuation)                 {}
func (nopReporter) Report(*domain.Opportunity)                     {}
func (nopReporter) RunFinished(string, *domain.Opportunity, error) {}
func (nopReporter) Stop() error                                    { return nil }
