package report

import (
	"context"
	"time"

	"github.com/fd1az/deal-finder/business/planning/app"
	"github.com/fd1az/deal-finder/business/planning/domain"
	pricingDomain "github.com/fd1az/deal-finder/business/pricing/domain"
	scanningDomain "github.com/fd1az/deal-finder/business/scanning/domain"
	"github.com/fd1az/deal-finder/pkg/ui"
)

var _ app.Reporter = (*TUIReporter)(nil)

// TUIReporter forwards run events to the Bubble Tea program.
type TUIReporter struct {
	send func(msg any)
}

// NewTUIReporter creates a reporter sending to the running ui.Program.
func NewTUIReporter() *TUIReporter {
	return &TUIReporter{send: func(msg any) { ui.Send(msg) }}
}

// Start is a no-op; the program is started by main.
func (r *TUIReporter) Start(ctx context.Context) error {
	return nil
}

// RunStarted sends RunStartedMsg.
func (r *TUIReporter) RunStarted(runID, mode string, remembered int) {
	r.send(ui.RunStartedMsg{RunID: runID, Mode: mode, Remembered: remembered, At: time.Now()})
}

// Candidates sends CandidatesMsg.
func (r *TUIReporter) Candidates(sel *scanningDomain.Selection) {
	r.send(ui.CandidatesMsg{Selection: sel})
}

// Valued sends ValuationMsg.
func (r *TUIReporter) Valued(v pricingDomain.Valuation) {
	r.send(ui.ValuationMsg{Valuation: v})
}

// Report sends OpportunityMsg.
func (r *TUIReporter) Report(opp *domain.Opportunity) {
	r.send(ui.OpportunityMsg{Opportunity: opp})
}

// RunFinished sends RunFinishedMsg.
func (r *TUIReporter) RunFinished(runID string, opp *domain.Opportunity, err error) {
	r.send(ui.RunFinishedMsg{RunID: runID, Surfaced: opp != nil, Err: err, At: time.Now()})
}

// Stop is a no-op; quitting the program is left to the user.
func (r *TUIReporter) Stop() error {
	return nil
}
