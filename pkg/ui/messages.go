package ui

import (
	"time"

	planningDomain "github.com/fd1az/deal-finder/business/planning/domain"
	pricingDomain "github.com/fd1az/deal-finder/business/pricing/domain"
	scanningDomain "github.com/fd1az/deal-finder/business/scanning/domain"
)

// Message types for TUI updates

// RunStartedMsg is sent when a planning run begins.
type RunStartedMsg struct {
	RunID      string
	Mode       string
	Remembered int
	At         time.Time
}

// CandidatesMsg is sent when the selector has picked deals.
type CandidatesMsg struct {
	Selection *scanningDomain.Selection
}

// ValuationMsg is sent for every blended estimate.
type ValuationMsg struct {
	Valuation pricingDomain.Valuation
}

// OpportunityMsg is sent when a run surfaces its deal.
type OpportunityMsg struct {
	Opportunity *planningDomain.Opportunity
}

// RunFinishedMsg is sent when a run ends. Err is nil on success.
type RunFinishedMsg struct {
	RunID    string
	Surfaced bool
	Err      error
	At       time.Time
}

// ServiceStatusMsg reports whether a collaborator answered a health probe.
type ServiceStatusMsg struct {
	Name      string
	Connected bool
	Latency   time.Duration
}

// ScheduleMsg announces the next scheduled run.
type ScheduleMsg struct {
	Spec string
	Next time.Time
}

// ErrorMsg is sent when an error occurs.
type ErrorMsg struct {
	Error error
}

// TickMsg is sent periodically for UI updates.
type TickMsg struct{}

// StartModulesMsg signals that modules should start loading.
type StartModulesMsg struct{}

// LogMsg is sent to display a log message in the UI.
type LogMsg struct {
	Level   string // "info", "warn", "error"
	Message string
}

// StartupMsg is sent during application startup to show progress.
type StartupMsg struct {
	Step    string // "config", "local", "vector", "remote"
	Status  string // "connecting", "connected", "done", "failed"
	Message string
}
