package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"

	planningDomain "github.com/fd1az/deal-finder/business/planning/domain"
	pricingDomain "github.com/fd1az/deal-finder/business/pricing/domain"
	scanningDomain "github.com/fd1az/deal-finder/business/scanning/domain"
)

func apply(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func TestModel_RunLifecycle(t *testing.T) {
	m := New(decimal.NewFromInt(50))
	m.phase = PhaseDashboard

	deal := scanningDomain.CandidateDeal{
		ProductDescription: "Cordless drill with two batteries",
		Price:              decimal.NewFromInt(50),
		URL:                "https://deals.example/drill",
	}
	opp := planningDomain.NewOpportunity(deal, decimal.NewFromInt(200), time.Now())

	m = apply(t, m,
		tea.WindowSizeMsg{Width: 160, Height: 50},
		RunStartedMsg{RunID: "0123456789abcdef", Mode: "pipeline", Remembered: 3, At: time.Now()},
		CandidatesMsg{Selection: &scanningDomain.Selection{Deals: []scanningDomain.CandidateDeal{deal}}},
		ValuationMsg{Valuation: pricingDomain.Blend(deal.ProductDescription, decimal.NewFromInt(180), decimal.NewFromInt(220))},
		OpportunityMsg{Opportunity: opp},
		RunFinishedMsg{RunID: "0123456789abcdef", Surfaced: true, At: time.Now()},
	)

	s := m.stats.Stats()
	if s.Runs != 1 || s.Candidates != 1 || s.Valuations != 1 || s.Opportunities != 1 || s.Remembered != 3 {
		t.Errorf("unexpected stats %+v", s)
	}
	if m.runActive {
		t.Error("run should be finished")
	}

	rows := m.candidates.Rows()
	if len(rows) != 1 || !rows[0].Valued || !rows[0].Discount().Equal(decimal.NewFromInt(150)) {
		t.Errorf("unexpected candidate rows %+v", rows)
	}

	view := m.View()
	for _, want := range []string{"Deal Finder", "https://deals.example/drill", "+$150.00", "Mode: pipeline"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestModel_FailedRunRecordsError(t *testing.T) {
	m := New(decimal.NewFromInt(50))
	m = apply(t, m, RunFinishedMsg{RunID: "r", Err: errors.New("memory unavailable")})

	if len(m.errors) != 1 || m.stats.Stats().Errors != 1 {
		t.Fatalf("expected one recorded error, got %+v", m.errors)
	}

	for i := 0; i < 5; i++ {
		m = apply(t, m, ErrorMsg{Error: errors.New("again")})
	}
	if len(m.errors) != 3 {
		t.Errorf("error panel should keep 3 entries, got %d", len(m.errors))
	}
}

func TestModel_StartupCompletes(t *testing.T) {
	m := New(decimal.NewFromInt(50))
	m.phase = PhaseStartup

	m = apply(t, m,
		StartupMsg{Step: "config", Status: "done"},
		StartupMsg{Step: "local", Status: "connected"},
		StartupMsg{Step: "vector", Status: "failed", Message: "qdrant down"},
	)
	if m.startupComplete {
		t.Fatal("startup should wait for the remote step")
	}
	if !strings.Contains(m.View(), "Starting up") {
		t.Error("expected the startup screen")
	}

	m = apply(t, m, StartupMsg{Step: "remote", Status: "done"})
	if !m.startupComplete {
		t.Error("startup should be complete")
	}
}

func TestTruncateInCandidates(t *testing.T) {
	m := New(decimal.NewFromInt(50))
	long := strings.Repeat("very long product name ", 5)
	m = apply(t, m, CandidatesMsg{Selection: &scanningDomain.Selection{Deals: []scanningDomain.CandidateDeal{
		{ProductDescription: long, Price: decimal.NewFromInt(10), URL: "u"},
	}}})

	if !strings.Contains(m.candidates.View(), "valuing...") {
		t.Error("unvalued rows should say so")
	}
}

func TestModel_RunNowKey(t *testing.T) {
	var calls int
	SetRunNow(func() bool { calls++; return true })
	defer runNow.Store(nil)

	press := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")}

	m := New(decimal.NewFromInt(50))
	m = apply(t, m, press)
	if calls != 0 {
		t.Fatal("run-now must be ignored before the dashboard is up")
	}

	m.phase = PhaseDashboard
	m = apply(t, m, press)
	if calls != 1 || !strings.Contains(strings.Join(m.activityFeed, "\n"), "Run requested") {
		t.Errorf("expected one requested run, got %d calls, feed %v", calls, m.activityFeed)
	}

	m = apply(t, m, RunStartedMsg{RunID: "abc", Mode: "pipeline", At: time.Now()}, press)
	if calls != 1 {
		t.Error("run-now must be ignored while a run is active")
	}
}
