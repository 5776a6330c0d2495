package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/fd1az/deal-finder/business/planning/domain"
	scanningDomain "github.com/fd1az/deal-finder/business/scanning/domain"
)

func TestPipelinePlanner_NotifiesBestDeal(t *testing.T) {
	sel := &fakeSelector{sel: &scanningDomain.Selection{Deals: []scanningDomain.CandidateDeal{
		deal("Blender", "50", "https://deals.example/blender"),
		deal("Toaster", "30", "https://deals.example/toaster"),
	}}}
	val := &fakeValuer{estimates: map[string]decimal.Decimal{
		"Blender": dec("200"),
		"Toaster": dec("60"),
	}}
	msg := &fakeMessenger{}
	journal := &fakeJournal{}
	tools := newTestToolset(sel, val, msg, journal, domain.Memory{})

	opp, err := NewPipelinePlanner(dec("50"), &mockLogger{}).Plan(context.Background(), tools)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if opp == nil {
		t.Fatal("expected an opportunity")
	}
	if !opp.Discount.Equal(dec("150")) || opp.Deal.URL != "https://deals.example/blender" {
		t.Errorf("unexpected opportunity %+v", opp)
	}
	if len(val.calls) != 2 {
		t.Errorf("every candidate should be valued, got %v", val.calls)
	}
	if msg.total() != 1 || msg.notified[0].url != "https://deals.example/blender" {
		t.Errorf("expected one message for the blender, got %+v", msg.notified)
	}
	if len(journal.entries) != 1 || !strings.Contains(journal.entries[0], "https://deals.example/blender") {
		t.Errorf("expected a journal entry with the link, got %v", journal.entries)
	}
}

func TestPipelinePlanner_NothingToDo(t *testing.T) {
	tests := []struct {
		name      string
		selection *scanningDomain.Selection
		estimates map[string]decimal.Decimal
		wantCalls int
	}{
		{name: "no selection", selection: nil},
		{name: "empty selection", selection: &scanningDomain.Selection{}},
		{
			name:      "below threshold",
			selection: &scanningDomain.Selection{Deals: []scanningDomain.CandidateDeal{deal("Mouse", "20", "https://deals.example/mouse")}},
			estimates: map[string]decimal.Decimal{"Mouse": dec("45")},
			wantCalls: 1,
		},
		{
			name:      "no estimate",
			selection: &scanningDomain.Selection{Deals: []scanningDomain.CandidateDeal{deal("Mystery", "20", "https://deals.example/x")}},
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			val := &fakeValuer{estimates: tt.estimates}
			msg := &fakeMessenger{}
			journal := &fakeJournal{}
			tools := newTestToolset(&fakeSelector{sel: tt.selection}, val, msg, journal, domain.Memory{})

			opp, err := NewPipelinePlanner(dec("50"), &mockLogger{}).Plan(context.Background(), tools)
			if err != nil || opp != nil {
				t.Fatalf("expected nil, nil; got %+v, %v", opp, err)
			}
			if len(val.calls) != tt.wantCalls {
				t.Errorf("expected %d valuations, got %d", tt.wantCalls, len(val.calls))
			}
			if msg.total() != 0 || len(journal.entries) != 0 {
				t.Error("nothing should be sent or written")
			}
		})
	}
}

func TestPipelinePlanner_PassesMemory(t *testing.T) {
	sel := &fakeSelector{}
	memory := domain.Memory{Opportunities: []domain.Opportunity{{Deal: deal("Old", "1", "https://deals.example/old")}}}
	tools := newTestToolset(sel, &fakeValuer{}, &fakeMessenger{}, &fakeJournal{}, memory)

	if _, err := NewPipelinePlanner(dec("50"), &mockLogger{}).Plan(context.Background(), tools); err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if _, ok := sel.exclude["https://deals.example/old"]; !ok {
		t.Errorf("remembered URL not excluded: %v", sel.exclude)
	}
}

func TestPipelinePlanner_JournalFailureKeepsOpportunity(t *testing.T) {
	sel := &fakeSelector{sel: &scanningDomain.Selection{Deals: []scanningDomain.CandidateDeal{deal("Drill", "40", "https://deals.example/drill")}}}
	val := &fakeValuer{estimates: map[string]decimal.Decimal{"Drill": dec("150")}}
	tools := newTestToolset(sel, val, &fakeMessenger{}, &fakeJournal{err: errBoom}, domain.Memory{})

	opp, err := NewPipelinePlanner(dec("50"), &mockLogger{}).Plan(context.Background(), tools)
	if err != nil || opp == nil {
		t.Fatalf("expected an opportunity, got %+v, %v", opp, err)
	}
}

func TestPipelinePlanner_SelectorCanceled(t *testing.T) {
	tools := newTestToolset(&fakeSelector{err: context.Canceled}, &fakeValuer{}, &fakeMessenger{}, &fakeJournal{}, domain.Memory{})

	_, err := NewPipelinePlanner(dec("50"), &mockLogger{}).Plan(context.Background(), tools)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
