package app

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/deal-finder/business/planning/domain"
	scanningDomain "github.com/fd1az/deal-finder/business/scanning/domain"
	"github.com/fd1az/deal-finder/internal/apperror"
)

func newTestFramework(t *testing.T, sel *fakeSelector, val *fakeValuer, msg *fakeMessenger, store *fakeStore, rep *fakeReporter) *Framework {
	t.Helper()
	svc := Services{Selector: sel, Valuer: val, Messenger: msg, Journal: &fakeJournal{}}
	if rep != nil {
		svc.Reporter = rep
	}
	f, err := NewFramework(svc, NewPipelinePlanner(dec("50"), &mockLogger{}), store, &mockLogger{})
	if err != nil {
		t.Fatalf("NewFramework: %v", err)
	}
	return f
}

func TestFramework_RunRemembersOpportunity(t *testing.T) {
	old := domain.NewOpportunity(deal("Old", "5", "https://deals.example/old"), dec("9"), time.Now())
	store := &fakeStore{memory: domain.Memory{Opportunities: []domain.Opportunity{*old}}}
	sel := &fakeSelector{sel: &scanningDomain.Selection{Deals: []scanningDomain.CandidateDeal{deal("Kettle", "25", "https://deals.example/kettle")}}}
	val := &fakeValuer{estimates: map[string]decimal.Decimal{"Kettle": dec("120")}}
	rep := &fakeReporter{}

	opp, err := newTestFramework(t, sel, val, &fakeMessenger{}, store, rep).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if opp == nil || opp.Deal.URL != "https://deals.example/kettle" {
		t.Fatalf("unexpected opportunity %+v", opp)
	}
	if _, ok := sel.exclude["https://deals.example/old"]; !ok {
		t.Error("memory URLs should be excluded from selection")
	}
	if len(store.saved) != 1 || store.saved[0].Len() != 2 {
		t.Fatalf("expected memory saved with 2 entries, got %+v", store.saved)
	}
	if store.saved[0].Opportunities[1].Deal.URL != "https://deals.example/kettle" {
		t.Error("new opportunity should be appended last")
	}
	if rep.started != 1 || rep.finished != 1 || len(rep.reported) != 1 || len(rep.valued) != 1 {
		t.Errorf("unexpected reporter events %+v", rep)
	}
}

func TestFramework_NothingSurfaced(t *testing.T) {
	store := &fakeStore{}
	opp, err := newTestFramework(t, &fakeSelector{}, &fakeValuer{}, &fakeMessenger{}, store, nil).Run(context.Background())
	if err != nil || opp != nil {
		t.Fatalf("expected nil, nil; got %+v, %v", opp, err)
	}
	if len(store.saved) != 0 {
		t.Error("memory should not be saved when nothing was surfaced")
	}
}

func TestFramework_StoreErrors(t *testing.T) {
	sel := &fakeSelector{sel: &scanningDomain.Selection{Deals: []scanningDomain.CandidateDeal{deal("Kettle", "25", "https://deals.example/kettle")}}}
	val := &fakeValuer{estimates: map[string]decimal.Decimal{"Kettle": dec("120")}}

	t.Run("load", func(t *testing.T) {
		msg := &fakeMessenger{}
		sel := &fakeSelector{sel: sel.sel}
		_, err := newTestFramework(t, sel, val, msg, &fakeStore{loadErr: errBoom}, nil).Run(context.Background())
		if !apperror.HasCode(err, apperror.CodeMemoryLoadFailed) {
			t.Errorf("expected CodeMemoryLoadFailed, got %v", err)
		}
		if sel.calls != 0 || msg.total() != 0 {
			t.Error("run should stop before selecting")
		}
	})

	t.Run("save", func(t *testing.T) {
		opp, err := newTestFramework(t, sel, val, &fakeMessenger{}, &fakeStore{saveErr: errBoom}, nil).Run(context.Background())
		if !apperror.HasCode(err, apperror.CodeMemorySaveFailed) {
			t.Errorf("expected CodeMemorySaveFailed, got %v", err)
		}
		if opp == nil {
			t.Error("opportunity should still be returned")
		}
	})
}

func TestFramework_RunsAreIndependent(t *testing.T) {
	sel := &fakeSelector{sel: &scanningDomain.Selection{Deals: []scanningDomain.CandidateDeal{deal("Kettle", "25", "https://deals.example/kettle")}}}
	val := &fakeValuer{estimates: map[string]decimal.Decimal{"Kettle": dec("120")}}
	msg := &fakeMessenger{}
	f := newTestFramework(t, sel, val, msg, &fakeStore{}, nil)

	for i := 0; i < 2; i++ {
		if _, err := f.Run(context.Background()); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
	if msg.total() != 2 {
		t.Errorf("each run owns its gate, expected 2 pushes, got %d", msg.total())
	}
}
