package app

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"

	messagingDomain "github.com/fd1az/deal-finder/business/messaging/domain"
	"github.com/fd1az/deal-finder/business/planning/domain"
	pricingDomain "github.com/fd1az/deal-finder/business/pricing/domain"
	scanningDomain "github.com/fd1az/deal-finder/business/scanning/domain"
	"github.com/fd1az/deal-finder/internal/llm"
	"github.com/fd1az/deal-finder/internal/logger"
)

type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Info(ctx context.Context, msg string, args ...any)               {}
func (m *mockLogger) Warn(ctx context.Context, msg string, args ...any)               {}
func (m *mockLogger) Error(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Debugc(ctx context.Context, caller int, msg string, args ...any) {}
func (m *mockLogger) Infoc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Warnc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Errorc(ctx context.Context, caller int, msg string, args ...any) {}

var _ logger.LoggerInterface = (*mockLogger)(nil)

var errBoom = errors.New("boom")

type fakeSelector struct {
	sel     *scanningDomain.Selection
	err     error
	calls   int
	exclude map[string]struct{}
}

func (f *fakeSelector) Select(ctx context.Context, exclude map[string]struct{}) (*scanningDomain.Selection, error) {
	f.calls++
	f.exclude = exclude
	return f.sel, f.err
}

type fakeValuer struct {
	mu        sync.Mutex
	estimates map[string]decimal.Decimal
	calls     []string
}

func (f *fakeValuer) EstimateTrueValue(ctx context.Context, description string) pricingDomain.Valuation {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, description)
	est := f.estimates[description]
	return pricingDomain.Valuation{Description: description, Frontier: est, Specialist: est, Estimate: est}
}

type notifyCall struct {
	description string
	price       decimal.Decimal
	estimate    decimal.Decimal
	url         string
}

type fakeMessenger struct {
	mu      sync.Mutex
	err     error
	notified []notifyCall
	alerts  []messagingDomain.Alert
}

func (f *fakeMessenger) Notify(ctx context.Context, description string, dealPrice, estimatedValue decimal.Decimal, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notified = append(f.notified, notifyCall{description, dealPrice, estimatedValue, url})
	return f.err
}

func (f *fakeMessenger) Alert(ctx context.Context, alert messagingDomain.Alert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, alert)
	return f.err
}

func (f *fakeMessenger) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.notified) + len(f.alerts)
}

type fakeJournal struct {
	entries []string
	err     error
}

func (f *fakeJournal) Append(ctx context.Context, markdown string) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, markdown)
	return nil
}

type fakeStore struct {
	memory  domain.Memory
	loadErr error
	saveErr error
	saved   []domain.Memory
}

func (f *fakeStore) Load(ctx context.Context) (domain.Memory, error) {
	return f.memory, f.loadErr
}

func (f *fakeStore) Save(ctx context.Context, memory domain.Memory) error {
	f.saved = append(f.saved, memory)
	return f.saveErr
}

type fakeReporter struct {
	nopReporter
	started  int
	finished int
	reported []*domain.Opportunity
	valued   []pricingDomain.Valuation
}

func (f *fakeReporter) RunStarted(string, string, int)                 { f.started++ }
func (f *fakeReporter) Valued(v pricingDomain.Valuation)               { f.valued = append(f.valued, v) }
func (f *fakeReporter) Report(opp *domain.Opportunity)                 { f.reported = append(f.reported, opp) }
func (f *fakeReporter) RunFinished(string, *domain.Opportunity, error) { f.finished++ }

// scriptedCaller replays replies in order and fails once they run out.
type scriptedCaller struct {
	replies []llm.Message
	seen    [][]llm.Message
}

func (s *scriptedCaller) Chat(ctx context.Context, messages []llm.Message, tools []llm.Tool) (llm.Message, error) {
	if err := ctx.Err(); err != nil {
		return llm.Message{}, err
	}
	s.seen = append(s.seen, append([]llm.Message(nil), messages...))
	if len(s.seen) > len(s.replies) {
		return llm.Message{}, errBoom
	}
	return s.replies[len(s.seen)-1], nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func deal(desc, price, url string) scanningDomain.CandidateDeal {
	return scanningDomain.CandidateDeal{ProductDescription: desc, Price: dec(price), URL: url}
}

func newTestToolset(sel *fakeSelector, val *fakeValuer, msg *fakeMessenger, journal *fakeJournal, memory domain.Memory) *Toolset {
	return NewToolset("run-1", Services{
		Selector:  sel,
		Valuer:    val,
		Messenger: msg,
		Journal:   journal,
	}, memory, &mockLogger{})
}
