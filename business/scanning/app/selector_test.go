package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/fd1az/deal-finder/business/scanning/domain"
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

type fakeFeed struct {
	listings []domain.ScrapedListing
	err      error
}

func (f *fakeFeed) Fetch(ctx context.Context) ([]domain.ScrapedListing, error) {
	return f.listings, f.err
}

type fakeBackend struct {
	reply   string
	err     error
	prompts []llm.Prompt
}

func (f *fakeBackend) Complete(ctx context.Context, p llm.Prompt) (string, error) {
	f.prompts = append(f.prompts, p)
	return f.reply, f.err
}

func listings(n int, prefix string) []domain.ScrapedListing {
	out := make([]domain.ScrapedListing, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, domain.ScrapedListing{
			Title:   fmt.Sprintf("Deal %s%d", prefix, i),
			Summary: "summary",
			URL:     fmt.Sprintf("https://example.com/%s%d", prefix, i),
		})
	}
	return out
}

const oneDealReply = `{"deals":[{"product_description":"Bose QC45","price":199,"url":"https://example.com/new0"}]}`

func TestSelector_ExcludesSeenListings(t *testing.T) {
	seen := listings(4, "seen")
	feed := &fakeFeed{listings: append(listings(6, "new"), seen...)}
	exclude := make(map[string]struct{})
	for _, l := range seen {
		exclude[l.URL] = struct{}{}
	}

	remote := &fakeBackend{reply: oneDealReply}
	local := &fakeBackend{}
	s := NewSelector(feed, remote, local, nil, &mockLogger{})

	sel, err := s.Select(context.Background(), exclude)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if sel == nil || len(sel.Deals) != 1 {
		t.Fatalf("expected one deal, got %+v", sel)
	}
	if len(remote.prompts) != 1 || len(local.prompts) != 0 {
		t.Fatalf("expected one remote call only, got remote=%d local=%d", len(remote.prompts), len(local.prompts))
	}

	p := remote.prompts[0]
	if got := strings.Count(p.User, "URL: "); got != 6 {
		t.Errorf("expected 6 listings in prompt, got %d", got)
	}
	if strings.Contains(p.User, "seen") {
		t.Error("prompt contains an excluded listing")
	}
	if p.MaxTokens != selectionMaxTokens || p.System != systemPrompt {
		t.Errorf("unexpected prompt settings %+v", p)
	}
}

func TestSelector_NoNewListingsSkipsModel(t *testing.T) {
	tests := []struct {
		name    string
		feed    *fakeFeed
		exclude map[string]struct{}
	}{
		{name: "empty feed", feed: &fakeFeed{}},
		{name: "all seen", feed: &fakeFeed{listings: listings(1, "a")}, exclude: map[string]struct{}{"https://example.com/a0": {}}},
		{name: "feed error", feed: &fakeFeed{err: errors.New("dns failure")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remote := &fakeBackend{reply: oneDealReply}
			local := &fakeBackend{reply: oneDealReply}
			s := NewSelector(tt.feed, remote, local, nil, &mockLogger{})

			sel, err := s.Select(context.Background(), tt.exclude)
			if sel != nil || err != nil {
				t.Errorf("expected nil, nil; got %+v, %v", sel, err)
			}
			if len(remote.prompts)+len(local.prompts) != 0 {
				t.Error("model was called without new listings")
			}
		})
	}
}

func TestSelector_Fallback(t *testing.T) {
	tests := []struct {
		name      string
		remote    *fakeBackend
		local     *fakeBackend
		wantDeals int
		wantNil   bool
	}{
		{
			name:      "remote fails, local answers",
			remote:    &fakeBackend{err: errors.New("429")},
			local:     &fakeBackend{reply: "```json\n" + oneDealReply + "\n```"},
			wantDeals: 1,
		},
		{
			name:    "both fail",
			remote:  &fakeBackend{err: errors.New("429")},
			local:   &fakeBackend{err: errors.New("connection refused")},
			wantNil: true,
		},
		{
			name:    "unparseable reply",
			remote:  &fakeBackend{reply: "I found some great deals!"},
			local:   &fakeBackend{},
			wantNil: true,
		},
		{
			name:      "zero price filtered",
			remote:    &fakeBackend{reply: `{"deals":[{"product_description":"Freebie","price":0,"url":"u"}]}`},
			local:     &fakeBackend{},
			wantDeals: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSelector(&fakeFeed{listings: listings(2, "new")}, tt.remote, tt.local, nil, &mockLogger{})

			sel, err := s.Select(context.Background(), nil)
			if err != nil {
				t.Fatalf("Select: %v", err)
			}
			if tt.wantNil {
				if sel != nil {
					t.Errorf("expected nil selection, got %+v", sel)
				}
				return
			}
			if sel == nil || len(sel.Deals) != tt.wantDeals {
				t.Fatalf("expected %d deals, got %+v", tt.wantDeals, sel)
			}
			if len(tt.local.prompts) == 1 && tt.local.prompts[0] != tt.remote.prompts[0] {
				t.Error("fallback did not reuse the same prompt")
			}
		})
	}
}

func TestSelector_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewSelector(&fakeFeed{listings: listings(1, "x")},
		&fakeBackend{err: context.Canceled}, &fakeBackend{err: context.Canceled}, nil, &mockLogger{})

	if _, err := s.Select(ctx, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
