package specialist

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/fd1az/deal-finder/internal/apperror"
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

type fakeBackend struct {
	reply   string
	err     error
	prompts []llm.Prompt
}

func (f *fakeBackend) Complete(ctx context.Context, p llm.Prompt) (string, error) {
	f.prompts = append(f.prompts, p)
	return f.reply, f.err
}

func TestClient_Price(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		localReply string
		localErr   error
		want       string
		wantLocal  int
	}{
		{name: "json price", status: 200, body: `{"price": 129.99}`, want: "129.99"},
		{name: "text reply", status: 200, body: `$1,050.00`, want: "1050"},
		{name: "server error falls back", status: 500, body: `boom`, localReply: "88", want: "88", wantLocal: 1},
		{name: "both fail", status: 503, body: `down`, localErr: errors.New("offline"), want: "0", wantLocal: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("expected POST, got %s", r.Method)
				}
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			local := &fakeBackend{reply: tt.localReply, err: tt.localErr}
			c, err := NewClient(Config{Enabled: true, URL: srv.URL}, local, nil, &mockLogger{})
			if err != nil {
				t.Fatalf("NewClient: %v", err)
			}

			got := c.Price(context.Background(), "Sony headphones")
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
			if len(local.prompts) != tt.wantLocal {
				t.Errorf("expected %d local calls, got %d", tt.wantLocal, len(local.prompts))
			}
		})
	}
}

func TestClient_DisabledUsesLocal(t *testing.T) {
	local := &fakeBackend{reply: "42.50"}
	c, err := NewClient(Config{Enabled: false}, local, nil, &mockLogger{})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	got := c.Price(context.Background(), "USB cable")
	if !got.Equal(decimal.RequireFromString("42.5")) {
		t.Errorf("expected 42.5, got %s", got)
	}
	if len(local.prompts) != 1 {
		t.Fatalf("expected one local call, got %d", len(local.prompts))
	}
	p := local.prompts[0]
	if p.System != systemPrompt || p.User != question+"\n\nUSB cable" {
		t.Errorf("unexpected local prompt %+v", p)
	}
}

func TestNewClient_RequiresURLWhenEnabled(t *testing.T) {
	_, err := NewClient(Config{Enabled: true}, &fakeBackend{}, nil, &mockLogger{})
	if !apperror.HasCode(err, apperror.CodeConfigurationError) {
		t.Errorf("expected CodeConfigurationError, got %v", err)
	}
}
