package pushover

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fd1az/deal-finder/internal/apperror"
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

func TestGateway_Send(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != messagesPath || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("ParseForm: %v", err)
		}
		if r.PostForm.Get("token") != "tok" || r.PostForm.Get("user") != "usr" {
			t.Errorf("missing credentials: %v", r.PostForm)
		}
		if r.PostForm.Get("message") != "Deal Alert! $5 & more" || r.PostForm.Get("sound") != "cashregister" {
			t.Errorf("unexpected form %v", r.PostForm)
		}
		w.Write([]byte(`{"status":1,"request":"647d2300-702c-4b38-8b2f-d56326ae460b"}`))
	}))
	defer srv.Close()

	g, err := NewGateway(Config{URL: srv.URL, User: "usr", Token: "tok", Sound: "cashregister"}, &mockLogger{})
	if err != nil {
		t.Fatalf("NewGateway: %v", err)
	}
	if err := g.Send(context.Background(), "Deal Alert! $5 & more"); err != nil {
		t.Errorf("Send: %v", err)
	}
}

func TestGateway_SendRejected(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "bad token", status: 400, body: `{"token":"invalid","errors":["application token is invalid"],"status":0}`},
		{name: "status zero", status: 200, body: `{"status":0,"errors":["message cannot be blank"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			g, err := NewGateway(Config{URL: srv.URL, User: "u", Token: "t"}, &mockLogger{})
			if err != nil {
				t.Fatalf("NewGateway: %v", err)
			}
			if err := g.Send(context.Background(), "x"); !apperror.HasCode(err, apperror.CodePushFailed) {
				t.Errorf("expected CodePushFailed, got %v", err)
			}
		})
	}
}

func TestNewGateway_RequiresCredentials(t *testing.T) {
	if _, err := NewGateway(Config{User: "u"}, &mockLogger{}); !apperror.HasCode(err, apperror.CodeConfigurationError) {
		t.Errorf("expected CodeConfigurationError, got %v", err)
	}
}
