package ollama

import (
	"context"
	"encoding/json"
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

func TestEmbedder_Encode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Model string `json:"model"`
			Input string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if r.URL.Path != "/api/embed" || body.Model != DefaultModel || body.Input != "55in TV" {
			t.Errorf("unexpected request %s %+v", r.URL.Path, body)
		}
		w.Write([]byte(`{"model":"all-minilm","embeddings":[[0.5,-0.25,1]]}`))
	}))
	defer srv.Close()

	e, err := NewEmbedder(Config{BaseURL: srv.URL}, &mockLogger{})
	if err != nil {
		t.Fatalf("NewEmbedder: %v", err)
	}

	got, err := e.Encode(context.Background(), "55in TV")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := []float32{0.5, -0.25, 1}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("dim %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestEmbedder_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "server_error", status: http.StatusInternalServerError, body: `{"error":"model not found"}`},
		{name: "empty_embeddings", status: http.StatusOK, body: `{"embeddings":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			e, err := NewEmbedder(Config{BaseURL: srv.URL}, &mockLogger{})
			if err != nil {
				t.Fatalf("NewEmbedder: %v", err)
			}
			if _, err := e.Encode(context.Background(), "x"); !apperror.HasCode(err, apperror.CodeEmbeddingFailed) {
				t.Errorf("expected CodeEmbeddingFailed, got %v", err)
			}
		})
	}
}
