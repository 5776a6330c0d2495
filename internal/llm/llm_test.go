package llm

import (
	"context"
	"encoding/json"
	"io"
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

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("decode body %q: %v", raw, err)
	}
	return body
}

func newOpenAI(t *testing.T, url string) *OpenAIClient {
	t.Helper()
	c, err := NewOpenAIClient(OpenAIConfig{BaseURL: url + "/v1beta/openai/", APIKey: "secret", Model: "gemini-2.5-flash"}, nil, &mockLogger{})
	if err != nil {
		t.Fatalf("NewOpenAIClient: %v", err)
	}
	return c
}

func TestOpenAIClient_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1beta/openai/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("missing bearer token, got %q", r.Header.Get("Authorization"))
		}
		body := decodeBody(t, r)
		if body["model"] != "gemini-2.5-flash" || body["max_tokens"] != float64(10) {
			t.Errorf("unexpected request body %v", body)
		}
		msgs := body["messages"].([]any)
		if len(msgs) != 2 || msgs[0].(map[string]any)["role"] != "system" {
			t.Errorf("expected system+user messages, got %v", msgs)
		}
		_, _ = io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"  $249.99 \n"},"finish_reason":"stop"}]}`)
	}))
	defer srv.Close()

	got, err := newOpenAI(t, srv.URL).Complete(context.Background(), Prompt{System: "s", User: "u", MaxTokens: 10})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "$249.99" {
		t.Errorf("expected trimmed reply, got %q", got)
	}
}

func TestOpenAIClient_CompleteErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode apperror.Code
	}{
		{name: "empty content", status: 200, body: `{"choices":[{"message":{"content":""},"finish_reason":"length"}]}`, wantCode: apperror.CodeLLMEmptyReply},
		{name: "no choices", status: 200, body: `{"choices":[]}`, wantCode: apperror.CodeLLMEmptyReply},
		{name: "quota", status: 429, body: `{"error":{"message":"quota"}}`, wantCode: apperror.CodeLLMRequestFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			_, err := newOpenAI(t, srv.URL).Complete(context.Background(), Prompt{User: "u"})
			if !apperror.HasCode(err, tt.wantCode) {
				t.Errorf("expected %s, got %v", tt.wantCode, err)
			}
		})
	}
}

func TestOpenAIClient_RequiresAPIKey(t *testing.T) {
	_, err := NewOpenAIClient(OpenAIConfig{BaseURL: "http://x"}, nil, &mockLogger{})
	if !apperror.HasCode(err, apperror.CodeConfigurationError) {
		t.Errorf("expected CodeConfigurationError, got %v", err)
	}
}

func TestOpenAIClient_ChatToolCalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(t, r)
		tools := body["tools"].([]any)
		fn := tools[0].(map[string]any)["function"].(map[string]any)
		if fn["name"] != "estimate_true_value" {
			t.Errorf("unexpected tool %v", fn)
		}
		msgs := body["messages"].([]any)
		last := msgs[len(msgs)-1].(map[string]any)
		if last["role"] != "tool" || last["tool_call_id"] != "call_0" {
			t.Errorf("expected tool result message last, got %v", last)
		}
		_, _ = io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":null,"tool_calls":[
			{"id":"call_1","type":"function","function":{"name":"estimate_true_value","arguments":"{\"description\":\"TV\"}"}}
		]}}]}`)
	}))
	defer srv.Close()

	history := []Message{
		{Role: RoleUser, Content: "find deals"},
		{Role: RoleAssistant, ToolCalls: []ToolCall{{ID: "call_0", Name: "scan_the_internet_for_bargains", Arguments: "{}"}}},
		{Role: RoleTool, ToolCallID: "call_0", Content: `{"deals":[]}`},
	}
	tools := []Tool{{Name: "estimate_true_value", Description: "estimate"}}

	msg, err := newOpenAI(t, srv.URL).Chat(context.Background(), history, tools)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if len(msg.ToolCalls) != 1 {
		t.Fatalf("expected one tool call, got %+v", msg)
	}
	call := msg.ToolCalls[0]
	if call.ID != "call_1" || call.Name != "estimate_true_value" || call.Arguments != `{"description":"TV"}` {
		t.Errorf("unexpected tool call %+v", call)
	}
}

func TestOllamaClient_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		body := decodeBody(t, r)
		if body["stream"] != false || body["model"] != "llama3.2" {
			t.Errorf("unexpected body %v", body)
		}
		_, _ = io.WriteString(w, `{"model":"llama3.2","message":{"role":"assistant","content":"Rewritten text"},"done":true}`)
	}))
	defer srv.Close()

	c, err := NewOllamaClient(OllamaConfig{BaseURL: srv.URL, Model: "llama3.2"}, &mockLogger{})
	if err != nil {
		t.Fatalf("NewOllamaClient: %v", err)
	}

	got, err := c.Complete(context.Background(), Prompt{User: "Rewrite this more concisely: x"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "Rewritten text" {
		t.Errorf("unexpected reply %q", got)
	}
}

func TestOllamaClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewOllamaClient(OllamaConfig{BaseURL: url, Model: "llama3.2"}, &mockLogger{})
	if err != nil {
		t.Fatalf("NewOllamaClient: %v", err)
	}

	if _, err := c.Complete(context.Background(), Prompt{User: "x"}); !apperror.HasCode(err, apperror.CodeLLMRequestFailed) {
		t.Errorf("expected CodeLLMRequestFailed, got %v", err)
	}
	if err := c.Ping(context.Background()); err == nil {
		t.Error("expected ping to fail")
	}
}

func TestOpenAIClient_ChatSendsToolSchemas(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(t, r)
		tools := body["tools"].([]any)
		if len(tools) != 3 {
			t.Fatalf("expected 3 tools, got %d", len(tools))
		}
		for _, raw := range tools {
			tool := raw.(map[string]any)
			if tool["type"] != "function" {
				t.Errorf("unexpected tool type %v", tool["type"])
			}
			fn := tool["function"].(map[string]any)
			params, ok := fn["parameters"].(map[string]any)
			if !ok || params["type"] != "object" {
				t.Errorf("%v: expected object parameters, got %v", fn["name"], fn["parameters"])
				continue
			}
			if req, present := params["required"]; present {
				if _, isArray := req.([]any); !isArray {
					t.Errorf("%v: required must be an array, got %v", fn["name"], req)
				}
			}
		}
		_, _ = io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"done"}}]}`)
	}))
	defer srv.Close()

	tools := []Tool{
		{Name: "no_params"},
		{Name: "nil_required", Parameters: map[string]any{
			"type": "object", "properties": map[string]any{}, "required": []string(nil),
		}},
		{Name: "with_required", Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{"description": map[string]any{"type": "string"}},
			"required":   []string{"description"},
		}},
	}

	msg, err := newOpenAI(t, srv.URL).Chat(context.Background(), []Message{{Role: RoleUser, Content: "go"}}, tools)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if msg.Content != "done" {
		t.Errorf("unexpected reply %+v", msg)
	}
	if _, ok := tools[1].Parameters["required"]; !ok {
		t.Error("expected caller's parameters to be left untouched")
	}
}
