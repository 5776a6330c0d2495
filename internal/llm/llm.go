// Package llm provides chat-completion backends: an OpenAI-compatible hosted
// endpoint and a local Ollama daemon.
package llm

import (
	"context"
	"encoding/json"
	"maps"
)

const tracerName = "github.com/fd1az/deal-finder/internal/llm"

// Prompt is a single-turn request.
type Prompt struct {
	System    string
	User      string
	MaxTokens int // 0 leaves the backend default
}

// Backend completes a single-turn prompt. An empty reply is an error.
type Backend interface {
	Complete(ctx context.Context, p Prompt) (string, error)
}

// Roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one chat turn.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// ToolCall is a function invocation requested by the model. Arguments is raw JSON.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// MarshalJSON renders the OpenAI wire shape.
func (c ToolCall) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"id":   c.ID,
		"type": "function",
		"function": map[string]string{
			"name":      c.Name,
			"arguments": c.Arguments,
		},
	})
}

// Tool describes a function the model may call. Parameters is a JSON schema.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any
}

func (t Tool) wire() map[string]any {
	params := t.Parameters
	if params == nil {
		params = map[string]any{"type": "object", "properties": map[string]any{}}
	}
	// strict backends reject a null required list
	if req, ok := params["required"].([]string); ok && req == nil {
		params = maps.Clone(params)
		delete(params, "required")
	}
	return map[string]any{
		"type": "function",
		"function": map[string]any{
			"name":        t.Name,
			"description": t.Description,
			"parameters":  params,
		},
	}
}

// ToolCaller runs one multi-turn step with tools available.
type ToolCaller interface {
	Chat(ctx context.Context, messages []Message, tools []Tool) (Message, error)
}

func promptMessages(p Prompt) []Message {
	msgs := make([]Message, 0, 2)
	if p.System != "" {
		msgs = append(msgs, Message{Role: RoleSystem, Content: p.System})
	}
	return append(msgs, Message{Role: RoleUser, Content: p.User})
}
