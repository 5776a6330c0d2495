package ui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestLogWriter_ForwardsWarnings(t *testing.T) {
	var got []LogMsg
	w := &LogWriter{send: func(msg tea.Msg) { got = append(got, msg.(LogMsg)) }}

	input := `{"level":"INFO","msg":"run started"}
{"level":"WARN","msg":"specialist unavailable","error":"connection refused"}
not json
{"level":"ERROR","msg":"run failed"}
{"level":"WARN","msg":"push failed","error":{"code":"PUSH_FAILED","message":"x","context":"pushover","cause":"timeout"}}
`
	n, err := w.Write([]byte(input))
	if err != nil || n != len(input) {
		t.Fatalf("Write: n=%d err=%v", n, err)
	}

	want := []LogMsg{
		{Level: "warn", Message: "specialist unavailable: connection refused"},
		{Level: "error", Message: "run failed"},
		{Level: "warn", Message: "push failed: PUSH_FAILED (pushover): timeout"},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d messages, got %+v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("message %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}
