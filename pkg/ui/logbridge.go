package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/tidwall/gjson"
)

// LogWriter turns the logger's JSON records into LogMsg for the logs panel.
// Records below warn are dropped.
type LogWriter struct {
	send func(tea.Msg)
}

// NewLogWriter forwards to the running program.
func NewLogWriter() *LogWriter {
	return &LogWriter{send: Send}
}

func (w *LogWriter) Write(p []byte) (int, error) {
	for _, line := range strings.Split(strings.TrimSpace(string(p)), "\n") {
		if !gjson.Valid(line) {
			continue
		}
		rec := gjson.Parse(line)
		level := strings.ToLower(rec.Get("level").String())
		if level != "warn" && level != "error" {
			continue
		}
		msg := rec.Get("msg").String()
		if e := rec.Get("error"); e.Exists() {
			msg += ": " + errorText(e)
		}
		w.send(LogMsg{Level: level, Message: msg})
	}
	return len(p), nil
}

// errorText flattens an error attribute. Application errors arrive as a
// group with code, context and cause.
func errorText(e gjson.Result) string {
	if !e.IsObject() {
		return e.String()
	}
	text := e.Get("code").String()
	if c := e.Get("context").String(); c != "" {
		text += " (" + c + ")"
	}
	if c := e.Get("cause").String(); c != "" {
		text += ": " + c
	}
	return text
}
