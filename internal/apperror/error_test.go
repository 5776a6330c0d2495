package apperror

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
)

func TestNew_UsesRegisteredMessage(t *testing.T) {
	err := New(CodePushFailed, WithContext("pushover"))

	if err.Message != "Failed to send push notification" {
		t.Errorf("unexpected message %q", err.Message)
	}
	if err.Error() != "PUSH_FAILED: Failed to send push notification (pushover)" {
		t.Errorf("unexpected error text %q", err.Error())
	}
	if !strings.Contains(err.Stack(), "TestNew_UsesRegisteredMessage") {
		t.Errorf("expected stack to include the test, got %q", err.Stack())
	}
}

func TestNew_UnregisteredCodeFallsBackToCode(t *testing.T) {
	err := New(Code("SOMETHING_NEW"), WithCause(errors.New("boom")))
	if err.Error() != "SOMETHING_NEW: SOMETHING_NEW: boom" {
		t.Errorf("unexpected error text %q", err.Error())
	}
}

func TestWrap_KeepsExistingAppError(t *testing.T) {
	inner := New(CodeVectorQueryFailed)
	wrapped := fmt.Errorf("outer: %w", inner)

	got := Wrap(wrapped, CodeInternalError, "context builder")
	if got.Code != CodeVectorQueryFailed {
		t.Errorf("expected original code, got %s", got.Code)
	}
	if got.Context != "context builder" {
		t.Errorf("expected context to be filled in, got %q", got.Context)
	}
	if Wrap(nil, CodeInternalError, "x") != nil {
		t.Error("expected nil for a nil error")
	}
}

func TestHasCode(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := fmt.Errorf("scan: %w", New(CodeFeedFetchFailed, WithCause(cause)))

	if !HasCode(err, CodeFeedFetchFailed) {
		t.Error("expected HasCode to match through wrapping")
	}
	if HasCode(err, CodePushFailed) {
		t.Error("expected HasCode to reject other codes")
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable via errors.Is")
	}
	if !errors.Is(err, New(CodeFeedFetchFailed)) {
		t.Error("expected errors.Is to match by code")
	}
	if GetCode(cause) != CodeUnknownError {
		t.Error("expected plain errors to report CodeUnknownError")
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want Kind
	}{
		{New(CodeConfigurationError), KindConfig},
		{New(CodeInvalidInput), KindInput},
		{New(CodeNotFound), KindInput},
		{New(CodeRateLimitExceeded), KindUpstream},
		{New(CodeCircuitOpen), KindUpstream},
		{fmt.Errorf("x: %w", New(CodeLLMEmptyReply)), KindUpstream},
		{New(CodeSpecialistFailed), KindUpstream},
		{New(CodeInternalError), KindInternal},
		{errors.New("plain"), KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestLogValue(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))

	log.Warn("push failed", "error", New(CodePushFailed, WithContext("pushover"), WithCause(errors.New("timeout"))))

	out := buf.String()
	for _, want := range []string{`"code":"PUSH_FAILED"`, `"context":"pushover"`, `"cause":"timeout"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in %s", want, out)
		}
	}
}
