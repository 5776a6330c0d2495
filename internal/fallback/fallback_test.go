package fallback

import (
	"context"
	"errors"
	"testing"

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

func newRecorder(t *testing.T) *Recorder {
	t.Helper()
	r, err := NewRecorder(&mockLogger{})
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	return r
}

func TestAttempt(t *testing.T) {
	errBoom := errors.New("boom")

	tests := []struct {
		name          string
		primaryErr    error
		secondaryErr  error
		wantValue     int
		wantOutcome   Outcome
		wantPrimary   int
		wantSecondary int
		wantErr       bool
	}{
		{
			name:          "primary succeeds",
			wantValue:     1,
			wantOutcome:   OutcomePrimary,
			wantPrimary:   1,
			wantSecondary: 0,
		},
		{
			name:          "primary fails, fallback succeeds",
			primaryErr:    errBoom,
			wantValue:     2,
			wantOutcome:   OutcomeFallback,
			wantPrimary:   1,
			wantSecondary: 1,
		},
		{
			name:          "both fail",
			primaryErr:    errBoom,
			secondaryErr:  errBoom,
			wantValue:     -1,
			wantOutcome:   OutcomeSentinel,
			wantPrimary:   1,
			wantSecondary: 1,
			wantErr:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var primaryCalls, secondaryCalls int

			primary := func(ctx context.Context) (int, error) {
				primaryCalls++
				return 1, tt.primaryErr
			}
			secondary := func(ctx context.Context) (int, error) {
				secondaryCalls++
				return 2, tt.secondaryErr
			}

			got, outcome, err := Attempt(context.Background(), newRecorder(t), "test", primary, secondary, -1)

			if got != tt.wantValue {
				t.Errorf("value = %d, want %d", got, tt.wantValue)
			}
			if outcome != tt.wantOutcome {
				t.Errorf("outcome = %s, want %s", outcome, tt.wantOutcome)
			}
			if primaryCalls != tt.wantPrimary || secondaryCalls != tt.wantSecondary {
				t.Errorf("calls = (%d, %d), want (%d, %d)", primaryCalls, secondaryCalls, tt.wantPrimary, tt.wantSecondary)
			}
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAttempt_NilRecorderAndNoSecondary(t *testing.T) {
	primary := func(ctx context.Context) (string, error) { return "", errors.New("down") }

	got, outcome, err := Attempt[string](context.Background(), nil, "test", primary, nil, "sentinel")

	if got != "sentinel" || outcome != OutcomeSentinel {
		t.Errorf("got (%q, %s), want (sentinel, %s)", got, outcome, OutcomeSentinel)
	}
	if err == nil {
		t.Error("expected the primary error to be reported")
	}
}
