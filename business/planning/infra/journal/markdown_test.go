package journal

import (
	"context"
	"testing"

	"github.com/spf13/afero"

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

func TestMarkdown_Append(t *testing.T) {
	fsys := afero.NewMemMapFs()
	j := NewMarkdown(fsys, "", &mockLogger{})
	ctx := context.Background()

	if err := j.Append(ctx, "## First\n\nbody\n\n\n"); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := j.Append(ctx, "## Second"); err != nil {
		t.Fatalf("Append: %v", err)
	}

	raw, err := afero.ReadFile(fsys, DefaultPath)
	if err != nil {
		t.Fatalf("read journal: %v", err)
	}
	want := "## First\n\nbody\n\n## Second\n\n"
	if string(raw) != want {
		t.Errorf("journal = %q, want %q", raw, want)
	}
}

func TestMarkdown_KeepsExistingContent(t *testing.T) {
	fsys := afero.NewMemMapFs()
	if err := afero.WriteFile(fsys, "deals.md", []byte("# Deals\n\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := NewMarkdown(fsys, "deals.md", &mockLogger{}).Append(context.Background(), "entry"); err != nil {
		t.Fatalf("Append: %v", err)
	}

	raw, _ := afero.ReadFile(fsys, "deals.md")
	if string(raw) != "# Deals\n\nentry\n\n" {
		t.Errorf("unexpected journal %q", raw)
	}
}

func TestMarkdown_WriteFailure(t *testing.T) {
	fsys := afero.NewReadOnlyFs(afero.NewMemMapFs())
	err := NewMarkdown(fsys, "deals.md", &mockLogger{}).Append(context.Background(), "entry")
	if !apperror.HasCode(err, apperror.CodeJournalWriteFailed) {
		t.Errorf("expected CodeJournalWriteFailed, got %v", err)
	}
}
