// Package journal appends deal summaries to a markdown file.
package journal

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/afero"

	"github.com/fd1az/deal-finder/business/planning/app"
	"github.com/fd1az/deal-finder/internal/apperror"
	"github.com/fd1az/deal-finder/internal/logger"
)

// DefaultPath is the journal location.
const DefaultPath = "sandbox/deals.md"

var _ app.Journal = (*Markdown)(nil)

// Markdown appends entries, separated by a blank line, creating the file and
// its directory on first use.
type Markdown struct {
	fs     afero.Fs
	path   string
	logger logger.LoggerInterface
	mu     sync.Mutex
}

// NewMarkdown creates a journal at path on fsys.
func NewMarkdown(fsys afero.Fs, path string, log logger.LoggerInterface) *Markdown {
	if path == "" {
		path = DefaultPath
	}
	return &Markdown{fs: fsys, path: path, logger: log}
}

// Path returns the journal file path.
func (j *Markdown) Path() string {
	return j.path
}

// Append adds markdown to the end of the journal.
func (j *Markdown) Append(ctx context.Context, markdown string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if dir := filepath.Dir(j.path); dir != "." {
		if err := j.fs.MkdirAll(dir, 0o755); err != nil {
			return apperror.New(apperror.CodeJournalWriteFailed,
				apperror.WithCause(err),
				apperror.WithContext("create "+dir))
		}
	}

	f, err := j.fs.OpenFile(j.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return apperror.New(apperror.CodeJournalWriteFailed,
			apperror.WithCause(err),
			apperror.WithContext(j.path))
	}
	defer f.Close()

	entry := strings.TrimRight(markdown, "\n") + "\n\n"
	if _, err := f.WriteString(entry); err != nil {
		return apperror.New(apperror.CodeJournalWriteFailed,
			apperror.WithCause(err),
			apperror.WithContext(j.path))
	}

	j.logger.Info(ctx, "deal summary written", "path", j.path, "bytes", len(entry))
	return nil
}
