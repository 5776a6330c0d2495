// Package memory persists the opportunities surfaced by past runs.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/fd1az/deal-finder/business/planning/app"
	"github.com/fd1az/deal-finder/business/planning/domain"
	"github.com/fd1az/deal-finder/internal/apperror"
	"github.com/fd1az/deal-finder/internal/logger"
)

// DefaultPath is where the file store keeps memory.
const DefaultPath = "memory.json"

var _ app.MemoryStore = (*FileStore)(nil)

// FileStore keeps memory as a JSON array of opportunities.
type FileStore struct {
	fs     afero.Fs
	path   string
	logger logger.LoggerInterface
}

// NewFileStore creates a store at path on fsys.
func NewFileStore(fsys afero.Fs, path string, log logger.LoggerInterface) *FileStore {
	if path == "" {
		path = DefaultPath
	}
	return &FileStore{fs: fsys, path: path, logger: log}
}

// Load reads memory. A missing file is an empty memory.
func (s *FileStore) Load(ctx context.Context) (domain.Memory, error) {
	raw, err := afero.ReadFile(s.fs, s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Info(ctx, "no memory file yet, starting empty", "path", s.path)
		return domain.Memory{}, nil
	}
	if err != nil {
		return domain.Memory{}, apperror.New(apperror.CodeMemoryLoadFailed,
			apperror.WithCause(err),
			apperror.WithContext(s.path))
	}

	var opps []domain.Opportunity
	if err := json.Unmarshal(raw, &opps); err != nil {
		return domain.Memory{}, apperror.New(apperror.CodeMemoryLoadFailed,
			apperror.WithCause(err),
			apperror.WithContext("decode "+s.path))
	}

	return domain.Memory{Opportunities: opps}, nil
}

// Save replaces the file through a temporary sibling and a rename.
func (s *FileStore) Save(ctx context.Context, memory domain.Memory) error {
	opps := memory.Opportunities
	if opps == nil {
		opps = []domain.Opportunity{}
	}

	raw, err := json.MarshalIndent(opps, "", "  ")
	if err != nil {
		return apperror.New(apperror.CodeMemorySaveFailed, apperror.WithCause(err))
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return apperror.New(apperror.CodeMemorySaveFailed,
				apperror.WithCause(err),
				apperror.WithContext("create "+dir))
		}
	}

	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, raw, 0o644); err != nil {
		return apperror.New(apperror.CodeMemorySaveFailed,
			apperror.WithCause(err),
			apperror.WithContext(tmp))
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		_ = s.fs.Remove(tmp)
		return apperror.New(apperror.CodeMemorySaveFailed,
			apperror.WithCause(err),
			apperror.WithContext(s.path))
	}

	s.logger.Debug(ctx, "memory saved", "path", s.path, "entries", len(opps))
	return nil
}

