package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// StagedStorage collects images in a local staging directory and pushes them to the
// target storage only on Commit.
type StagedStorage struct {
	target MasterStorage
	policy ConflictPolicy
	dir    string
	logger *slog.Logger
	staged []stagedFile
}

type stagedFile struct {
	name string
	path string
}

// NewStagedStorage creates a staging directory below parent
func NewStagedStorage(target MasterStorage, parent string, policy ConflictPolicy, logger *slog.Logger) (*StagedStorage, error) {
	if err := os.MkdirAll(parent, 0755); err != nil {
		return nil, fmt.Errorf("failed to create staging parent: %w", err)
	}
	dir, err := os.MkdirTemp(parent, ".folderimport-staging-")
	if err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	return &StagedStorage{target: target, policy: policy, dir: dir, logger: logger}, nil
}

// Put checks the conflict policy against the target and copies the file into staging
func (s *StagedStorage) Put(ctx context.Context, sourcePath, name string) (string, error) {
	if s.policy != ConflictPolicyOverwrite {
		exists, err := s.Exists(ctx, name)
		if err != nil {
			return "", err
		}
		if exists {
			return "", fmt.Errorf("%w: %s", ErrDestinationConflict, name)
		}
	}

	dst := filepath.Join(s.dir, name)
	if err := copyFile(sourcePath, dst, true); err != nil {
		return "", err
	}
	s.staged = append(s.staged, stagedFile{name: name, path: dst})
	return dst, nil
}

// Exists reports whether name is staged or already stored in the target
func (s *StagedStorage) Exists(ctx context.Context, name string) (bool, error) {
	for _, f := range s.staged {
		if f.name == name {
			return true, nil
		}
	}
	return s.target.Exists(ctx, name)
}

// Remove drops a staged file; stored files are not touched before Commit
func (s *StagedStorage) Remove(ctx context.Context, name string) error {
	for i, f := range s.staged {
		if f.name == name {
			s.staged = append(s.staged[:i], s.staged[i+1:]...)
			return os.Remove(f.path)
		}
	}
	return nil
}

// Staged returns the number of files waiting for Commit
func (s *StagedStorage) Staged() int {
	return len(s.staged)
}

// Commit pushes every staged file to the target and removes the staging directory.
// Files that fail are returned by name; committing continues with the next file.
func (s *StagedStorage) Commit(ctx context.Context) (map[string]error, error) {
	failed := make(map[string]error)
	for _, f := range s.staged {
		if _, err := s.target.Put(ctx, f.path, f.name); err != nil {
			s.logger.Error("failed to commit staged image", "name", f.name, "error", err)
			failed[f.name] = err
		}
	}
	s.staged = nil

	if err := os.RemoveAll(s.dir); err != nil {
		return failed, fmt.Errorf("failed to remove staging directory: %w", err)
	}
	return failed, nil
}

// Discard removes every staged file without touching the target
func (s *StagedStorage) Discard() error {
	s.logger.Info("discarding staged images", "count", len(s.staged), "dir", s.dir)
	s.staged = nil
	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("failed to remove staging directory: %w", err)
	}
	return nil
}
