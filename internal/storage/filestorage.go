package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// FileStorage implements MasterStorage for a local master directory
type FileStorage struct {
	dir    string
	policy ConflictPolicy
	logger *slog.Logger
}

// NewFileStorage creates a new FileStorage instance
func NewFileStorage(dir string, policy ConflictPolicy, logger *slog.Logger) *FileStorage {
	return &FileStorage{dir: dir, policy: policy, logger: logger}
}

// Dir returns the master directory
func (fs *FileStorage) Dir() string {
	return fs.dir
}

// Put copies sourcePath to <dir>/name. Without the overwrite policy an existing
// destination yields ErrDestinationConflict and is left untouched.
func (fs *FileStorage) Put(ctx context.Context, sourcePath, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := os.MkdirAll(fs.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create master directory: %w", err)
	}

	dst := filepath.Join(fs.dir, name)
	if err := copyFile(sourcePath, dst, fs.policy == ConflictPolicyOverwrite); err != nil {
		return "", err
	}

	fs.logger.Debug("copied image", "source", sourcePath, "destination", dst)
	return dst, nil
}

func (fs *FileStorage) Exists(ctx context.Context, name string) (bool, error) {
	_, err := os.Stat(filepath.Join(fs.dir, name))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func (fs *FileStorage) Remove(ctx context.Context, name string) error {
	err := os.Remove(filepath.Join(fs.dir, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", name, err)
	}
	return nil
}

// copyFile copies src to dst. With overwrite false the destination is created with
// O_EXCL, so an existing file is never replaced.
func copyFile(src, dst string, overwrite bool) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer in.Close()

	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if overwrite {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}

	out, err := os.OpenFile(dst, flags, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", ErrDestinationConflict, dst)
		}
		return fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst) // Clean up on error
		return fmt.Errorf("failed to write file content: %w", err)
	}

	if err := out.Close(); err != nil {
		os.Remove(dst)
		return fmt.Errorf("failed to write file content: %w", err)
	}
	return nil
}
