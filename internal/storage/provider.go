package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// Provider lists the import folders on the local filesystem
type Provider interface {
	// IsDirectory reports whether path exists and is a directory
	IsDirectory(path string) bool
	// ListEntries returns the names of all immediate entries of path
	ListEntries(path string) ([]string, error)
	// ListFiles returns the paths of the regular files immediately inside path
	ListFiles(path string) ([]string, error)
}

// LocalProvider implements Provider on the os package.
// Listings are in ascending name order, as returned by os.ReadDir.
type LocalProvider struct{}

// NewLocalProvider creates a provider for the local filesystem
func NewLocalProvider() Provider {
	return LocalProvider{}
}

func (LocalProvider) IsDirectory(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func (LocalProvider) ListEntries(path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", path, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}

func (LocalProvider) ListFiles(path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", path, err)
	}

	var files []string
	for _, e := range entries {
		// Stat follows symlinks, broken links are dropped
		full := filepath.Join(path, e.Name())
		if info, err := os.Stat(full); err == nil && info.Mode().IsRegular() {
			files = append(files, full)
		}
	}
	return files, nil
}
