// Package resolver locates the import folder of a process below the image root.
package resolver

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/altafino/folder-import/internal/storage"
)

var (
	// ErrInvalidTitle is returned for a main title without "-"
	ErrInvalidTitle = errors.New("main title contains no '-'")
	// ErrFolderNotFound is returned when no directory below the root matches the title
	ErrFolderNotFound = errors.New("no folder to import found")
)

// TitlePrefix returns the part of title before its last "-", with surrounding whitespace trimmed
func TitlePrefix(title string) (string, error) {
	idx := strings.LastIndex(title, "-")
	if idx < 0 {
		return "", fmt.Errorf("%w: %q", ErrInvalidTitle, title)
	}
	return strings.TrimSpace(title[:idx]), nil
}

// Resolver finds import folders through a filesystem provider
type Resolver struct {
	provider storage.Provider
	logger   *slog.Logger
}

// New creates a resolver
func New(provider storage.Provider, logger *slog.Logger) *Resolver {
	return &Resolver{provider: provider, logger: logger}
}

// Resolve returns the path of the first entry of root whose name starts with the
// title prefix of mainTitle. Entries are considered in the provider's listing order,
// which is ascending by name for the local provider.
func (r *Resolver) Resolve(root, mainTitle string) (string, error) {
	prefix, err := TitlePrefix(mainTitle)
	if err != nil {
		return "", err
	}

	entries, err := r.provider.ListEntries(root)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFolderNotFound, err)
	}

	var candidates []string
	for _, name := range entries {
		if strings.HasPrefix(name, prefix) {
			candidates = append(candidates, name)
		}
	}

	if len(candidates) == 0 {
		return "", fmt.Errorf("%w: no entry of %s starts with %q", ErrFolderNotFound, root, prefix)
	}
	if len(candidates) > 1 {
		r.logger.Warn("several folders match the main title, using the first",
			"prefix", prefix,
			"candidates", candidates,
			"selected", candidates[0],
		)
	}

	folder := filepath.Join(root, candidates[0])
	if !r.provider.IsDirectory(folder) {
		return "", fmt.Errorf("%w: %s is not a directory", ErrFolderNotFound, folder)
	}

	r.logger.Debug("resolved import folder", "title", mainTitle, "folder", folder)
	return folder, nil
}
