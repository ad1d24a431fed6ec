// Package process gives access to the directory and metadata file of a process.
package process

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/altafino/folder-import/internal/metadata"
	"github.com/altafino/folder-import/internal/types"
	"github.com/altafino/folder-import/internal/utility/u_io"
)

// ErrProcessNotFound is returned when the process directory does not exist
var ErrProcessNotFound = errors.New("process not found")

// Process is one process directory below the metadata root
type Process struct {
	ID  string
	Dir string

	metadataFile    string
	masterDirectory string
	backups         int
}

// Open returns the process with the given id under cfg.Process.MetadataRoot
func Open(cfg *types.Config, id string) (*Process, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty process id", ErrProcessNotFound)
	}

	dir := filepath.Join(cfg.Process.MetadataRoot, id)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrProcessNotFound, dir)
	}

	return &Process{
		ID:              id,
		Dir:             dir,
		metadataFile:    cfg.Process.MetadataFile,
		masterDirectory: cfg.Process.MasterDirectory,
		backups:         cfg.Process.MetadataBackups,
	}, nil
}

// MetadataFilePath returns the path of the metadata document
func (p *Process) MetadataFilePath() string {
	return filepath.Join(p.Dir, p.metadataFile)
}

// ImagesDirectory returns <dir>/images
func (p *Process) ImagesDirectory() string {
	return filepath.Join(p.Dir, "images")
}

// MasterImagesDirectory returns the master directory with ${id} replaced by the process id
func (p *Process) MasterImagesDirectory() string {
	return filepath.Join(p.ImagesDirectory(), u_io.ExpandPlaceholder(p.masterDirectory, "id", p.ID))
}

// MasterLocation returns the master directory relative to the process, used as remote key prefix
func (p *Process) MasterLocation() string {
	return filepath.ToSlash(filepath.Join(p.ID, u_io.ExpandPlaceholder(p.masterDirectory, "id", p.ID)))
}

// ReadMetadataFile reads the metadata document of the process
func (p *Process) ReadMetadataFile() (*metadata.Document, error) {
	return metadata.ReadFile(p.MetadataFilePath())
}

// WriteMetadataFile writes doc, keeping up to the configured number of numbered backups
// of the previous versions (meta.yaml.1 is the newest).
func (p *Process) WriteMetadataFile(doc *metadata.Document) error {
	path := p.MetadataFilePath()
	if err := rotateBackups(path, p.backups); err != nil {
		return fmt.Errorf("failed to rotate metadata backups: %w", err)
	}
	return metadata.WriteFile(path, doc)
}

func rotateBackups(path string, keep int) error {
	if keep <= 0 {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	backup := func(n int) string { return fmt.Sprintf("%s.%d", path, n) }

	if err := os.Remove(backup(keep)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	for n := keep - 1; n >= 1; n-- {
		if err := os.Rename(backup(n), backup(n+1)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return os.WriteFile(backup(1), data, 0644)
}

// ListProcesses returns the ids of all process directories under root that contain
// a metadata file, sorted by name.
func ListProcesses(root, metadataFile string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata root: %w", err)
	}

	var ids []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(root, e.Name(), metadataFile)); err == nil {
			ids = append(ids, e.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}
