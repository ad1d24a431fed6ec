package errorlog

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/altafino/folder-import/internal/types"
)

const dateLayout = "2006-01-02"

// FileLogger writes unit errors to one JSON file per config and day
type FileLogger struct {
	cfg         *types.Config
	logger      *slog.Logger
	storagePath string
	mu          sync.Mutex
}

// NewFileLogger creates a new file-based error logger
func NewFileLogger(cfg *types.Config, logger *slog.Logger) (*FileLogger, error) {
	storagePath := cfg.ErrorLogging.StoragePath

	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create error log directory: %w", err)
	}

	return &FileLogger{
		cfg:         cfg,
		logger:      logger,
		storagePath: storagePath,
	}, nil
}

// LogErrors appends errs to errors_<config>_<date>.json
func (f *FileLogger) LogErrors(errs []UnitError) error {
	if len(errs) == 0 {
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now().UTC()
	configID := errs[0].ConfigID
	filePath := filepath.Join(f.storagePath, fmt.Sprintf("errors_%s_%s.json", configID, now.Format(dateLayout)))

	existing, err := readErrorFile(filePath)
	if err != nil {
		f.logger.Warn("error log file exists but couldn't be parsed, starting a new one",
			"file", filePath,
			"error", err)
		existing = nil
	}

	for _, e := range errs {
		if e.ID == "" {
			e.ID = uuid.New().String()
		}
		if e.ErrorTime.IsZero() {
			e.ErrorTime = now
		}
		existing = append(existing, e)
	}

	data, err := json.MarshalIndent(existing, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal error log: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		f.logger.Error("failed to write error log file",
			"file", filePath,
			"error", err)
		return fmt.Errorf("failed to write error log file: %w", err)
	}

	f.logger.Info("logged failed units",
		"count", len(errs),
		"process_id", errs[0].ProcessID,
		"file", filePath)

	return nil
}

func readErrorFile(path string) ([]UnitError, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var errs []UnitError
	if err := json.Unmarshal(data, &errs); err != nil {
		return nil, err
	}
	return errs, nil
}

// GetErrors retrieves errors filtered by config_id, process_id or kind
func (f *FileLogger) GetErrors(filters map[string]string) ([]UnitError, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	files, err := os.ReadDir(f.storagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read error log directory: %w", err)
	}

	var result []UnitError
	for _, file := range files {
		if file.IsDir() || filepath.Ext(file.Name()) != ".json" {
			continue
		}

		filePath := filepath.Join(f.storagePath, file.Name())
		fileErrors, err := readErrorFile(filePath)
		if err != nil {
			f.logger.Warn("failed to read error log file",
				"file", filePath,
				"error", err)
			continue
		}

		for _, e := range fileErrors {
			if matchesFilters(e, filters) {
				result = append(result, e)
			}
		}
	}

	return result, nil
}

func matchesFilters(e UnitError, filters map[string]string) bool {
	for key, value := range filters {
		switch key {
		case "config_id":
			if e.ConfigID != value {
				return false
			}
		case "process_id":
			if e.ProcessID != value {
				return false
			}
		case "kind":
			if e.Kind != value {
				return false
			}
		}
	}
	return true
}

// CleanupOldErrors removes daily files older than the retention period
func (f *FileLogger) CleanupOldErrors() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	retentionDays := f.cfg.ErrorLogging.RetentionDays
	if retentionDays <= 0 {
		retentionDays = 30
	}
	cutoffTime := time.Now().UTC().AddDate(0, 0, -retentionDays)

	files, err := os.ReadDir(f.storagePath)
	if err != nil {
		return fmt.Errorf("failed to read error log directory: %w", err)
	}

	for _, file := range files {
		if file.IsDir() || filepath.Ext(file.Name()) != ".json" {
			continue
		}

		date, ok := fileDate(file.Name())
		if !ok {
			info, statErr := file.Info()
			if statErr != nil {
				f.logger.Warn("failed to get file info", "file", file.Name(), "error", statErr)
				continue
			}
			date = info.ModTime()
		}

		if date.Before(cutoffTime) {
			filePath := filepath.Join(f.storagePath, file.Name())
			if err := os.Remove(filePath); err != nil {
				f.logger.Warn("failed to delete old error log file", "file", filePath, "error", err)
				continue
			}
			f.logger.Debug("deleted old error log file", "file", filePath)
		}
	}

	return nil
}

// fileDate parses the date suffix of errors_<config>_<date>.json
func fileDate(name string) (time.Time, bool) {
	base := strings.TrimSuffix(name, ".json")
	if len(base) < len(dateLayout) {
		return time.Time{}, false
	}
	t, err := time.Parse(dateLayout, base[len(base)-len(dateLayout):])
	return t, err == nil
}

// Close implements the Logger interface
func (f *FileLogger) Close() error {
	return nil
}
