package tracking

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileStorage implements the Storage interface with a JSON file
type FileStorage struct {
	basePath    string
	recordsPath string
	mu          sync.RWMutex
	initialized bool
}

// NewFileStorage creates a new file-based storage
func NewFileStorage(basePath string) (*FileStorage, error) {
	if basePath == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}

	return &FileStorage{
		basePath:    basePath,
		recordsPath: filepath.Join(basePath, "import_records.json"),
	}, nil
}

// Initialize prepares the storage for use
func (fs *FileStorage) Initialize() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := os.MkdirAll(fs.basePath, 0755); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}

	if _, err := os.Stat(fs.recordsPath); os.IsNotExist(err) {
		if err := fs.saveRecords([]ImportRecord{}); err != nil {
			return fmt.Errorf("failed to create records file: %w", err)
		}
	}

	fs.initialized = true
	return nil
}

// Close cleans up any resources
func (fs *FileStorage) Close() error {
	return nil
}

// AddRecord adds a new import record
func (fs *FileStorage) AddRecord(record ImportRecord) error {
	if !fs.initialized {
		return ErrStorageNotInitialized
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	records, err := fs.loadRecordsLocked()
	if err != nil {
		return err
	}

	records = append(records, record)
	return fs.saveRecords(records)
}

// HasRecord checks if the process has a finished import
func (fs *FileStorage) HasRecord(configID, processID string) (bool, error) {
	records, err := fs.GetRecords(map[string]string{
		"config_id":  configID,
		"process_id": processID,
		"status":     StatusFinished,
	})
	if err != nil {
		return false, err
	}
	return len(records) > 0, nil
}

// GetRecords retrieves all import records, optionally filtered
func (fs *FileStorage) GetRecords(filter map[string]string) ([]ImportRecord, error) {
	if !fs.initialized {
		return nil, ErrStorageNotInitialized
	}

	fs.mu.RLock()
	defer fs.mu.RUnlock()

	records, err := fs.loadRecordsLocked()
	if err != nil {
		return nil, err
	}

	if len(filter) == 0 {
		return records, nil
	}

	var filtered []ImportRecord
	for _, record := range records {
		if matches(record, filter) {
			filtered = append(filtered, record)
		}
	}
	return filtered, nil
}

// CleanupOldRecords removes records older than the specified retention period
func (fs *FileStorage) CleanupOldRecords(retentionDays int) error {
	if !fs.initialized {
		return ErrStorageNotInitialized
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	records, err := fs.loadRecordsLocked()
	if err != nil {
		return err
	}

	cutoffTime := time.Now().AddDate(0, 0, -retentionDays)
	kept := []ImportRecord{}
	for _, record := range records {
		if record.FinishedAt.After(cutoffTime) {
			kept = append(kept, record)
		}
	}

	return fs.saveRecords(kept)
}

// loadRecordsLocked loads all records from the file (assumes lock is held)
func (fs *FileStorage) loadRecordsLocked() ([]ImportRecord, error) {
	data, err := os.ReadFile(fs.recordsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read records file: %w", err)
	}

	if len(data) == 0 {
		return []ImportRecord{}, nil
	}

	var records []ImportRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse records file: %w", err)
	}

	return records, nil
}

func (fs *FileStorage) saveRecords(records []ImportRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize records: %w", err)
	}

	if err := os.WriteFile(fs.recordsPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write records file: %w", err)
	}

	return nil
}
