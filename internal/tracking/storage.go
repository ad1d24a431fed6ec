package tracking

import (
	"errors"
	"path/filepath"
	"time"
)

// Import record statuses
const (
	StatusFinished = "finished"
	StatusFailed   = "failed"
)

// ImportRecord represents one import run of a process
type ImportRecord struct {
	ID         string    `json:"id"`
	ConfigID   string    `json:"config_id"`
	ProcessID  string    `json:"process_id"`
	Folder     string    `json:"folder,omitempty"`
	Status     string    `json:"status"`
	Images     int       `json:"images"`
	Failures   int       `json:"failures"`
	Message    string    `json:"message,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Storage defines the interface for tracking import runs
type Storage interface {
	// Initialize prepares the storage for use
	Initialize() error

	// Close cleans up any resources used by the storage
	Close() error

	// AddRecord adds a new import record to the storage
	AddRecord(record ImportRecord) error

	// HasRecord checks if the process has a finished import under the given config
	HasRecord(configID, processID string) (bool, error)

	// GetRecords retrieves all import records, optionally filtered by
	// config_id, process_id or status
	GetRecords(filter map[string]string) ([]ImportRecord, error)

	// CleanupOldRecords removes records older than the specified retention period
	CleanupOldRecords(retentionDays int) error
}

// NewStorage creates a new storage implementation based on the specified type
func NewStorage(storageType, storagePath string) (Storage, error) {
	switch storageType {
	case "file", "":
		return NewFileStorage(storagePath)
	case "sqlite":
		return NewSQLiteStorage(filepath.Join(storagePath, "imports.db"))
	default:
		return nil, ErrUnsupportedStorageType
	}
}

// Common errors
var (
	ErrUnsupportedStorageType = errors.New("unsupported storage type")
	ErrStorageNotInitialized  = errors.New("storage not initialized")
)

func matches(record ImportRecord, filter map[string]string) bool {
	for key, value := range filter {
		switch key {
		case "config_id":
			if record.ConfigID != value {
				return false
			}
		case "process_id":
			if record.ProcessID != value {
				return false
			}
		case "status":
			if record.Status != value {
				return false
			}
		}
	}
	return true
}
