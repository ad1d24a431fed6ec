package errorlog

import (
	"time"
)

// UnitError is a failed unit of an import run
type UnitError struct {
	ID        string    `json:"id"`
	ConfigID  string    `json:"config_id"`
	ProcessID string    `json:"process_id"`
	Kind      string    `json:"kind"`
	Folder    string    `json:"folder,omitempty"`
	File      string    `json:"file,omitempty"`
	ErrorTime time.Time `json:"error_time"`
	ErrorMsg  string    `json:"error_message"`
}

// Logger defines the interface for unit error logging
type Logger interface {
	// LogErrors records the failed units of one run
	LogErrors(errs []UnitError) error

	// GetErrors retrieves errors based on filters
	GetErrors(filters map[string]string) ([]UnitError, error)

	// CleanupOldErrors removes errors older than the retention period
	CleanupOldErrors() error

	// Close releases any resources used by the logger
	Close() error
}
