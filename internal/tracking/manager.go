package tracking

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/altafino/folder-import/internal/types"
)

// Manager handles import tracking operations
type Manager struct {
	cfg     *types.Config
	logger  *slog.Logger
	storage Storage
	mu      sync.Mutex
}

// NewManager creates a new tracking manager
func NewManager(cfg *types.Config, logger *slog.Logger) (*Manager, error) {
	if !cfg.Tracking.Enabled {
		logger.Debug("import tracking is disabled")
		return &Manager{
			cfg:    cfg,
			logger: logger,
		}, nil
	}

	storage, err := NewStorage(cfg.Tracking.StorageType, cfg.Tracking.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracking storage: %w", err)
	}

	if err := storage.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize tracking storage: %w", err)
	}

	logger.Debug("initialized import tracking",
		"storage_type", cfg.Tracking.StorageType,
		"storage_path", cfg.Tracking.StoragePath)

	return &Manager{
		cfg:     cfg,
		logger:  logger,
		storage: storage,
	}, nil
}

// Close cleans up resources
func (m *Manager) Close() error {
	if m.storage != nil {
		return m.storage.Close()
	}
	return nil
}

// TrackImport stores the outcome of one import run
func (m *Manager) TrackImport(record ImportRecord) error {
	if m.storage == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.ConfigID == "" {
		record.ConfigID = m.cfg.Meta.ID
	}
	if record.FinishedAt.IsZero() {
		record.FinishedAt = time.Now().UTC()
	}

	if err := m.storage.AddRecord(record); err != nil {
		m.logger.Error("failed to track import",
			"process_id", record.ProcessID,
			"error", err)
		return err
	}

	m.logger.Debug("tracked import",
		"id", record.ID,
		"process_id", record.ProcessID,
		"status", record.Status,
		"images", record.Images)

	return nil
}

// IsImported checks if the process already has a finished import
func (m *Manager) IsImported(processID string) (bool, error) {
	if m.storage == nil {
		return false, nil
	}

	imported, err := m.storage.HasRecord(m.cfg.Meta.ID, processID)
	if err != nil {
		m.logger.Error("failed to check import record",
			"process_id", processID,
			"error", err)
		return false, err
	}
	return imported, nil
}

// Records returns the import records of a process
func (m *Manager) Records(processID string) ([]ImportRecord, error) {
	if m.storage == nil {
		return nil, nil
	}
	return m.storage.GetRecords(map[string]string{
		"config_id":  m.cfg.Meta.ID,
		"process_id": processID,
	})
}

// CleanupOldRecords removes records older than the retention period
func (m *Manager) CleanupOldRecords() error {
	if m.storage == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.storage.CleanupOldRecords(m.cfg.Tracking.RetentionDays); err != nil {
		m.logger.Error("failed to clean up old records", "error", err)
		return err
	}

	m.logger.Info("cleaned up old import records",
		"retention_days", m.cfg.Tracking.RetentionDays)

	return nil
}
