package errorlog

import (
	"fmt"
	"log/slog"

	"github.com/altafino/folder-import/internal/models"
	"github.com/altafino/folder-import/internal/types"
)

// Manager handles unit error logging operations
type Manager struct {
	cfg    *types.Config
	logger *slog.Logger
	impl   Logger
}

// NewManager creates a new error logging manager
func NewManager(cfg *types.Config, logger *slog.Logger) (*Manager, error) {
	if !cfg.ErrorLogging.Enabled {
		logger.Debug("error logging is disabled")
		return &Manager{
			cfg:    cfg,
			logger: logger,
			impl:   &noopLogger{},
		}, nil
	}

	var impl Logger
	var err error

	switch cfg.ErrorLogging.StorageType {
	case "file", "":
		impl, err = NewFileLogger(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported error logging storage type: %s", cfg.ErrorLogging.StorageType)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to initialize error logger: %w", err)
	}

	return &Manager{
		cfg:    cfg,
		logger: logger,
		impl:   impl,
	}, nil
}

// LogReport records every failed unit of report for the process
func (m *Manager) LogReport(processID string, report *models.RunReport) error {
	if report == nil {
		return nil
	}

	failures := report.Failures()
	if len(failures) == 0 {
		return nil
	}

	errs := make([]UnitError, 0, len(failures))
	for _, u := range failures {
		errs = append(errs, UnitError{
			ConfigID:  m.cfg.Meta.ID,
			ProcessID: processID,
			Kind:      string(u.Kind),
			Folder:    u.Folder,
			File:      u.File,
			ErrorMsg:  u.Reason,
		})
	}

	m.logger.Debug("logging failed units",
		"process_id", processID,
		"count", len(errs),
		"storage_path", m.cfg.ErrorLogging.StoragePath)

	return m.impl.LogErrors(errs)
}

// GetErrors retrieves errors based on filters
func (m *Manager) GetErrors(filters map[string]string) ([]UnitError, error) {
	return m.impl.GetErrors(filters)
}

// CleanupOldErrors removes errors older than the retention period
func (m *Manager) CleanupOldErrors() error {
	return m.impl.CleanupOldErrors()
}

// Close releases any resources used by the logger
func (m *Manager) Close() error {
	return m.impl.Close()
}

// noopLogger is used when error logging is disabled
type noopLogger struct{}

func (n *noopLogger) LogErrors(errs []UnitError) error                        { return nil }
func (n *noopLogger) GetErrors(filters map[string]string) ([]UnitError, error) { return nil, nil }
func (n *noopLogger) CleanupOldErrors() error                                  { return nil }
func (n *noopLogger) Close() error                                             { return nil }
