// Package importer runs the folder import step for single processes or for every
// pending process of a configuration, and records the outcome.
package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/altafino/folder-import/internal/errorlog"
	"github.com/altafino/folder-import/internal/metadata"
	"github.com/altafino/folder-import/internal/process"
	"github.com/altafino/folder-import/internal/step"
	"github.com/altafino/folder-import/internal/storage"
	"github.com/altafino/folder-import/internal/tracking"
	"github.com/altafino/folder-import/internal/types"
)

type Service struct {
	cfg      *types.Config
	logger   *slog.Logger
	prefs    *metadata.Prefs
	tracker  *tracking.Manager
	errorLog *errorlog.Manager
}

func NewService(cfg *types.Config, logger *slog.Logger) (*Service, error) {
	logger.Debug("creating import service",
		"config_id", cfg.Meta.ID,
		"image_folder", cfg.Import.ImageFolder,
		"metadata_root", cfg.Process.MetadataRoot,
		"storage_type", cfg.Storage.Type)

	var prefs *metadata.Prefs
	if cfg.Metadata.RulesetFile != "" {
		p, err := metadata.LoadPrefs(cfg.Metadata.RulesetFile)
		if err != nil {
			return nil, err
		}
		prefs = p
	}

	tracker, err := tracking.NewManager(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracking manager: %w", err)
	}

	errorLog, err := errorlog.NewManager(cfg, logger)
	if err != nil {
		tracker.Close()
		return nil, fmt.Errorf("failed to create error log manager: %w", err)
	}

	return &Service{
		cfg:      cfg,
		logger:   logger,
		prefs:    prefs,
		tracker:  tracker,
		errorLog: errorLog,
	}, nil
}

// Close releases the tracking and error log storages
func (s *Service) Close() error {
	return errors.Join(s.tracker.Close(), s.errorLog.Close())
}

// ImportProcess runs the step for one process and records the outcome
func (s *Service) ImportProcess(ctx context.Context, processID string) (*step.Result, error) {
	started := time.Now().UTC()
	logger := s.logger.With("config_id", s.cfg.Meta.ID, "process_id", processID)

	proc, err := process.Open(s.cfg, processID)
	if err != nil {
		return nil, err
	}

	master, err := storage.NewStorage(ctx, s.storageConfig(proc), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create master storage: %w", err)
	}

	result, runErr := step.New(s.cfg, proc, s.prefs, master, storage.NewLocalProvider(), logger).Run(ctx)

	record := tracking.ImportRecord{
		ProcessID: processID,
		Folder:    result.Folder,
		Status:    tracking.StatusFinished,
		Message:   result.Message,
		StartedAt: started,
	}
	if result.Status != step.StatusFinish {
		record.Status = tracking.StatusFailed
	}
	if result.Report != nil {
		record.Images = result.Report.Pages
		record.Failures = len(result.Report.Failures())

		if err := s.errorLog.LogReport(processID, result.Report); err != nil {
			logger.Warn("failed to log failed units", "error", err)
		}
	}
	if err := s.tracker.TrackImport(record); err != nil {
		logger.Warn("failed to track import", "error", err)
	}

	return result, runErr
}

// ProcessPending imports every process under the metadata root that has no
// finished import yet. Failing processes are logged and the sweep continues.
func (s *Service) ProcessPending(ctx context.Context) error {
	ids, err := process.ListProcesses(s.cfg.Process.MetadataRoot, s.cfg.Process.MetadataFile)
	if err != nil {
		return err
	}

	s.logger.Info("processing pending imports",
		"config_id", s.cfg.Meta.ID,
		"processes", len(ids))

	var imported, failed int
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}

		done, err := s.tracker.IsImported(id)
		if err != nil {
			return fmt.Errorf("failed to check import status: %w", err)
		}
		if done {
			s.logger.Debug("process already imported", "process_id", id)
			continue
		}

		result, err := s.ImportProcess(ctx, id)
		if err != nil {
			failed++
			s.logger.Error("failed to import process",
				"process_id", id,
				"error", err)
			continue
		}

		imported++
		s.logger.Info("imported process",
			"process_id", id,
			"folder", result.Folder,
			"summary", result.Report.Summary())
	}

	if err := s.tracker.CleanupOldRecords(); err != nil {
		s.logger.Warn("failed to clean up import records", "error", err)
	}
	if err := s.errorLog.CleanupOldErrors(); err != nil {
		s.logger.Warn("failed to clean up error logs", "error", err)
	}

	s.logger.Info("finished pending imports",
		"config_id", s.cfg.Meta.ID,
		"imported", imported,
		"failed", failed)

	return nil
}

func (s *Service) storageConfig(proc *process.Process) storage.StorageConfig {
	return storage.StorageConfig{
		Type:           storage.StorageType(s.cfg.Storage.Type),
		ConflictPolicy: storage.ConflictPolicy(s.cfg.Storage.ConflictPolicy),
		MasterDir:      proc.MasterImagesDirectory(),
		Location:       proc.MasterLocation(),
		S3: storage.S3Config{
			Endpoint:  s.cfg.Storage.S3.Endpoint,
			AccessKey: s.cfg.Storage.S3.AccessKey,
			SecretKey: s.cfg.Storage.S3.SecretKey,
			Bucket:    s.cfg.Storage.S3.Bucket,
			Region:    s.cfg.Storage.S3.Region,
			Prefix:    s.cfg.Storage.S3.Prefix,
			UseSSL:    s.cfg.Storage.S3.UseSSL,
		},
		GDrive: storage.GDriveConfig{
			CredentialsFile: s.cfg.Storage.GDrive.CredentialsFile,
			ParentFolderID:  s.cfg.Storage.GDrive.ParentFolderID,
		},
	}
}
