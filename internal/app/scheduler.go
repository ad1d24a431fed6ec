package app

import (
	"context"
	"errors"
	"log/slog"

	"github.com/altafino/folder-import/internal/importer"
	"github.com/altafino/folder-import/internal/logger"
	"github.com/altafino/folder-import/internal/types"
)

// RunOnce sweeps the pending processes of every enabled configuration a single time.
// Each sweep logs through the logger configured by its profile.
func RunOnce(ctx context.Context, configs []*types.Config, log *slog.Logger) error {
	var errs []error
	for _, cfg := range configs {
		if !cfg.Meta.Enabled {
			log.Info("skipping disabled config", "config_id", cfg.Meta.ID)
			continue
		}
		if err := sweep(ctx, cfg, log); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func sweep(ctx context.Context, cfg *types.Config, fallback *slog.Logger) error {
	log, closer, err := logger.ForProfile(cfg, fallback)
	if err != nil {
		fallback.Warn("failed to setup profile logger", "config_id", cfg.Meta.ID, "error", err)
	}
	defer closer.Close()

	svc, err := importer.NewService(cfg, log)
	if err != nil {
		log.Error("failed to create import service", "error", err)
		return err
	}
	defer svc.Close()

	if err := svc.ProcessPending(ctx); err != nil {
		log.Error("failed to process pending imports", "error", err)
		return err
	}
	return nil
}
