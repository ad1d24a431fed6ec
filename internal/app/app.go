package app

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/altafino/folder-import/internal/config"
	"github.com/altafino/folder-import/internal/scheduler"
	"github.com/altafino/folder-import/internal/types"
	"github.com/altafino/folder-import/internal/validation"
)

// App runs the scheduled imports of the loaded configurations
type App struct {
	logger    *slog.Logger
	scheduler *scheduler.Scheduler
	configs   []*types.Config
	configDir string
	configID  string
	watcher   *config.ConfigWatcher
	wg        sync.WaitGroup
}

// New creates a new application instance. Configurations must already be loaded.
func New(logger *slog.Logger, configDir string, configID string) (*App, error) {
	app := &App{
		logger:    logger,
		configDir: configDir,
		configID:  configID,
	}

	configs, err := app.selectConfigs()
	if err != nil {
		return nil, err
	}
	app.configs = configs
	app.scheduler = scheduler.NewScheduler(logger)

	return app, nil
}

func (a *App) selectConfigs() ([]*types.Config, error) {
	if a.configID == "" {
		return config.GetEnabledConfigs(), nil
	}
	cfg, err := config.GetConfig(a.configID)
	if err != nil {
		return nil, fmt.Errorf("failed to get config %s: %w", a.configID, err)
	}
	return []*types.Config{cfg}, nil
}

// Start schedules every configuration and starts watching the config directory
func (a *App) Start() error {
	watcher, err := config.StartWatcher(a.configDir, a.logger)
	if err != nil {
		return fmt.Errorf("failed to start config watcher: %w", err)
	}
	a.watcher = watcher

	a.scheduler.Start()

	for _, cfg := range a.configs {
		if err := a.schedule(cfg); err != nil {
			return err
		}
	}

	a.wg.Add(1)
	go a.watchConfigs()

	return nil
}

// Stop gracefully stops all application services
func (a *App) Stop() {
	if a.watcher != nil {
		a.watcher.Stop()
	}
	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	a.wg.Wait()
}

func (a *App) schedule(cfg *types.Config) error {
	if err := a.scheduler.UpdateJob(cfg); err != nil {
		a.logger.Error("failed to update scheduler",
			"error", err,
			"id", cfg.Meta.ID,
		)
		return err
	}

	a.logger.Info("scheduled configuration",
		"id", cfg.Meta.ID,
		"name", cfg.Meta.Name,
	)
	return nil
}

func (a *App) watchConfigs() {
	defer a.wg.Done()

	for range a.watcher.ReloadChan() {
		a.logger.Info("rescheduling due to configuration change")

		newConfigs, err := a.selectConfigs()
		if err != nil {
			a.logger.Error("failed to get updated configs", "error", err)
			continue
		}

		// drop jobs of profiles that were removed or disabled
		current := make(map[string]bool, len(newConfigs))
		for _, cfg := range newConfigs {
			current[cfg.Meta.ID] = true
		}
		for _, cfg := range a.configs {
			if !current[cfg.Meta.ID] {
				a.scheduler.RemoveJob(cfg.Meta.ID)
			}
		}

		for _, cfg := range newConfigs {
			if err := validation.ValidateConfig(cfg); err != nil {
				a.logger.Error("invalid configuration, job removed",
					"config_id", cfg.Meta.ID,
					"error", err,
				)
				a.scheduler.RemoveJob(cfg.Meta.ID)
				continue
			}
			if err := a.schedule(cfg); err != nil {
				a.logger.Error("failed to reschedule",
					"config_id", cfg.Meta.ID,
					"error", err,
				)
			}
		}
		a.configs = newConfigs
	}
}
