package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// ConfigWatcher reloads the profiles whenever a YAML file in the config directory changes
type ConfigWatcher struct {
	watcher    *fsnotify.Watcher
	configDir  string
	mu         sync.Mutex
	logger     *slog.Logger
	reloadChan chan struct{}
}

var (
	globalWatcher *ConfigWatcher
	watcherMu     sync.Mutex
)

// StartWatcher initializes and starts the configuration watcher
func StartWatcher(configDir string, logger *slog.Logger) (*ConfigWatcher, error) {
	watcherMu.Lock()
	defer watcherMu.Unlock()

	if globalWatcher != nil {
		return globalWatcher, nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	cw := &ConfigWatcher{
		watcher:    watcher,
		configDir:  configDir,
		logger:     logger,
		reloadChan: make(chan struct{}, 1),
	}

	// fsnotify is not recursive, so templates/ is added explicitly
	if err := filepath.Walk(configDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return watcher.Add(path)
		}
		return nil
	}); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch config directory: %w", err)
	}

	go cw.watch(watcher)
	globalWatcher = cw
	return cw, nil
}

// ReloadChan returns a channel that receives notifications when configs are reloaded
func (cw *ConfigWatcher) ReloadChan() <-chan struct{} {
	return cw.reloadChan
}

func (cw *ConfigWatcher) watch(w *fsnotify.Watcher) {
	defer close(cw.reloadChan)

	for {
		select {
		case event, ok := <-w.Events:
			if !ok {
				return
			}

			if !isConfigFile(event.Name) {
				continue
			}

			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) {
				cw.handleConfigChange(event.Name)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			cw.logger.Error("watcher error", "error", err)
		}
	}
}

func isConfigFile(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	return strings.HasSuffix(base, ".yaml") || strings.HasSuffix(base, ".yml")
}

func (cw *ConfigWatcher) handleConfigChange(path string) {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	cw.logger.Info("detected configuration change", "path", path)

	if err := LoadConfigs(cw.configDir); err != nil {
		cw.logger.Error("failed to reload configurations",
			"error", err,
			"path", path,
		)
		return
	}

	cw.logger.Info("configurations reloaded successfully", "count", len(ListConfigs()))

	select {
	case cw.reloadChan <- struct{}{}:
	default:
		// a reload is already pending
	}
}

// Stop stops the configuration watcher
func (cw *ConfigWatcher) Stop() error {
	watcherMu.Lock()
	defer watcherMu.Unlock()

	if cw.watcher != nil {
		if err := cw.watcher.Close(); err != nil {
			return fmt.Errorf("failed to close watcher: %w", err)
		}
		cw.watcher = nil
	}

	if globalWatcher == cw {
		globalWatcher = nil
	}

	return nil
}
