package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/altafino/folder-import/internal/types"
	yaml "gopkg.in/yaml.v3"
)

const configSuffix = ".config.yaml"

// ConfigStore manages multiple import profiles
type ConfigStore struct {
	configs map[string]*types.Config // map[id]*Config
}

var (
	globalStore *ConfigStore
	storeMu     sync.RWMutex
	logger      *slog.Logger
	overrides   func(*types.Config)
)

// InitLogger sets up the logger for the config package
func InitLogger(l *slog.Logger) {
	logger = l
}

// SetOverrides registers fn to run on every profile after it is loaded, including
// reloads triggered by the watcher. Call it before LoadConfigs and StartWatcher.
func SetOverrides(fn func(*types.Config)) {
	overrides = fn
}

// LoadConfigs loads all configuration files from the specified directory
func LoadConfigs(configDir string) error {
	if logger == nil {
		logger = slog.Default()
	}

	store := &ConfigStore{
		configs: make(map[string]*types.Config),
	}

	// Templates are optional
	templatesDir := filepath.Join(configDir, "templates")
	if err := LoadTemplates(templatesDir); err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}

	entries, err := os.ReadDir(configDir)
	if err != nil {
		return fmt.Errorf("failed to read config directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), configSuffix) {
			continue
		}

		configPath := filepath.Join(configDir, entry.Name())
		cfg, err := LoadFile(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config %s: %w", entry.Name(), err)
		}

		if overrides != nil {
			overrides(cfg)
		}

		if _, exists := store.configs[cfg.Meta.ID]; exists {
			return fmt.Errorf("duplicate config ID %s in %s", cfg.Meta.ID, entry.Name())
		}

		store.configs[cfg.Meta.ID] = cfg

		logger.Debug("loaded configuration",
			"id", cfg.Meta.ID,
			"image_folder", cfg.Import.ImageFolder,
			"main_type", cfg.Import.MainType,
			"prefix_rules", len(cfg.Import.PrefixTypes),
			"suffix_rules", len(cfg.Import.SuffixTypes),
		)
	}

	storeMu.Lock()
	globalStore = store
	storeMu.Unlock()
	return nil
}

// LoadFile reads a single profile, applies its template and fills in defaults
func LoadFile(path string) (*types.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables in the config file
	expandedData := os.ExpandEnv(string(data))

	cfg := &types.Config{}
	if err := yaml.Unmarshal([]byte(expandedData), cfg); err != nil {
		return nil, err
	}

	if cfg.Meta.ID == "" {
		return nil, fmt.Errorf("missing required meta.id field")
	}

	if cfg.Meta.Template != "" {
		if err := ApplyTemplate(cfg, cfg.Meta.Template); err != nil {
			return nil, err
		}
	}

	ApplyDefaults(cfg)
	return cfg, nil
}

// ApplyDefaults fills in every setting the platform has a default for
func ApplyDefaults(cfg *types.Config) {
	if len(cfg.Import.IgnoreFiles) == 0 {
		cfg.Import.IgnoreFiles = []string{"Thumbs.db"}
	}
	if cfg.Metadata.TitleType == "" {
		cfg.Metadata.TitleType = "TitleDocMain"
	}
	if cfg.Metadata.PublicationYearType == "" {
		cfg.Metadata.PublicationYearType = "PublicationYear"
	}
	if cfg.Metadata.DatingType == "" {
		cfg.Metadata.DatingType = "Dating"
	}
	if cfg.Metadata.TitlePrefix == "" {
		cfg.Metadata.TitlePrefix = "Protokoll vom "
	}
	if cfg.Metadata.DateSeparator == "" {
		cfg.Metadata.DateSeparator = ";"
	}
	if cfg.Process.MetadataFile == "" {
		cfg.Process.MetadataFile = "meta.yaml"
	}
	if cfg.Process.MasterDirectory == "" {
		cfg.Process.MasterDirectory = "master"
	}
	if cfg.Storage.Type == "" {
		cfg.Storage.Type = "file"
	}
	if cfg.Storage.ConflictPolicy == "" {
		cfg.Storage.ConflictPolicy = "fail"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
	if cfg.Tracking.StorageType == "" {
		cfg.Tracking.StorageType = "file"
	}
	if cfg.Tracking.RetentionDays == 0 {
		cfg.Tracking.RetentionDays = 365
	}
	if cfg.ErrorLogging.StorageType == "" {
		cfg.ErrorLogging.StorageType = "file"
	}
	if cfg.ErrorLogging.RetentionDays == 0 {
		cfg.ErrorLogging.RetentionDays = 30
	}
}

// GetConfig retrieves a configuration by ID
func GetConfig(id string) (*types.Config, error) {
	storeMu.RLock()
	defer storeMu.RUnlock()

	if globalStore == nil {
		return nil, fmt.Errorf("config store not initialized")
	}

	cfg, exists := globalStore.configs[id]
	if !exists {
		return nil, fmt.Errorf("config with ID %s not found", id)
	}

	return cfg, nil
}

// Select returns the profile with the given ID, or the only enabled profile when id is empty
func Select(id string) (*types.Config, error) {
	if id != "" {
		return GetConfig(id)
	}

	enabled := GetEnabledConfigs()
	switch len(enabled) {
	case 0:
		return nil, fmt.Errorf("no enabled configuration found")
	case 1:
		return enabled[0], nil
	default:
		return nil, fmt.Errorf("%d enabled configurations found, select one with --config-id", len(enabled))
	}
}

// ListConfigs returns a list of all available configurations sorted by ID
func ListConfigs() []*types.Config {
	storeMu.RLock()
	defer storeMu.RUnlock()

	if globalStore == nil {
		return nil
	}

	configs := make([]*types.Config, 0, len(globalStore.configs))
	for _, cfg := range globalStore.configs {
		configs = append(configs, cfg)
	}
	sort.Slice(configs, func(i, j int) bool { return configs[i].Meta.ID < configs[j].Meta.ID })
	return configs
}

// GetEnabledConfigs returns only enabled configurations
func GetEnabledConfigs() []*types.Config {
	configs := make([]*types.Config, 0)
	for _, cfg := range ListConfigs() {
		if cfg.Meta.Enabled {
			configs = append(configs, cfg)
		}
	}
	return configs
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
