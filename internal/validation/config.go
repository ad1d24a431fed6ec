package validation

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/altafino/folder-import/internal/models"
	"github.com/altafino/folder-import/internal/types"
)

// ValidateConfig performs validation on a single configuration
func ValidateConfig(cfg *types.Config) error {
	checks := []struct {
		section string
		fn      func(*types.Config) error
	}{
		{"meta", validateMeta},
		{"import", validateImport},
		{"metadata", validateMetadata},
		{"process", validateProcess},
		{"storage", validateStorage},
		{"logging", validateLogging},
		{"tracking", validateTracking},
		{"error_logging", validateErrorLogging},
		{"scheduling", validateScheduling},
	}

	for _, c := range checks {
		if err := c.fn(cfg); err != nil {
			return fmt.Errorf("%s validation failed: %w", c.section, err)
		}
	}
	return nil
}

// ValidateConfigs validates every configuration and joins the failures, each
// prefixed with the profile ID
func ValidateConfigs(configs []*types.Config) error {
	var errs []error
	for _, cfg := range configs {
		if err := ValidateConfig(cfg); err != nil {
			errs = append(errs, fmt.Errorf("config %s: %w", cfg.Meta.ID, err))
		}
	}
	return errors.Join(errs...)
}

func validateMeta(cfg *types.Config) error {
	if cfg.Meta.ID == "" {
		return fmt.Errorf("meta.id is required")
	}

	if !isValidID(cfg.Meta.ID) {
		return fmt.Errorf("meta.id contains invalid characters (use only alphanumeric, dash, underscore)")
	}

	if cfg.Meta.Name == "" {
		return fmt.Errorf("meta.name is required")
	}

	return nil
}

func validateImport(cfg *types.Config) error {
	if cfg.Import.ImageFolder == "" {
		return fmt.Errorf("import.image_folder is required")
	}

	if cfg.Import.MainType == "" {
		return fmt.Errorf("import.main_type is required")
	}

	if err := validateRules("import.prefix_types", cfg.Import.PrefixTypes); err != nil {
		return err
	}
	return validateRules("import.suffix_types", cfg.Import.SuffixTypes)
}

func validateRules(key string, rules []models.Rule) error {
	seen := make(map[string]bool, len(rules))
	for i, r := range rules {
		if r.FolderName == "" || r.StructureType == "" {
			return fmt.Errorf("%s[%d]: foldername and doctype are required", key, i)
		}
		name := strings.ToLower(r.FolderName)
		if seen[name] {
			return fmt.Errorf("%s[%d]: duplicate foldername %q", key, i, r.FolderName)
		}
		seen[name] = true
	}
	return nil
}

func validateMetadata(cfg *types.Config) error {
	if cfg.Metadata.TitleType == "" {
		return fmt.Errorf("metadata.title_type is required")
	}
	return nil
}

func validateProcess(cfg *types.Config) error {
	if cfg.Process.MetadataRoot == "" {
		return fmt.Errorf("process.metadata_root is required")
	}

	if cfg.Process.MetadataFile == "" || strings.ContainsAny(cfg.Process.MetadataFile, `/\`) {
		return fmt.Errorf("process.metadata_file must be a plain file name")
	}

	if filepath.IsAbs(cfg.Process.MasterDirectory) || strings.HasPrefix(filepath.Clean(cfg.Process.MasterDirectory), "..") {
		return fmt.Errorf("process.master_directory must stay inside the images directory")
	}

	if cfg.Process.MetadataBackups < 0 {
		return fmt.Errorf("process.metadata_backups must not be negative")
	}

	return nil
}

func validateStorage(cfg *types.Config) error {
	switch cfg.Storage.ConflictPolicy {
	case "fail", "overwrite":
	default:
		return fmt.Errorf("storage.conflict_policy must be 'fail' or 'overwrite'")
	}

	switch cfg.Storage.Type {
	case "file":
	case "s3":
		if cfg.Storage.S3.Endpoint == "" || cfg.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.endpoint and storage.s3.bucket are required for s3 storage")
		}
	case "gdrive":
		if cfg.Storage.GDrive.CredentialsFile == "" {
			return fmt.Errorf("storage.gdrive.credentials_file is required for gdrive storage")
		}
	default:
		return fmt.Errorf("storage.type must be one of: file, s3, gdrive")
	}

	return nil
}

func validateLogging(cfg *types.Config) error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}

	validFormats := map[string]bool{
		"text": true,
		"json": true,
		"dev":  true,
	}

	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: text, json, dev")
	}

	validOutputs := map[string]bool{
		"stdout": true,
		"file":   true,
	}

	if !validOutputs[cfg.Logging.Output] {
		return fmt.Errorf("logging.output must be one of: stdout, file")
	}

	if cfg.Logging.Output == "file" && cfg.Logging.FilePath == "" {
		return fmt.Errorf("logging.file_path is required when output is 'file'")
	}

	return nil
}

func validateTracking(cfg *types.Config) error {
	if !cfg.Tracking.Enabled {
		return nil
	}

	switch cfg.Tracking.StorageType {
	case "file", "sqlite":
	default:
		return fmt.Errorf("tracking.storage_type must be 'file' or 'sqlite'")
	}

	if cfg.Tracking.StoragePath == "" {
		return fmt.Errorf("tracking.storage_path is required")
	}

	if cfg.Tracking.RetentionDays <= 0 {
		return fmt.Errorf("tracking.retention_days must be positive")
	}

	return nil
}

func validateErrorLogging(cfg *types.Config) error {
	if !cfg.ErrorLogging.Enabled {
		return nil
	}

	if cfg.ErrorLogging.StorageType != "file" {
		return fmt.Errorf("error_logging.storage_type must be 'file'")
	}

	if cfg.ErrorLogging.StoragePath == "" {
		return fmt.Errorf("error_logging.storage_path is required")
	}

	return nil
}

func validateScheduling(cfg *types.Config) error {
	if !cfg.Scheduling.Enabled {
		return nil // Skip validation if scheduling is disabled
	}

	// Validate frequency_every
	validFrequencies := map[string]bool{
		"minute": true,
		"hour":   true,
		"day":    true,
		"week":   true,
		"month":  true,
	}

	if !validFrequencies[cfg.Scheduling.FrequencyEvery] {
		return fmt.Errorf("scheduling.frequency_every must be one of: minute, hour, day, week, month")
	}

	// Validate frequency_amount
	if cfg.Scheduling.FrequencyAmount < 1 {
		return fmt.Errorf("scheduling.frequency_amount must be greater than 0")
	}

	// Validate start and stop times if provided
	if !cfg.Scheduling.StartNow {
		if cfg.Scheduling.StartAt == "" {
			return fmt.Errorf("scheduling.start_at is required when start_now is false")
		}
		if _, err := time.Parse(time.RFC3339, cfg.Scheduling.StartAt); err != nil {
			return fmt.Errorf("scheduling.start_at must be in RFC3339 format (e.g., 2006-01-02T15:04:05Z)")
		}
	}

	if cfg.Scheduling.StopAt != "" {
		stopAt, err := time.Parse(time.RFC3339, cfg.Scheduling.StopAt)
		if err != nil {
			return fmt.Errorf("scheduling.stop_at must be in RFC3339 format (e.g., 2006-01-02T15:04:05Z)")
		}

		// If start_at is provided, validate stop_at is after start_at
		if cfg.Scheduling.StartAt != "" {
			startAt, _ := time.Parse(time.RFC3339, cfg.Scheduling.StartAt)
			if stopAt.Before(startAt) {
				return fmt.Errorf("scheduling.stop_at must be after start_at")
			}
		}

		// If start_now is true, validate stop_at is in the future
		if cfg.Scheduling.StartNow {
			if stopAt.Before(time.Now().UTC()) {
				return fmt.Errorf("scheduling.stop_at must be in the future when start_now is true")
			}
		}
	}

	// Additional frequency-specific validations
	switch cfg.Scheduling.FrequencyEvery {
	case "minute":
		if cfg.Scheduling.FrequencyAmount > 60 {
			return fmt.Errorf("scheduling.frequency_amount must not exceed 60 for minute frequency")
		}
	case "hour":
		if cfg.Scheduling.FrequencyAmount > 24 {
			return fmt.Errorf("scheduling.frequency_amount must not exceed 24 for hour frequency")
		}
	case "day":
		if cfg.Scheduling.FrequencyAmount > 31 {
			return fmt.Errorf("scheduling.frequency_amount must not exceed 31 for day frequency")
		}
	case "week":
		if cfg.Scheduling.FrequencyAmount > 52 {
			return fmt.Errorf("scheduling.frequency_amount must not exceed 52 for week frequency")
		}
	case "month":
		if cfg.Scheduling.FrequencyAmount > 12 {
			return fmt.Errorf("scheduling.frequency_amount must not exceed 12 for month frequency")
		}
	}

	return nil
}

func isValidID(id string) bool {
	for _, r := range id {
		if !isValidIDChar(r) {
			return false
		}
	}
	return true
}

func isValidIDChar(r rune) bool {
	return (r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9') ||
		r == '-' ||
		r == '_'
}
