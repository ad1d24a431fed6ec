package types

import "github.com/altafino/folder-import/internal/models"

// Config represents one import profile
type Config struct {
	// Meta information for the configuration
	Meta struct {
		ID          string `yaml:"id"`
		Name        string `yaml:"name"`
		Description string `yaml:"description,omitempty"`
		Enabled     bool   `yaml:"enabled"`
		Template    string `yaml:"template,omitempty"` // Name of the template to use
	} `yaml:"meta"`

	Import struct {
		ImageFolder string        `yaml:"image_folder"`
		MainType    string        `yaml:"main_type"`
		PrefixTypes []models.Rule `yaml:"prefix_types"`
		SuffixTypes []models.Rule `yaml:"suffix_types"`
		IgnoreFiles []string      `yaml:"ignore_files"` // destination name suffixes that are never imported
	} `yaml:"import"`

	Metadata struct {
		RulesetFile         string `yaml:"ruleset_file"`
		TitleType           string `yaml:"title_type"`
		PublicationYearType string `yaml:"publication_year_type"`
		DatingType          string `yaml:"dating_type"`
		TitlePrefix         string `yaml:"title_prefix"`
		DateSeparator       string `yaml:"date_separator"`
	} `yaml:"metadata"`

	Process struct {
		MetadataRoot    string `yaml:"metadata_root"`
		MetadataFile    string `yaml:"metadata_file"`
		MasterDirectory string `yaml:"master_directory"` // relative to <process>/images, ${id} is replaced
		MetadataBackups int    `yaml:"metadata_backups"`
	} `yaml:"process"`

	Storage struct {
		Type           string `yaml:"type"`            // file, s3, gdrive
		ConflictPolicy string `yaml:"conflict_policy"` // fail, overwrite
		Staging        bool   `yaml:"staging"`
		StagingDir     string `yaml:"staging_dir"`
		S3             struct {
			Endpoint  string `yaml:"endpoint"`
			AccessKey string `yaml:"access_key"`
			SecretKey string `yaml:"secret_key"`
			Bucket    string `yaml:"bucket"`
			Region    string `yaml:"region"`
			Prefix    string `yaml:"prefix"`
			UseSSL    bool   `yaml:"use_ssl"`
		} `yaml:"s3"`
		GDrive struct {
			CredentialsFile string `yaml:"credentials_file"`
			ParentFolderID  string `yaml:"parent_folder_id"`
		} `yaml:"gdrive"`
	} `yaml:"storage"`

	Logging struct {
		Level         string `yaml:"level"`
		Format        string `yaml:"format"` // text, json, dev
		Output        string `yaml:"output"`
		FilePath      string `yaml:"file_path"`
		IncludeCaller bool   `yaml:"include_caller"`
	} `yaml:"logging"`

	Tracking struct {
		Enabled       bool   `yaml:"enabled"`
		StorageType   string `yaml:"storage_type"` // file, sqlite
		StoragePath   string `yaml:"storage_path"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"tracking"`

	ErrorLogging struct {
		Enabled       bool   `yaml:"enabled"`
		StorageType   string `yaml:"storage_type"`
		StoragePath   string `yaml:"storage_path"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"error_logging"`

	Scheduling struct {
		Enabled         bool   `yaml:"enabled"`
		FrequencyEvery  string `yaml:"frequency_every"` // minute, hour, day, week, month
		FrequencyAmount int    `yaml:"frequency_amount"`
		StartNow        bool   `yaml:"start_now"`
		StartAt         string `yaml:"start_at"` // UTC DateTime
		StopAt          string `yaml:"stop_at"`  // UTC DateTime
	} `yaml:"scheduling"`
}

// RuleSet builds the folder rules of this profile
func (c *Config) RuleSet() models.RuleSet {
	rs := models.RuleSet{MainType: c.Import.MainType}
	rs.Prefix = append(rs.Prefix, c.Import.PrefixTypes...)
	rs.Suffix = append(rs.Suffix, c.Import.SuffixTypes...)
	return rs
}
