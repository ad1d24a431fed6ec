package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrDestinationConflict is returned when a master file already exists and may not be replaced
var ErrDestinationConflict = errors.New("destination already exists")

// MasterStorage stores images in the master directory of a process
type MasterStorage interface {
	// Put copies the file at sourcePath into the master directory as name and returns its location
	Put(ctx context.Context, sourcePath, name string) (string, error)
	// Exists reports whether name is already stored
	Exists(ctx context.Context, name string) (bool, error)
	// Remove deletes name from the master directory
	Remove(ctx context.Context, name string) error
}

// StorageType represents the type of storage backend
type StorageType string

const (
	StorageTypeFile   StorageType = "file"
	StorageTypeS3     StorageType = "s3"
	StorageTypeGDrive StorageType = "gdrive"
)

// ConflictPolicy defines how an existing destination is handled
type ConflictPolicy string

const (
	ConflictPolicyFail      ConflictPolicy = "fail"
	ConflictPolicyOverwrite ConflictPolicy = "overwrite"
)

// StorageConfig holds configuration for creating storage instances
type StorageConfig struct {
	Type           StorageType
	ConflictPolicy ConflictPolicy
	// MasterDir is the local master directory, used by the file backend
	MasterDir string
	// Location identifies the process master directory in remote backends
	Location string

	S3     S3Config
	GDrive GDriveConfig
}

// S3Config holds the connection settings of an S3 compatible store
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Prefix    string
	UseSSL    bool
}

// GDriveConfig holds the Google Drive settings
type GDriveConfig struct {
	CredentialsFile string // Path to Google Drive credentials JSON file
	ParentFolderID  string // Google Drive folder ID where master folders are created
}

// NewStorage creates a new storage instance based on the configuration
func NewStorage(ctx context.Context, config StorageConfig, logger *slog.Logger) (MasterStorage, error) {
	if config.ConflictPolicy == "" {
		config.ConflictPolicy = ConflictPolicyFail
	}

	switch config.Type {
	case StorageTypeFile, "":
		return NewFileStorage(config.MasterDir, config.ConflictPolicy, logger), nil
	case StorageTypeS3:
		return NewS3Storage(config.S3, config.Location, config.ConflictPolicy, logger)
	case StorageTypeGDrive:
		return NewGDriveStorage(ctx, logger, config.GDrive, config.Location, config.ConflictPolicy)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", config.Type)
	}
}
