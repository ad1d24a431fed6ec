package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const driveFolderMimeType = "application/vnd.google-apps.folder"

// GDriveStorage implements MasterStorage for Google Drive
type GDriveStorage struct {
	logger   *slog.Logger
	service  *drive.Service
	parentID string // Google Drive folder ID under which master folders are created
	location string
	policy   ConflictPolicy

	folderID string // resolved lazily from location
}

// NewGDriveStorage creates a new Google Drive storage instance
func NewGDriveStorage(ctx context.Context, logger *slog.Logger, cfg GDriveConfig, location string, policy ConflictPolicy) (*GDriveStorage, error) {
	service, err := drive.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to create Drive client: %w", err)
	}

	return &GDriveStorage{
		logger:   logger,
		service:  service,
		parentID: cfg.ParentFolderID,
		location: location,
		policy:   policy,
	}, nil
}

func (gd *GDriveStorage) Put(ctx context.Context, sourcePath, name string) (string, error) {
	folderID, err := gd.ensureFolderStructure(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to ensure folder structure: %w", err)
	}

	existingID, err := gd.findFile(ctx, folderID, name)
	if err != nil {
		return "", err
	}
	if existingID != "" && gd.policy != ConflictPolicyOverwrite {
		return "", fmt.Errorf("%w: drive file %s in %s", ErrDestinationConflict, name, gd.location)
	}

	f, err := os.Open(sourcePath)
	if err != nil {
		return "", fmt.Errorf("failed to open source file: %w", err)
	}
	defer f.Close()

	mimeType := "application/octet-stream"
	if mt, err := mimetype.DetectFile(sourcePath); err == nil {
		mimeType = mt.String()
	}

	var uploaded *drive.File
	if existingID != "" {
		uploaded, err = gd.service.Files.Update(existingID, &drive.File{}).Media(f).Context(ctx).Do()
	} else {
		file := &drive.File{
			Name:     name,
			Parents:  []string{folderID},
			MimeType: mimeType,
		}
		uploaded, err = gd.service.Files.Create(file).Media(f).Context(ctx).Do()
	}
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}

	gd.logger.Debug("file uploaded successfully",
		"filename", name,
		"id", uploaded.Id,
		"replaced", existingID != "")

	return uploaded.Id, nil
}

func (gd *GDriveStorage) Exists(ctx context.Context, name string) (bool, error) {
	folderID, err := gd.ensureFolderStructure(ctx)
	if err != nil {
		return false, err
	}
	id, err := gd.findFile(ctx, folderID, name)
	return id != "", err
}

func (gd *GDriveStorage) Remove(ctx context.Context, name string) error {
	folderID, err := gd.ensureFolderStructure(ctx)
	if err != nil {
		return err
	}
	id, err := gd.findFile(ctx, folderID, name)
	if err != nil || id == "" {
		return err
	}
	if err := gd.service.Files.Delete(id).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to delete %s: %w", name, err)
	}
	return nil
}

func (gd *GDriveStorage) findFile(ctx context.Context, folderID, name string) (string, error) {
	query := fmt.Sprintf("name = '%s' and '%s' in parents and trashed = false", escapeQuery(name), folderID)
	list, err := gd.service.Files.List().Q(query).Fields("files(id)").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to search for file: %w", err)
	}
	if len(list.Files) == 0 {
		return "", nil
	}
	return list.Files[0].Id, nil
}

func (gd *GDriveStorage) ensureFolderStructure(ctx context.Context) (string, error) {
	if gd.folderID != "" {
		return gd.folderID, nil
	}

	currentParentID := gd.parentID
	for _, part := range strings.Split(path.Clean(gd.location), "/") {
		if part == "" || part == "." {
			continue
		}

		query := fmt.Sprintf("name = '%s' and '%s' in parents and mimeType = '%s' and trashed = false",
			escapeQuery(part), currentParentID, driveFolderMimeType)

		fileList, err := gd.service.Files.List().Q(query).Fields("files(id)").Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("failed to search for folder: %w", err)
		}

		if len(fileList.Files) > 0 {
			currentParentID = fileList.Files[0].Id
			continue
		}

		folder := &drive.File{
			Name:     part,
			MimeType: driveFolderMimeType,
			Parents:  []string{currentParentID},
		}

		createdFolder, err := gd.service.Files.Create(folder).Fields("id").Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("failed to create folder: %w", err)
		}

		currentParentID = createdFolder.Id
	}

	gd.folderID = currentParentID
	return currentParentID, nil
}

func escapeQuery(s string) string {
	return strings.ReplaceAll(s, "'", `\'`)
}
