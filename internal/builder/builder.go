// Package builder turns the subfolders of an import folder into logical structure
// elements and pages, and copies the images into master storage.
package builder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/altafino/folder-import/internal/metadata"
	"github.com/altafino/folder-import/internal/models"
	"github.com/altafino/folder-import/internal/storage"
	"github.com/altafino/folder-import/internal/utility/u_io"
	"github.com/altafino/folder-import/internal/utility/u_string"
)

// ErrStructureCreationFailed is recorded for a subfolder whose element could not be created
var ErrStructureCreationFailed = errors.New("failed to create structure element")

const defaultMimeType = "application/octet-stream"

// Options controls metadata derivation and file filtering
type Options struct {
	TitleType           string
	PublicationYearType string
	DatingType          string
	TitlePrefix         string
	DateSeparator       string
	// IgnoreSuffixes lists destination name suffixes that are never imported
	IgnoreSuffixes []string
}

// State is the part of the document a build appends to
type State struct {
	// Logical receives one child per subfolder and references every page
	Logical *metadata.DocStruct
	// Physical receives the pages
	Physical *metadata.DocStruct
	// NextPage is the physical number of the next page, starting at 1
	NextPage int
}

// Builder creates structure elements and pages for one document
type Builder struct {
	doc      *metadata.Document
	prefs    *metadata.Prefs
	provider storage.Provider
	master   storage.MasterStorage
	opts     Options
	logger   *slog.Logger
}

// New creates a builder that appends to doc and copies into master
func New(doc *metadata.Document, prefs *metadata.Prefs, provider storage.Provider, master storage.MasterStorage, opts Options, logger *slog.Logger) *Builder {
	return &Builder{
		doc:      doc,
		prefs:    prefs,
		provider: provider,
		master:   master,
		opts:     opts,
		logger:   logger,
	}
}

// Build processes the subfolders of folder in partition order. Failures of single
// folders, images or metadata values are recorded in the report and never stop the run.
func (b *Builder) Build(ctx context.Context, folder string, rules models.RuleSet, state State) *models.RunReport {
	if state.NextPage < 1 {
		state.NextPage = 1
	}

	report := &models.RunReport{Folder: folder, StartedAt: time.Now(), NextPage: state.NextPage}
	defer func() {
		report.NextPage = state.NextPage
		report.EndedAt = time.Now()
	}()

	entries, err := b.provider.ListEntries(folder)
	if err != nil {
		b.logger.Error("failed to list import folder", "folder", folder, "error", err)
		report.Fail(models.UnitKindFolder, folder, "", err)
		return report
	}

	var subfolders []string
	for _, name := range entries {
		if !b.provider.IsDirectory(filepath.Join(folder, name)) {
			b.logger.Debug("skipping non-directory entry", "folder", folder, "entry", name)
			report.Skip(models.UnitKindFolder, name, "", "not a directory")
			continue
		}
		subfolders = append(subfolders, name)
	}

	partition := Partition(subfolders, rules)
	b.logger.Info("partitioned import folder",
		"folder", folder,
		"prefix", len(partition.Prefix),
		"main", len(partition.Main),
		"suffix", len(partition.Suffix),
	)

	for _, a := range partition.Ordered() {
		if err := ctx.Err(); err != nil {
			report.Fail(models.UnitKindFolder, a.Folder, "", err)
			break
		}
		b.buildFolder(ctx, folder, a, &state, report)
	}

	b.logger.Info("built structure", "folder", folder, "summary", report.Summary())
	return report
}

func (b *Builder) buildFolder(ctx context.Context, root string, a models.Assignment, state *State, report *models.RunReport) {
	ds, err := b.doc.CreateDocStruct(b.prefs, a.StructureType)
	if err != nil {
		err = fmt.Errorf("%w: %s: %v", ErrStructureCreationFailed, a.Folder, err)
		b.logger.Error("skipping folder", "folder", a.Folder, "type", a.StructureType, "error", err)
		report.Fail(models.UnitKindFolder, a.Folder, "", err)
		return
	}
	state.Logical.AddChild(ds)
	report.Structures++
	report.OK(models.UnitKindFolder, a.Folder, "")

	files, err := b.provider.ListFiles(filepath.Join(root, a.Folder))
	if err != nil {
		b.logger.Error("failed to list images", "folder", a.Folder, "error", err)
		report.Fail(models.UnitKindFolder, a.Folder, "", err)
		return
	}

	metadataAssigned := false
	for _, src := range files {
		asset := NewImageAsset(a.Folder, src)
		name := asset.DestinationName
		if u_io.HasIgnoredSuffix(name, b.opts.IgnoreSuffixes) {
			report.Skip(models.UnitKindImage, a.Folder, name, "ignored file")
			continue
		}

		page, err := b.doc.CreateDocStruct(b.prefs, metadata.PageType)
		if err != nil {
			b.logger.Error("failed to create page", "folder", a.Folder, "file", name, "error", err)
			report.Fail(models.UnitKindImage, a.Folder, name, err)
			continue
		}
		page.Page = &metadata.Page{
			PhysicalNumber: state.NextPage,
			ContentFile:    name,
			MimeType:       detectMimeType(asset.SourcePath),
		}
		state.Physical.AddChild(page)
		b.doc.AddReference(state.Logical, page)
		b.doc.AddReference(ds, page)
		state.NextPage++
		report.Pages++
		report.OK(models.UnitKindImage, a.Folder, name)

		// values depend on the folder name only, so they are set with the first page
		if a.CreateMetadata && !metadataAssigned {
			b.assignMetadata(ds, a.Folder, report)
			metadataAssigned = true
		}

		if _, err := b.master.Put(ctx, asset.SourcePath, name); err != nil {
			b.logger.Error("failed to copy image", "source", asset.SourcePath, "name", name, "error", err)
			report.Fail(models.UnitKindCopy, a.Folder, name, err)
			continue
		}
		report.Copied++
		report.OK(models.UnitKindCopy, a.Folder, name)
	}
}

// assignMetadata derives title and date of a main element from its folder name
func (b *Builder) assignMetadata(ds *metadata.DocStruct, folder string, report *models.RunReport) {
	b.setMetadata(ds, b.opts.TitleType, b.opts.TitlePrefix+folder, folder, report)

	date := u_string.FirstField(folder, b.opts.DateSeparator)
	if u_string.IsBlank(date) {
		return
	}
	b.setMetadata(ds, b.opts.PublicationYearType, date, folder, report)
	b.setMetadata(ds, b.opts.DatingType, date, folder, report)
}

func (b *Builder) setMetadata(ds *metadata.DocStruct, metadataType, value, folder string, report *models.RunReport) {
	if metadataType == "" {
		return
	}

	err := ds.SetMetadata(b.prefs, metadataType, value)
	switch {
	case err == nil:
	case errors.Is(err, metadata.ErrUnknownMetadataType):
		b.logger.Debug("metadata type not in ruleset", "type", metadataType, "folder", folder)
	default:
		b.logger.Warn("failed to set metadata", "type", metadataType, "folder", folder, "error", err)
		report.Fail(models.UnitKindMetadata, folder, "", err)
	}
}

func detectMimeType(path string) string {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return defaultMimeType
	}
	return mtype.String()
}
