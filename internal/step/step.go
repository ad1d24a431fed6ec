// Package step runs the folder import for one process.
package step

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/altafino/folder-import/internal/builder"
	"github.com/altafino/folder-import/internal/metadata"
	"github.com/altafino/folder-import/internal/models"
	"github.com/altafino/folder-import/internal/resolver"
	"github.com/altafino/folder-import/internal/storage"
	"github.com/altafino/folder-import/internal/types"
)

var (
	ErrMetadataUnreadable  = errors.New("metadata not readable")
	ErrNoMainTitle         = errors.New("no main title found")
	ErrMetadataWriteFailed = errors.New("failed to write metadata")
)

// Messages shown to the user for fatal errors
const (
	MessageMetadataUnreadable = "Metadata not readable"
	MessageNoMainTitle        = "No main title found."
	MessageFolderNotFound     = "No folder to import found."
	MessageMetadataNotWritten = "Metadata could not be saved."
	MessageStagingFailed      = "Images could not be staged."
)

// Status is the outcome reported to the workflow
type Status string

const (
	StatusFinish Status = "finish"
	StatusError  Status = "error"
)

// Result is the outcome of one step run
type Result struct {
	Status  Status
	Message string
	Folder  string
	Report  *models.RunReport
}

// MetadataStore reads and persists the metadata document of a process
type MetadataStore interface {
	ReadMetadataFile() (*metadata.Document, error)
	WriteMetadataFile(doc *metadata.Document) error
}

// Step imports the image folder of one process
type Step struct {
	cfg      *types.Config
	store    MetadataStore
	prefs    *metadata.Prefs
	master   storage.MasterStorage
	provider storage.Provider
	resolver *resolver.Resolver
	logger   *slog.Logger
}

// New creates a step. prefs may be nil, which accepts every structure and metadata type.
func New(cfg *types.Config, store MetadataStore, prefs *metadata.Prefs, master storage.MasterStorage, provider storage.Provider, logger *slog.Logger) *Step {
	return &Step{
		cfg:      cfg,
		store:    store,
		prefs:    prefs,
		master:   master,
		provider: provider,
		resolver: resolver.New(provider, logger),
		logger:   logger,
	}
}

// Run executes the import. Fatal errors are returned together with a Result
// carrying StatusError and a user facing message.
func (s *Step) Run(ctx context.Context) (*Result, error) {
	doc, err := s.store.ReadMetadataFile()
	if err != nil {
		s.logger.Error("failed to read metadata", "error", err)
		return fail(MessageMetadataUnreadable, "", nil, fmt.Errorf("%w: %v", ErrMetadataUnreadable, err))
	}

	logical := doc.Logical
	if s.prefs.IsAnchor(logical.Type) {
		logical = logical.FirstChild()
		if logical == nil {
			s.logger.Error("anchor element has no child", "type", doc.Logical.Type)
			return fail(MessageMetadataUnreadable, "", nil, fmt.Errorf("%w: anchor %s has no child", ErrMetadataUnreadable, doc.Logical.Type))
		}
	}
	physical := doc.EnsurePhysical()

	titles := logical.MetadataByType(s.cfg.Metadata.TitleType)
	if len(titles) == 0 {
		s.logger.Error("no main title found", "type", s.cfg.Metadata.TitleType)
		return fail(MessageNoMainTitle, "", nil, fmt.Errorf("%w: %s", ErrNoMainTitle, s.cfg.Metadata.TitleType))
	}
	mainTitle := titles[0].Value

	folder, err := s.resolver.Resolve(s.cfg.Import.ImageFolder, mainTitle)
	if err != nil {
		s.logger.Error("no folder to import found", "root", s.cfg.Import.ImageFolder, "title", mainTitle, "error", err)
		return fail(MessageFolderNotFound, "", nil, err)
	}

	master := s.master
	var staged *storage.StagedStorage
	if s.cfg.Storage.Staging {
		staged, err = storage.NewStagedStorage(s.master, s.stagingDir(), storage.ConflictPolicy(s.cfg.Storage.ConflictPolicy), s.logger)
		if err != nil {
			s.logger.Error("failed to prepare staging", "error", err)
			return fail(MessageStagingFailed, folder, nil, err)
		}
		master = staged
	}

	b := builder.New(doc, s.prefs, s.provider, master, s.builderOptions(), s.logger)
	report := b.Build(ctx, folder, s.cfg.RuleSet(), builder.State{
		Logical:  logical,
		Physical: physical,
		NextPage: nextPage(doc),
	})

	if err := s.store.WriteMetadataFile(doc); err != nil {
		err = fmt.Errorf("%w: %v", ErrMetadataWriteFailed, err)
		s.logger.Error("failed to write metadata", "folder", folder, "error", err)
		report.Fail(models.UnitKindWrite, folder, "", err)

		if staged != nil {
			if derr := staged.Discard(); derr != nil {
				s.logger.Warn("failed to discard staged images", "error", derr)
			}
			return fail(MessageMetadataNotWritten, folder, report, err)
		}
	} else {
		report.OK(models.UnitKindWrite, folder, "")
		if staged != nil {
			s.commit(ctx, staged, folder, report)
		}
	}

	s.logger.Info("folder import finished", "folder", folder, "summary", report.Summary())
	return &Result{Status: StatusFinish, Folder: folder, Report: report}, nil
}

func (s *Step) commit(ctx context.Context, staged *storage.StagedStorage, folder string, report *models.RunReport) {
	failed, err := staged.Commit(ctx)
	for name, ferr := range failed {
		report.Fail(models.UnitKindCommit, folder, name, ferr)
	}
	if err != nil {
		s.logger.Warn("failed to clean up staging", "error", err)
	}
	if len(failed) == 0 {
		report.OK(models.UnitKindCommit, folder, "")
	}
}

func (s *Step) stagingDir() string {
	if s.cfg.Storage.StagingDir != "" {
		return s.cfg.Storage.StagingDir
	}
	return os.TempDir()
}

func (s *Step) builderOptions() builder.Options {
	return builder.Options{
		TitleType:           s.cfg.Metadata.TitleType,
		PublicationYearType: s.cfg.Metadata.PublicationYearType,
		DatingType:          s.cfg.Metadata.DatingType,
		TitlePrefix:         s.cfg.Metadata.TitlePrefix,
		DateSeparator:       s.cfg.Metadata.DateSeparator,
		IgnoreSuffixes:      s.cfg.Import.IgnoreFiles,
	}
}

func fail(message, folder string, report *models.RunReport, err error) (*Result, error) {
	return &Result{Status: StatusError, Message: message, Folder: folder, Report: report}, err
}

// nextPage continues the physical numbering after the highest existing page
func nextPage(doc *metadata.Document) int {
	next := 1
	for _, p := range doc.Pages() {
		if p.Page != nil && p.Page.PhysicalNumber >= next {
			next = p.Page.PhysicalNumber + 1
		}
	}
	return next
}
