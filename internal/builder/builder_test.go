package builder

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altafino/folder-import/internal/metadata"
	"github.com/altafino/folder-import/internal/models"
	"github.com/altafino/folder-import/internal/storage"
)

var defaultOptions = Options{
	TitleType:           "TitleDocMain",
	PublicationYearType: "PublicationYear",
	DatingType:          "Dating",
	TitlePrefix:         "Protokoll vom ",
	DateSeparator:       ";",
	IgnoreSuffixes:      []string{"Thumbs.db"},
}

var protocolRules = models.RuleSet{
	Prefix:   []models.Rule{{FolderName: "Titelblatt", StructureType: "Cover"}},
	MainType: "Chapter",
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// writeTree creates files below root; keys are slash separated relative paths
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

func newDocument() *metadata.Document {
	doc := &metadata.Document{Logical: &metadata.DocStruct{ID: "LOG_0001", Type: "Akte"}}
	doc.EnsurePhysical()
	return doc
}

type fixture struct {
	doc    *metadata.Document
	master string
	b      *Builder
}

func newFixture(t *testing.T, prefs *metadata.Prefs, master storage.MasterStorage) *fixture {
	t.Helper()
	f := &fixture{doc: newDocument(), master: filepath.Join(t.TempDir(), "master")}
	if master == nil {
		master = storage.NewFileStorage(f.master, storage.ConflictPolicyFail, discardLogger())
	}
	f.b = New(f.doc, prefs, storage.NewLocalProvider(), master, defaultOptions, discardLogger())
	return f
}

func (f *fixture) state() State {
	return State{Logical: f.doc.Logical, Physical: f.doc.Physical, NextPage: 1}
}

func protocolFolder(t *testing.T) string {
	t.Helper()
	folder := filepath.Join(t.TempDir(), "Konsulatsprotokolle 1636-01-21 - 1638-04-17")
	writeTree(t, folder, map[string]string{
		"Titelblatt/img 01.tif":      "cover",
		"1637-03-02;b/00001.tif":     "second",
		"1636-01-21;a/00001.tif":     "first",
		"1636-01-21;a/Thumbs.db":     "thumbs",
		"notes.txt":                  "not a folder",
		"Titelblatt/more/ignore.tif": "nested",
	})
	return folder
}

func metadataValue(t *testing.T, ds *metadata.DocStruct, mdType string) string {
	t.Helper()
	values := ds.MetadataByType(mdType)
	require.Len(t, values, 1, "metadata %s", mdType)
	return values[0].Value
}

func TestBuild_ProtocolScenario(t *testing.T) {
	f := newFixture(t, nil, nil)
	folder := protocolFolder(t)

	report := f.b.Build(context.Background(), folder, protocolRules, f.state())

	assert.Empty(t, report.Failures())
	assert.Equal(t, 3, report.Structures)
	assert.Equal(t, 3, report.Pages)
	assert.Equal(t, 3, report.Copied)
	assert.Equal(t, 4, report.NextPage)

	children := f.doc.Logical.Children
	require.Len(t, children, 3)
	assert.Equal(t, "Cover", children[0].Type)
	assert.Equal(t, "Chapter", children[1].Type)
	assert.Equal(t, "Chapter", children[2].Type)

	assert.Empty(t, children[0].Metadata)
	assert.Equal(t, "Protokoll vom 1636-01-21;a", metadataValue(t, children[1], "TitleDocMain"))
	assert.Equal(t, "1636-01-21", metadataValue(t, children[1], "PublicationYear"))
	assert.Equal(t, "1636-01-21", metadataValue(t, children[1], "Dating"))
	assert.Equal(t, "Protokoll vom 1637-03-02;b", metadataValue(t, children[2], "TitleDocMain"))
	assert.Equal(t, "1637-03-02", metadataValue(t, children[2], "Dating"))

	pages := f.doc.Pages()
	require.Len(t, pages, 3)
	wantFiles := []string{"Titelblatt_img_01.tif", "1636_01_21_a_00001.tif", "1637_03_02_b_00001.tif"}
	for i, p := range pages {
		assert.Equal(t, i+1, p.Page.PhysicalNumber)
		assert.Empty(t, p.Page.LogicalNumber)
		assert.Equal(t, wantFiles[i], p.Page.ContentFile)
		assert.NotEmpty(t, p.Page.MimeType)

		assert.Contains(t, f.doc.Logical.References, p.ID)
		assert.Contains(t, children[i].References, p.ID)
		assert.ElementsMatch(t, []string{f.doc.Logical.ID, children[i].ID}, p.ReferencedBy)
		assert.FileExists(t, filepath.Join(f.master, wantFiles[i]))
	}

	assert.NoFileExists(t, filepath.Join(f.master, "1636_01_21_a_Thumbs.db"))
	entries, err := os.ReadDir(f.master)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestBuild_PageNumbersContinueFromState(t *testing.T) {
	f := newFixture(t, nil, nil)
	state := f.state()
	state.NextPage = 10

	report := f.b.Build(context.Background(), protocolFolder(t), protocolRules, state)

	assert.Equal(t, 13, report.NextPage)
	pages := f.doc.Pages()
	require.Len(t, pages, 3)
	assert.Equal(t, 10, pages[0].Page.PhysicalNumber)
	assert.Equal(t, 12, pages[2].Page.PhysicalNumber)
}

func TestBuild_SkipsThumbsDb(t *testing.T) {
	f := newFixture(t, nil, nil)
	folder := t.TempDir()
	writeTree(t, folder, map[string]string{
		"a/Thumbs.db": "x",
		"a/1.tif":     "1",
	})

	report := f.b.Build(context.Background(), folder, models.RuleSet{MainType: "Chapter"}, f.state())

	assert.Equal(t, 1, report.Pages)
	var skipped []models.UnitResult
	for _, u := range report.Units {
		if u.Status == models.UnitStatusSkipped && u.Kind == models.UnitKindImage {
			skipped = append(skipped, u)
		}
	}
	require.Len(t, skipped, 1)
	assert.Equal(t, "a_Thumbs.db", skipped[0].File)
}

func TestBuild_RerunYieldsDestinationConflict(t *testing.T) {
	folder := protocolFolder(t)
	master := filepath.Join(t.TempDir(), "master")
	ms := storage.NewFileStorage(master, storage.ConflictPolicyFail, discardLogger())

	first := newFixture(t, nil, ms)
	report := first.b.Build(context.Background(), folder, protocolRules, first.state())
	require.Empty(t, report.Failures())

	second := newFixture(t, nil, ms)
	report = second.b.Build(context.Background(), folder, protocolRules, second.state())

	failures := report.Failures()
	require.Len(t, failures, 3)
	for _, u := range failures {
		assert.Equal(t, models.UnitKindCopy, u.Kind)
		assert.ErrorIs(t, u.Err, storage.ErrDestinationConflict)
	}
	// pages are still created, there is no rollback
	assert.Equal(t, 3, report.Pages)
	assert.Zero(t, report.Copied)
}

func TestBuild_OverwritePolicy(t *testing.T) {
	folder := protocolFolder(t)
	master := filepath.Join(t.TempDir(), "master")
	ms := storage.NewFileStorage(master, storage.ConflictPolicyOverwrite, discardLogger())

	for i := 0; i < 2; i++ {
		f := newFixture(t, nil, ms)
		report := f.b.Build(context.Background(), folder, protocolRules, f.state())
		assert.Empty(t, report.Failures())
		assert.Equal(t, 3, report.Copied)
	}
}

func TestBuild_MissingDatingTypeIsTolerated(t *testing.T) {
	prefs := &metadata.Prefs{
		DocStructTypes: []metadata.DocStructType{{Name: "Akte"}, {Name: "Cover"}, {Name: "Chapter"}},
		MetadataTypes:  []string{"TitleDocMain"},
	}
	f := newFixture(t, prefs, nil)

	report := f.b.Build(context.Background(), protocolFolder(t), protocolRules, f.state())

	assert.Empty(t, report.Failures())
	chapter := f.doc.Logical.Children[1]
	assert.Equal(t, "Protokoll vom 1636-01-21;a", metadataValue(t, chapter, "TitleDocMain"))
	assert.Empty(t, chapter.MetadataByType("Dating"))
	assert.Empty(t, chapter.MetadataByType("PublicationYear"))
}

func TestBuild_DisallowedMetadataIsRecordedOncePerFolder(t *testing.T) {
	prefs := &metadata.Prefs{
		DocStructTypes: []metadata.DocStructType{
			{Name: "Akte"},
			{Name: "Chapter", AllowedMetadata: []string{"TitleDocMain"}},
		},
	}
	f := newFixture(t, prefs, nil)
	folder := filepath.Join(t.TempDir(), "Konsulatsprotokolle 1636-01-21 - 1638-04-17")
	writeTree(t, folder, map[string]string{
		"1636-01-21;a/00001.tif": "1",
		"1636-01-21;a/00002.tif": "2",
		"1636-01-21;a/00003.tif": "3",
		"1637-03-02;b/00001.tif": "4",
		"1637-03-02;b/00002.tif": "5",
	})

	report := f.b.Build(context.Background(), folder, protocolRules, f.state())

	assert.Equal(t, 5, report.Copied, "metadata failures do not stop the run")
	failures := report.Failures()
	// PublicationYear and Dating, once for each of the two folders
	require.Len(t, failures, 4)
	for _, u := range failures {
		assert.Equal(t, models.UnitKindMetadata, u.Kind)
		assert.ErrorIs(t, u.Err, metadata.ErrMetadataNotAllowed)
	}
	assert.Equal(t, "Protokoll vom 1636-01-21;a", metadataValue(t, f.doc.Logical.Children[0], "TitleDocMain"))
}

func TestBuild_UnknownStructureTypeSkipsFolder(t *testing.T) {
	prefs := &metadata.Prefs{
		DocStructTypes: []metadata.DocStructType{{Name: "Akte"}, {Name: "Chapter"}},
	}
	f := newFixture(t, prefs, nil)

	report := f.b.Build(context.Background(), protocolFolder(t), protocolRules, f.state())

	failures := report.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, "Titelblatt", failures[0].Folder)
	assert.ErrorIs(t, failures[0].Err, ErrStructureCreationFailed)

	assert.Equal(t, 2, report.Structures)
	pages := f.doc.Pages()
	require.Len(t, pages, 2)
	assert.Equal(t, 1, pages[0].Page.PhysicalNumber)
	assert.Equal(t, "1636_01_21_a_00001.tif", pages[0].Page.ContentFile)
}

type failingStorage struct {
	storage.MasterStorage
	failName string
}

func (s failingStorage) Put(ctx context.Context, sourcePath, name string) (string, error) {
	if name == s.failName {
		return "", errors.New("disk full")
	}
	return s.MasterStorage.Put(ctx, sourcePath, name)
}

func TestBuild_CopyFailureContinues(t *testing.T) {
	master := filepath.Join(t.TempDir(), "master")
	ms := failingStorage{
		MasterStorage: storage.NewFileStorage(master, storage.ConflictPolicyFail, discardLogger()),
		failName:      "1636_01_21_a_00001.tif",
	}
	f := newFixture(t, nil, ms)

	report := f.b.Build(context.Background(), protocolFolder(t), protocolRules, f.state())

	failures := report.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, models.UnitKindCopy, failures[0].Kind)
	assert.Equal(t, 2, report.Copied)
	assert.Equal(t, 3, report.Pages)
	assert.FileExists(t, filepath.Join(master, "1637_03_02_b_00001.tif"))
}

func TestBuild_MissingFolder(t *testing.T) {
	f := newFixture(t, nil, nil)

	report := f.b.Build(context.Background(), filepath.Join(t.TempDir(), "missing"), protocolRules, f.state())

	require.Len(t, report.Failures(), 1)
	assert.Equal(t, 1, report.NextPage)
	assert.Empty(t, f.doc.Logical.Children)
}

func TestBuild_EmptyMainFolderGetsNoMetadata(t *testing.T) {
	f := newFixture(t, nil, nil)
	folder := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(folder, "1636-01-21"), 0755))

	report := f.b.Build(context.Background(), folder, protocolRules, f.state())

	assert.Equal(t, 1, report.Structures)
	assert.Zero(t, report.Pages)
	assert.Empty(t, f.doc.Logical.Children[0].Metadata)
}

func TestBuild_BlankDateSkipsDateMetadata(t *testing.T) {
	f := newFixture(t, nil, nil)
	folder := t.TempDir()
	writeTree(t, folder, map[string]string{" ;x/1.tif": "1"})

	f.b.Build(context.Background(), folder, protocolRules, f.state())

	chapter := f.doc.Logical.Children[0]
	assert.Equal(t, "Protokoll vom  ;x", metadataValue(t, chapter, "TitleDocMain"))
	assert.Empty(t, chapter.MetadataByType("Dating"))
}
