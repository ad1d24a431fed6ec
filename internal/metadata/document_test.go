package metadata

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPrefs() *Prefs {
	return &Prefs{
		DocStructTypes: []DocStructType{
			{Name: "Periodical", Anchor: true},
			{Name: "PeriodicalVolume"},
			{Name: "Cover"},
			{Name: "Chapter", AllowedMetadata: []string{"TitleDocMain", "PublicationYear", "Dating"}},
		},
		MetadataTypes: []string{"TitleDocMain", "PublicationYear", "Dating", "CatalogIDDigital"},
	}
}

func TestCreateDocStruct(t *testing.T) {
	doc := &Document{Logical: &DocStruct{ID: "LOG_0001", Type: "PeriodicalVolume"}}
	prefs := testPrefs()

	chapter, err := doc.CreateDocStruct(prefs, "Chapter")
	require.NoError(t, err)
	assert.Equal(t, "LOG_0002", chapter.ID)
	assert.Equal(t, "Chapter", chapter.Type)

	doc.Logical.AddChild(chapter)
	next, err := doc.CreateDocStruct(prefs, "Cover")
	require.NoError(t, err)
	assert.Equal(t, "LOG_0003", next.ID)

	page, err := doc.CreateDocStruct(prefs, PageType)
	require.NoError(t, err)
	assert.Equal(t, "PHYS_0001", page.ID)

	_, err = doc.CreateDocStruct(prefs, "Letter")
	assert.ErrorIs(t, err, ErrUnknownStructType)
}

func TestCreateDocStruct_ContinuesAfterLoadedIDs(t *testing.T) {
	doc := &Document{
		Logical: &DocStruct{ID: "LOG_0001", Type: "Monograph", Children: []*DocStruct{
			{ID: "LOG_0007", Type: "Chapter"},
		}},
		Physical: &DocStruct{ID: "PHYS_0000", Type: DefaultPhysicalType, Children: []*DocStruct{
			{ID: "PHYS_0012", Type: PageType},
			{ID: "custom", Type: PageType},
		}},
	}

	ds, err := doc.CreateDocStruct(nil, "Chapter")
	require.NoError(t, err)
	assert.Equal(t, "LOG_0008", ds.ID)

	page, err := doc.CreateDocStruct(nil, PageType)
	require.NoError(t, err)
	assert.Equal(t, "PHYS_0013", page.ID)
}

func TestCreateDocStruct_ManyPages(t *testing.T) {
	doc := &Document{Logical: &DocStruct{ID: "LOG_0001", Type: "Monograph"}}
	phys := doc.EnsurePhysical()

	const n = 5000
	start := time.Now()
	seen := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		page, err := doc.CreateDocStruct(nil, PageType)
		require.NoError(t, err)
		require.False(t, seen[page.ID], "duplicate id %s", page.ID)
		seen[page.ID] = true
		phys.AddChild(page)
	}

	assert.Equal(t, "PHYS_5001", phys.Children[n-1].ID)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestCreateDocStruct_PermissivePrefs(t *testing.T) {
	doc := &Document{Logical: &DocStruct{ID: "LOG_0001", Type: "Monograph"}}

	ds, err := doc.CreateDocStruct(&Prefs{}, "Anything")
	require.NoError(t, err)
	assert.Equal(t, "Anything", ds.Type)
}

func TestEnsurePhysical(t *testing.T) {
	doc := &Document{Logical: &DocStruct{ID: "LOG_0001", Type: "Monograph"}}

	phys := doc.EnsurePhysical()
	assert.Equal(t, DefaultPhysicalType, phys.Type)
	assert.Equal(t, "PHYS_0001", phys.ID)
	assert.Same(t, phys, doc.EnsurePhysical())
}

func TestAddReference(t *testing.T) {
	doc := &Document{Logical: &DocStruct{ID: "LOG_0001", Type: "Monograph"}}
	page := &DocStruct{ID: "PHYS_0002", Type: PageType}

	doc.AddReference(doc.Logical, page)
	doc.AddReference(doc.Logical, page)

	assert.Equal(t, []string{"PHYS_0002"}, doc.Logical.References)
	assert.Equal(t, []string{"LOG_0001"}, page.ReferencedBy)
}

func TestSetMetadata(t *testing.T) {
	prefs := testPrefs()
	chapter := &DocStruct{ID: "LOG_0002", Type: "Chapter"}

	require.NoError(t, chapter.SetMetadata(prefs, "TitleDocMain", "first"))
	require.NoError(t, chapter.SetMetadata(prefs, "TitleDocMain", "second"))

	titles := chapter.MetadataByType("TitleDocMain")
	require.Len(t, titles, 1)
	assert.Equal(t, "second", titles[0].Value)

	err := chapter.SetMetadata(prefs, "Shelfmark", "x")
	assert.ErrorIs(t, err, ErrUnknownMetadataType)

	err = chapter.SetMetadata(prefs, "CatalogIDDigital", "x")
	assert.ErrorIs(t, err, ErrMetadataNotAllowed)
}

func TestPrefs_Anchor(t *testing.T) {
	prefs := testPrefs()
	assert.True(t, prefs.IsAnchor("Periodical"))
	assert.False(t, prefs.IsAnchor("PeriodicalVolume"))
	assert.False(t, prefs.IsAnchor("Unknown"))
}

func TestLoadPrefs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ruleset.yaml")
	content := `
doc_struct_types:
  - name: Periodical
    anchor: true
  - name: Chapter
metadata_types: [TitleDocMain, Dating]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	prefs, err := LoadPrefs(path)
	require.NoError(t, err)
	assert.True(t, prefs.IsAnchor("Periodical"))
	assert.True(t, prefs.HasDocStructType("Chapter"))
	assert.False(t, prefs.HasMetadataType("PublicationYear"))
}

func TestWriteFileThenReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meta.yaml")
	doc := &Document{Logical: &DocStruct{
		ID:       "LOG_0001",
		Type:     "Monograph",
		Metadata: []Metadata{{Type: "TitleDocMain", Value: "Konsulatsprotokolle 1636 - 1638"}},
	}}
	page := &DocStruct{ID: "PHYS_0002", Type: PageType, Page: &Page{PhysicalNumber: 1, ContentFile: "a.tif"}}
	doc.EnsurePhysical().AddChild(page)
	doc.AddReference(doc.Logical, page)

	require.NoError(t, WriteFile(path, doc))

	read, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, doc.Logical.Metadata, read.Logical.Metadata)
	require.Len(t, read.Pages(), 1)
	assert.Equal(t, 1, read.Pages()[0].Page.PhysicalNumber)
	assert.Empty(t, read.Pages()[0].Page.LogicalNumber)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file must be gone")
}

func TestReadFile_NoLogical(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meta.yaml")
	require.NoError(t, os.WriteFile(path, []byte("physical:\n  id: PHYS_0001\n  type: BoundBook\n"), 0644))

	_, err := ReadFile(path)
	assert.ErrorIs(t, err, ErrNoLogicalStructure)
}
