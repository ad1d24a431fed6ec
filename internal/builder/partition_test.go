package builder

import (
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/altafino/folder-import/internal/models"
)

func folders(as []models.Assignment) []string {
	out := make([]string, 0, len(as))
	for _, a := range as {
		out = append(out, a.Folder)
	}
	return out
}

func TestPartition(t *testing.T) {
	rules := models.RuleSet{
		Prefix: []models.Rule{
			{FolderName: "Vorderdeckel", StructureType: "Cover"},
			{FolderName: "Titelblatt", StructureType: "TitlePage"},
		},
		Suffix: []models.Rule{
			{FolderName: "Rueckdeckel", StructureType: "BackCover"},
			{FolderName: "Farbkeil", StructureType: "ColorChart"},
		},
		MainType: "Chapter",
	}
	entries := []string{"farbkeil", "1637-03-02;b", "TITELBLATT", "Rueckdeckel", "1636-01-21;a", "Vorderdeckel"}

	p := Partition(entries, rules)

	assert.Equal(t, []string{"Vorderdeckel", "TITELBLATT"}, folders(p.Prefix))
	assert.Equal(t, "TitlePage", p.Prefix[1].StructureType)
	assert.Equal(t, []string{"1636-01-21;a", "1637-03-02;b"}, folders(p.Main))
	assert.Equal(t, []string{"Rueckdeckel", "farbkeil"}, folders(p.Suffix))
	assert.Equal(t, "ColorChart", p.Suffix[1].StructureType)

	for _, a := range p.Main {
		assert.Equal(t, "Chapter", a.StructureType)
		assert.True(t, a.CreateMetadata)
	}
	for _, a := range append(p.Prefix, p.Suffix...) {
		assert.False(t, a.CreateMetadata)
	}
}

func TestPartition_CompleteDisjointCover(t *testing.T) {
	rules := models.RuleSet{
		Prefix:   []models.Rule{{FolderName: "a", StructureType: "P"}, {FolderName: "A", StructureType: "P2"}},
		Suffix:   []models.Rule{{FolderName: "a", StructureType: "S"}, {FolderName: "z", StructureType: "S"}},
		MainType: "M",
	}
	entries := []string{"z", "b", "A", "c", "a", "Z"}

	p := Partition(entries, rules)

	assert.Equal(t, len(entries), p.Len())
	got := folders(p.Ordered())
	sort.Strings(got)
	want := append([]string(nil), entries...)
	sort.Strings(want)
	assert.Equal(t, want, got, "every entry appears exactly once")

	// both spellings of "a" go to the first prefix rule, prefix beats suffix
	assert.Equal(t, []string{"A", "a"}, folders(p.Prefix))
	for _, a := range p.Prefix {
		assert.Equal(t, "P", a.StructureType)
	}
	assert.Equal(t, []string{"z", "Z"}, folders(p.Suffix))
}

func TestPartition_MainIsByteOrderSorted(t *testing.T) {
	p := Partition([]string{"b", "B", "a", "_x", "10", "9"}, models.RuleSet{MainType: "M"})
	assert.Equal(t, []string{"10", "9", "B", "_x", "a", "b"}, folders(p.Main))
	assert.Empty(t, p.Prefix)
	assert.Empty(t, p.Suffix)
}

func TestPartition_Empty(t *testing.T) {
	p := Partition(nil, models.RuleSet{MainType: "M"})
	assert.Zero(t, p.Len())
}

func TestDestinationName(t *testing.T) {
	assert.Equal(t, "Titelblatt_img_01.tif", DestinationName("Titelblatt", "img 01.tif"))
	assert.Equal(t, "1636_01_21_a_00001.jpg", DestinationName("1636-01-21;a", "00001.jpg"))
	assert.Equal(t, "x_Thumbs.db", DestinationName("x", "Thumbs.db"))
}

func TestNewImageAsset(t *testing.T) {
	asset := NewImageAsset("1636-01-21;a", filepath.Join("import", "1636-01-21;a", "img 1.tif"))
	assert.Equal(t, filepath.Join("import", "1636-01-21;a", "img 1.tif"), asset.SourcePath)
	assert.Equal(t, "1636_01_21_a_img_1.tif", asset.DestinationName)
}
