package app

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altafino/folder-import/internal/config"
	"github.com/altafino/folder-import/internal/metadata"
	"github.com/altafino/folder-import/internal/process"
	"github.com/altafino/folder-import/internal/types"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunOnce(t *testing.T) {
	base := t.TempDir()

	cfg := &types.Config{}
	cfg.Meta.ID = "protocols"
	cfg.Meta.Enabled = true
	cfg.Import.ImageFolder = filepath.Join(base, "import")
	cfg.Import.MainType = "Chapter"
	cfg.Process.MetadataRoot = filepath.Join(base, "metadata")
	config.ApplyDefaults(cfg)

	img := filepath.Join(cfg.Import.ImageFolder, "Akte 12", "1636-01-21", "1.tif")
	require.NoError(t, os.MkdirAll(filepath.Dir(img), 0755))
	require.NoError(t, os.WriteFile(img, []byte("1"), 0644))

	require.NoError(t, os.MkdirAll(filepath.Join(cfg.Process.MetadataRoot, "5"), 0755))
	proc, err := process.Open(cfg, "5")
	require.NoError(t, err)
	require.NoError(t, proc.WriteMetadataFile(&metadata.Document{Logical: &metadata.DocStruct{
		ID:       "LOG_0001",
		Type:     "Akte",
		Metadata: []metadata.Metadata{{Type: "TitleDocMain", Value: "Akte 12 - Stadtarchiv"}},
	}}))

	disabled := &types.Config{}
	disabled.Meta.ID = "disabled"
	disabled.Process.MetadataRoot = filepath.Join(base, "missing")

	require.NoError(t, RunOnce(context.Background(), []*types.Config{cfg, disabled}, discardLogger()))
	assert.FileExists(t, filepath.Join(proc.MasterImagesDirectory(), "1636_01_21_1.tif"))
}

func TestRunOnce_UsesProfileLogging(t *testing.T) {
	base := t.TempDir()

	cfg := &types.Config{}
	cfg.Meta.ID = "protocols"
	cfg.Meta.Enabled = true
	cfg.Import.ImageFolder = filepath.Join(base, "import")
	cfg.Process.MetadataRoot = filepath.Join(base, "metadata")
	cfg.Logging.Output = "file"
	cfg.Logging.Format = "json"
	cfg.Logging.FilePath = filepath.Join(base, "logs", "protocols.log")
	config.ApplyDefaults(cfg)
	require.NoError(t, os.MkdirAll(cfg.Process.MetadataRoot, 0755))

	require.NoError(t, RunOnce(context.Background(), []*types.Config{cfg}, discardLogger()))

	data, err := os.ReadFile(cfg.Logging.FilePath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"config_id":"protocols"`)
}

func TestRunOnce_ReportsFailingConfig(t *testing.T) {
	cfg := &types.Config{}
	cfg.Meta.ID = "broken"
	cfg.Meta.Enabled = true
	cfg.Process.MetadataRoot = filepath.Join(t.TempDir(), "missing")
	config.ApplyDefaults(cfg)

	assert.Error(t, RunOnce(context.Background(), []*types.Config{cfg}, discardLogger()))
}

func TestNew_UnknownConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, config.LoadConfigs(dir))

	_, err := New(discardLogger(), dir, "missing")
	assert.Error(t, err)
}
