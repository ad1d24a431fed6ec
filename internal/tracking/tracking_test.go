package tracking

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altafino/folder-import/internal/types"
)

func newStorages(t *testing.T) map[string]Storage {
	t.Helper()
	out := map[string]Storage{}
	for _, typ := range []string{"file", "sqlite"} {
		s, err := NewStorage(typ, t.TempDir())
		require.NoError(t, err)
		require.NoError(t, s.Initialize())
		t.Cleanup(func() { s.Close() })
		out[typ] = s
	}
	return out
}

func TestStorage_HasRecordOnlyCountsFinished(t *testing.T) {
	for name, s := range newStorages(t) {
		t.Run(name, func(t *testing.T) {
			now := time.Now().UTC()
			require.NoError(t, s.AddRecord(ImportRecord{ID: "a", ConfigID: "c", ProcessID: "1", Status: StatusFailed, StartedAt: now, FinishedAt: now}))

			ok, err := s.HasRecord("c", "1")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, s.AddRecord(ImportRecord{ID: "b", ConfigID: "c", ProcessID: "1", Status: StatusFinished, Images: 3, StartedAt: now, FinishedAt: now}))

			ok, err = s.HasRecord("c", "1")
			require.NoError(t, err)
			assert.True(t, ok)

			ok, err = s.HasRecord("other", "1")
			require.NoError(t, err)
			assert.False(t, ok)

			records, err := s.GetRecords(map[string]string{"process_id": "1", "status": StatusFinished})
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.Equal(t, "b", records[0].ID)
			assert.Equal(t, 3, records[0].Images)

			all, err := s.GetRecords(nil)
			require.NoError(t, err)
			assert.Len(t, all, 2)
		})
	}
}

func TestStorage_CleanupOldRecords(t *testing.T) {
	for name, s := range newStorages(t) {
		t.Run(name, func(t *testing.T) {
			old := time.Now().AddDate(0, 0, -40).UTC()
			recent := time.Now().UTC()
			require.NoError(t, s.AddRecord(ImportRecord{ID: "old", ConfigID: "c", ProcessID: "1", Status: StatusFinished, StartedAt: old, FinishedAt: old}))
			require.NoError(t, s.AddRecord(ImportRecord{ID: "new", ConfigID: "c", ProcessID: "2", Status: StatusFinished, StartedAt: recent, FinishedAt: recent}))

			require.NoError(t, s.CleanupOldRecords(30))

			records, err := s.GetRecords(nil)
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.Equal(t, "new", records[0].ID)
		})
	}
}

func TestNewStorage_Unsupported(t *testing.T) {
	_, err := NewStorage("postgres", t.TempDir())
	assert.ErrorIs(t, err, ErrUnsupportedStorageType)
}

func TestFileStorage_NotInitialized(t *testing.T) {
	s, err := NewFileStorage(t.TempDir())
	require.NoError(t, err)
	assert.ErrorIs(t, s.AddRecord(ImportRecord{}), ErrStorageNotInitialized)
}

func TestManager(t *testing.T) {
	cfg := &types.Config{}
	cfg.Meta.ID = "protocols"
	cfg.Tracking.Enabled = true
	cfg.Tracking.StorageType = "sqlite"
	cfg.Tracking.StoragePath = t.TempDir()
	cfg.Tracking.RetentionDays = 30

	m, err := NewManager(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	defer m.Close()

	require.NoError(t, m.TrackImport(ImportRecord{ProcessID: "7", Status: StatusFinished, StartedAt: time.Now().UTC()}))

	ok, err := m.IsImported("7")
	require.NoError(t, err)
	assert.True(t, ok)

	records, err := m.Records("7")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.NotEmpty(t, records[0].ID)
	assert.Equal(t, "protocols", records[0].ConfigID)
	assert.False(t, records[0].FinishedAt.IsZero())

	require.NoError(t, m.CleanupOldRecords())
}

func TestManager_Disabled(t *testing.T) {
	cfg := &types.Config{}
	m, err := NewManager(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	require.NoError(t, m.TrackImport(ImportRecord{ProcessID: "1", Status: StatusFinished}))
	ok, err := m.IsImported("1")
	require.NoError(t, err)
	assert.False(t, ok)
}
