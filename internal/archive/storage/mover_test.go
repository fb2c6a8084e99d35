package storage

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestMover(t *testing.T) (*Mover, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	return NewMover(fs, "/data/staging", "/data/active", "/data/trash", zap.NewNop()), fs
}

func readFile(t *testing.T, fs afero.Fs, path string) string {
	t.Helper()
	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	return string(data)
}

func TestWriteZones(t *testing.T) {
	m, fs := newTestMover(t)

	staged, err := m.WriteStaging("report.pdf", ".pdf", []byte("staged"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(staged, "/data/staging/"))
	assert.True(t, strings.HasPrefix(filepath.Base(staged), "report_"))
	assert.True(t, strings.HasSuffix(staged, ".pdf"))
	assert.Equal(t, "staged", readFile(t, fs, staged))

	active, err := m.WriteActive("report.pdf", ".pdf", []byte("active"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(active, "/data/active/"))
	assert.Equal(t, "active", readFile(t, fs, active))
}

func TestWriteNamesNeverCollide(t *testing.T) {
	m, _ := newTestMover(t)

	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		path, err := m.WriteActive("report.pdf", ".pdf", []byte("x"))
		require.NoError(t, err)
		assert.False(t, seen[path], "duplicate path %s", path)
		seen[path] = true
	}
}

func TestStageToActive(t *testing.T) {
	m, fs := newTestMover(t)

	staged, err := m.WriteStaging("report.pdf", ".pdf", []byte("payload"))
	require.NoError(t, err)

	active, err := m.StageToActive(staged, "report.pdf", ".pdf")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(active, "/data/active/"))
	assert.Equal(t, "payload", readFile(t, fs, active))

	gone, err := afero.Exists(fs, staged)
	require.NoError(t, err)
	assert.False(t, gone, "staged copy is removed after promotion")
}

func TestActiveToTrashUsesDatedFolder(t *testing.T) {
	m, fs := newTestMover(t)

	active, err := m.WriteActive("report.pdf", ".pdf", []byte("payload"))
	require.NoError(t, err)

	deletedAt := time.Date(2025, 6, 15, 9, 30, 0, 0, time.UTC)
	trashed, err := m.ActiveToTrash(active, deletedAt)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(trashed, "/data/trash/2025-06-15/"))
	assert.Equal(t, "payload", readFile(t, fs, trashed))

	gone, err := afero.Exists(fs, active)
	require.NoError(t, err)
	assert.False(t, gone)
}

func TestTrashToActiveRestoresOriginalPath(t *testing.T) {
	m, fs := newTestMover(t)

	active, err := m.WriteActive("report.pdf", ".pdf", []byte("payload"))
	require.NoError(t, err)
	trashed, err := m.ActiveToTrash(active, time.Now())
	require.NoError(t, err)

	restored, err := m.TrashToActive(trashed, active)
	require.NoError(t, err)
	assert.Equal(t, active, restored)
	assert.Equal(t, "payload", readFile(t, fs, restored))
}

func TestTrashToActiveOccupiedOriginalGetsSuffix(t *testing.T) {
	m, fs := newTestMover(t)

	active, err := m.WriteActive("report.pdf", ".pdf", []byte("old"))
	require.NoError(t, err)
	trashed, err := m.ActiveToTrash(active, time.Now())
	require.NoError(t, err)

	// a newer file took the original path in the meantime
	require.NoError(t, afero.WriteFile(fs, active, []byte("newer"), 0644))

	restored, err := m.TrashToActive(trashed, active)
	require.NoError(t, err)
	assert.NotEqual(t, active, restored)
	assert.Contains(t, filepath.Base(restored), "_restored_")
	assert.Equal(t, filepath.Dir(active), filepath.Dir(restored))
	assert.Equal(t, "old", readFile(t, fs, restored))
	assert.Equal(t, "newer", readFile(t, fs, active), "the occupant is untouched")
}

func TestTrashToActiveFallsBackWithoutOriginal(t *testing.T) {
	m, fs := newTestMover(t)

	trashed := "/data/trash/2025-06-15/orphan_1.pdf"
	require.NoError(t, fs.MkdirAll(filepath.Dir(trashed), 0755))
	require.NoError(t, afero.WriteFile(fs, trashed, []byte("payload"), 0644))

	restored, err := m.TrashToActive(trashed, "")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(restored, "/data/active/"))
	assert.Equal(t, "payload", readFile(t, fs, restored))
}

func TestMoveToleratesMissingSource(t *testing.T) {
	m, fs := newTestMover(t)

	dest, err := m.StageToActive("/data/staging/never_existed.pdf", "never.pdf", ".pdf")
	require.NoError(t, err, "a missing source must not fail the record transition")
	assert.True(t, strings.HasPrefix(dest, "/data/active/"))

	exists, err := afero.Exists(fs, dest)
	require.NoError(t, err)
	assert.False(t, exists, "no bytes appear out of thin air")
}

func TestPurgeFromTrash(t *testing.T) {
	m, fs := newTestMover(t)

	active, err := m.WriteActive("report.pdf", ".pdf", []byte("payload"))
	require.NoError(t, err)
	trashed, err := m.ActiveToTrash(active, time.Now())
	require.NoError(t, err)

	require.NoError(t, m.PurgeFromTrash(trashed))
	exists, err := afero.Exists(fs, trashed)
	require.NoError(t, err)
	assert.False(t, exists)

	// purging again is tolerated
	assert.NoError(t, m.PurgeFromTrash(trashed))
}

func TestRemove(t *testing.T) {
	m, fs := newTestMover(t)

	staged, err := m.WriteStaging("report.pdf", ".pdf", []byte("payload"))
	require.NoError(t, err)

	require.NoError(t, m.Remove(staged))
	exists, err := afero.Exists(fs, staged)
	require.NoError(t, err)
	assert.False(t, exists)

	assert.NoError(t, m.Remove(staged), "removing a missing file is a no-op")
	assert.NoError(t, m.Remove(""), "an empty path is a no-op")
}
