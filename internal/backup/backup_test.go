package backup

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t0 time.Time) func() time.Time {
	current := t0
	return func() time.Time {
		current = current.Add(time.Second)
		return current
	}
}

func TestBackup(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "mcp.json")
	require.NoError(t, os.WriteFile(src, []byte(`{"mcpServers":{}}`), 0o644))

	m := NewManager(
		WithDir(filepath.Join(dir, "backups")),
		WithClock(fixedClock(time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC))),
	)

	dst, err := m.Backup("cursor", src)
	require.NoError(t, err)
	assert.Equal(t, "cursor-2026-08-30T10-00-01.json", filepath.Base(dst))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, `{"mcpServers":{}}`, string(data))
}

func TestBackup_MissingSourceIsNoop(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	m := NewManager(WithDir(filepath.Join(dir, "backups")))

	dst, err := m.Backup("cursor", filepath.Join(dir, "absent.json"))
	require.NoError(t, err)
	assert.Empty(t, dst)
}

func TestBackup_RequiresOwner(t *testing.T) {
	t.Parallel()

	m := NewManager(WithDir(t.TempDir()))
	_, err := m.Backup("", "whatever")
	assert.Error(t, err)
}

func TestList_OwnerPrefixIsExact(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "settings.json")
	require.NoError(t, os.WriteFile(src, []byte("{}"), 0o644))

	m := NewManager(
		WithDir(filepath.Join(dir, "backups")),
		WithClock(fixedClock(time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC))),
	)

	_, err := m.Backup("zed", src)
	require.NoError(t, err)
	_, err = m.Backup("zed-lite", src)
	require.NoError(t, err)

	zed, err := m.List("zed")
	require.NoError(t, err)
	assert.Len(t, zed, 1)
}

func TestPrune_Retention(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "mcp.json")
	require.NoError(t, os.WriteFile(src, []byte("{}"), 0o644))

	m := NewManager(
		WithDir(filepath.Join(dir, "backups")),
		WithRetentionCount(2),
		WithClock(fixedClock(time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC))),
	)

	for range 5 {
		_, err := m.Backup("cursor", src)
		require.NoError(t, err)
	}

	files, err := m.List("cursor")
	require.NoError(t, err)
	require.Len(t, files, 2)

	// Newest first; the survivors are the last two stamps.
	assert.Contains(t, filepath.Base(files[0]), "10-00-05")
	assert.Contains(t, filepath.Base(files[1]), "10-00-04")
}

func TestList_NoBackupDir(t *testing.T) {
	t.Parallel()

	m := NewManager(WithDir(filepath.Join(t.TempDir(), "never-created")))
	files, err := m.List("cursor")
	require.NoError(t, err)
	assert.Empty(t, files)
}
