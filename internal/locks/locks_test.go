package locks

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireRelease(t *testing.T) {
	m := NewManager(t.TempDir())

	require.NoError(t, m.Acquire("abc"))
	m.Release("abc")
	require.NoError(t, m.Acquire("abc"), "released lock can be re-acquired")
	m.Release("abc")
}

func TestAcquireTwiceFails(t *testing.T) {
	m := NewManager(t.TempDir())

	require.NoError(t, m.Acquire("abc"))
	err := m.Acquire("abc")
	assert.Error(t, err, "same process cannot double-lock a session")
	m.Release("abc")
}

func TestAcquireConflictAcrossManagers(t *testing.T) {
	dir := t.TempDir()
	a := NewManager(dir)
	b := NewManager(dir)

	require.NoError(t, a.Acquire("abc"))
	assert.Error(t, b.Acquire("abc"), "second holder is rejected while the lock is live")

	a.Release("abc")
	require.NoError(t, b.Acquire("abc"), "lock is free after release")
	b.Release("abc")
}

func TestReleaseUnknownIsNoop(t *testing.T) {
	m := NewManager(t.TempDir())
	m.Release("never-acquired")
}

func TestCleanStaleRemovesOrphanedLocks(t *testing.T) {
	dir := t.TempDir()
	// A lock file with no flock held on it, as a crashed run leaves behind.
	stale := filepath.Join(dir, "dead-session.lock")
	require.NoError(t, os.WriteFile(stale, []byte("99999 2026-01-01T00:00:00Z\n"), 0o644))

	m := NewManager(dir)
	require.NoError(t, m.Acquire("live-session"))

	require.NoError(t, m.CleanStale())

	_, err := os.Stat(stale)
	assert.True(t, os.IsNotExist(err), "stale lock removed")
	_, err = os.Stat(filepath.Join(dir, "live-session.lock"))
	assert.NoError(t, err, "held lock survives cleanup")

	m.Release("live-session")
}

func TestCleanStaleMissingDir(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "nope"))
	assert.NoError(t, m.CleanStale())
}
