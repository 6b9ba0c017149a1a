// Package locks guards sessions against concurrent runs with advisory
// flock locks. Two processes resuming the same session would race on the
// session file; the lock makes the second one fail fast instead.
package locks

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"
)

// Manager hands out per-session run locks under a lock directory.
type Manager struct {
	lockDir string
	held    map[string]*os.File // sessionID -> open lock handle
	mu      sync.Mutex
}

// NewManager creates a lock Manager rooted at lockDir.
func NewManager(lockDir string) *Manager {
	return &Manager{
		lockDir: lockDir,
		held:    make(map[string]*os.File),
	}
}

func (m *Manager) lockFilePath(sessionID string) string {
	return filepath.Join(m.lockDir, sessionID+".lock")
}

// Acquire takes the exclusive run lock for a session. Non-blocking: if
// another process holds it, Acquire fails immediately.
func (m *Manager) Acquire(sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.held[sessionID]; ok {
		return fmt.Errorf("session %s already locked by this process", sessionID)
	}
	if err := os.MkdirAll(m.lockDir, 0o755); err != nil {
		return fmt.Errorf("create lock dir: %w", err)
	}

	lockPath := m.lockFilePath(sessionID)
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("open lock file %s: %w", lockPath, err)
	}

	// Non-blocking exclusive lock
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		f.Close()
		return fmt.Errorf("session %s is in use by another run: %w", sessionID, err)
	}

	// Write lock metadata
	f.Truncate(0)
	f.Seek(0, 0)
	fmt.Fprintf(f, "%d %s\n", os.Getpid(), time.Now().Format(time.RFC3339))

	m.held[sessionID] = f
	return nil
}

// Release drops the run lock for a session.
func (m *Manager) Release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, ok := m.held[sessionID]
	if !ok {
		return
	}
	syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
	f.Close()
	os.Remove(m.lockFilePath(sessionID))
	delete(m.held, sessionID)
}

// CleanStale removes lock files left behind by crashed runs. A lock file
// that can be flocked has no living holder.
func (m *Manager) CleanStale() error {
	entries, err := os.ReadDir(m.lockDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read lock dir: %w", err)
	}

	for _, entry := range entries {
		if !strings.HasSuffix(entry.Name(), ".lock") {
			continue
		}
		lockPath := filepath.Join(m.lockDir, entry.Name())

		f, err := os.OpenFile(lockPath, os.O_RDWR, 0o644)
		if err != nil {
			continue
		}
		if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err == nil {
			// Lock acquired -> no living holder, remove it
			syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
			f.Close()
			os.Remove(lockPath)
		} else {
			f.Close()
		}
	}
	return nil
}
