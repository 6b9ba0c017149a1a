// Package workspace prepares the on-disk layout a run writes into.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

// MinDiskSpaceMB is the minimum free disk space required before starting a
// run. Session files are small, but media collaborators write their output
// under the workspace too.
const MinDiskSpaceMB = 200

// Layout returns the workspace subdirectories a run uses.
func Layout(root string) (sessions, locks, mediaOut string) {
	return filepath.Join(root, "sessions"),
		filepath.Join(root, "locks"),
		filepath.Join(root, "media")
}

// Ensure creates the workspace directory tree and verifies there is room
// to write into it.
func Ensure(root string) error {
	sessions, locks, mediaOut := Layout(root)
	for _, dir := range []string{sessions, locks, mediaOut} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create workspace dir %s: %w", dir, err)
		}
	}
	return CheckDiskSpace(root, MinDiskSpaceMB)
}

// CheckDiskSpace checks if the given path has at least minMB megabytes of
// free space.
func CheckDiskSpace(path string, minMB int) error {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return fmt.Errorf("statfs %s: %w", path, err)
	}

	availableBytes := stat.Bavail * uint64(stat.Bsize)
	availableMB := availableBytes / (1024 * 1024)

	if int(availableMB) < minMB {
		return fmt.Errorf("insufficient disk space: %d MB available, %d MB required at %s",
			availableMB, minMB, path)
	}
	return nil
}
