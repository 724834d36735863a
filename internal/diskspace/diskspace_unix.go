//go:build !windows

package diskspace

import (
	"syscall"
)

// available returns the bytes a non-root user can still write to the
// filesystem holding dir.
func available(dir string) (int64, bool) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(dir, &stat); err != nil {
		return 0, false
	}
	return int64(stat.Bavail) * int64(stat.Bsize), true
}
