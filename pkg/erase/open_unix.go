//go:build unix

package erase

import (
	"errors"
	"os"

	"github.com/CodeMonkeyCybersecurity/wipe/pkg/fileops"
	"github.com/CodeMonkeyCybersecurity/wipe/pkg/wipe_err"
	"golang.org/x/sys/unix"
)

// OpenLocked opens path read-write without following a final symlink and
// takes a non-blocking exclusive flock. A conflicting holder yields a Busy
// error.
func OpenLocked(path string) (File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|unix.O_NOFOLLOW, 0)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, wipe_err.NotFound(path, err)
		}
		if errors.Is(err, unix.ELOOP) {
			return nil, wipe_err.NotFound(path, errNotRegular)
		}
		return nil, wipe_err.IoFailure(err, "open %s", path)
	}
	if err := fileops.TryLock(f); err != nil {
		_ = f.Close()
		if errors.Is(err, fileops.ErrLocked) {
			return nil, wipe_err.Busy(path, err)
		}
		return nil, wipe_err.IoFailure(err, "lock %s", path)
	}
	return f, nil
}
