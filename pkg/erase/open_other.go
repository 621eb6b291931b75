//go:build !unix

package erase

import (
	"os"

	"github.com/CodeMonkeyCybersecurity/wipe/pkg/wipe_err"
)

// OpenLocked opens path read-write. Advisory locking is unavailable here.
func OpenLocked(path string) (File, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, wipe_err.NotFound(path, err)
		}
		return nil, wipe_err.IoFailure(err, "open %s", path)
	}
	return f, nil
}
