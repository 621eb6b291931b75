// pkg/verify/verify.go

// Package verify holds post-erasure checks.
package verify

import (
	"fmt"
	"os"
)

// TargetAbsent reports whether path no longer names any directory entry.
// Lstat is used so a dangling symlink left behind still counts as present.
func TargetAbsent(path string) (bool, error) {
	_, err := os.Lstat(path)
	switch {
	case err == nil:
		return false, nil
	case os.IsNotExist(err):
		return true, nil
	default:
		return false, fmt.Errorf("post-erasure check on %s: %w", path, err)
	}
}

// RegularFile reports whether path itself is an existing regular file.
// Symlinks are not followed and report false.
func RegularFile(path string) (os.FileInfo, bool, error) {
	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return info, info.Mode().IsRegular(), nil
}
