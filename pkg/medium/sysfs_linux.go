//go:build linux

package medium

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

// DefaultSysfsRoot is where the kernel exposes block device attributes.
const DefaultSysfsRoot = "/sys"

// SysfsClassifier reads the kernel's rotational flag for the block device
// holding a file.
type SysfsClassifier struct {
	Root string
}

func NewSysfsClassifier(root string) *SysfsClassifier {
	if root == "" {
		root = DefaultSysfsRoot
	}
	return &SysfsClassifier{Root: root}
}

func (s *SysfsClassifier) Classify(ctx context.Context, path string) (Kind, error) {
	if err := ctx.Err(); err != nil {
		return Unknown, err
	}
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return Unknown, &os.PathError{Op: "stat", Path: path, Err: err}
	}
	dev := uint64(st.Dev) //nolint:unconvert
	return s.ClassifyDevice(unix.Major(dev), unix.Minor(dev)), nil
}

// ClassifyDevice looks up major:minor. Partitions have no queue directory of
// their own, so the parent device is consulted next.
func (s *SysfsClassifier) ClassifyDevice(major, minor uint32) Kind {
	devDir := filepath.Join(s.Root, "dev", "block", fmt.Sprintf("%d:%d", major, minor))

	if k, err := readRotational(filepath.Join(devDir, "queue", "rotational")); err == nil {
		return k
	}
	resolved, err := filepath.EvalSymlinks(devDir)
	if err != nil {
		return Unknown
	}
	if k, err := readRotational(filepath.Join(filepath.Dir(resolved), "queue", "rotational")); err == nil {
		return k
	}
	return Unknown
}

func readRotational(path string) (Kind, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Unknown, err
	}
	switch strings.TrimSpace(string(data)) {
	case "1":
		return HDD, nil
	case "0":
		return SSD, nil
	}
	return Unknown, errors.New("unrecognised rotational value")
}

// DeviceID returns st_dev for path.
func DeviceID(path string) (uint64, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return 0, err
	}
	return uint64(st.Dev), nil //nolint:unconvert
}
