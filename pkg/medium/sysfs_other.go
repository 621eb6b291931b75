//go:build !linux

package medium

import (
	"context"
	"errors"
)

const DefaultSysfsRoot = "/sys"

// SysfsClassifier has no data source on this platform and reports Unknown.
type SysfsClassifier struct {
	Root string
}

func NewSysfsClassifier(root string) *SysfsClassifier {
	return &SysfsClassifier{Root: root}
}

func (s *SysfsClassifier) Classify(ctx context.Context, path string) (Kind, error) {
	return Unknown, nil
}

func (s *SysfsClassifier) ClassifyDevice(major, minor uint32) Kind { return Unknown }

func DeviceID(path string) (uint64, error) {
	return 0, errors.New("device lookup unsupported on this platform")
}
