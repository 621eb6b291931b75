//go:build !unix

package fileops

import (
	"context"
	"errors"
	"os"
)

var ErrLocked = errors.New("resource is locked by another process")

// TryLock is a no-op where advisory locks are unavailable.
func TryLock(f *os.File) error { return nil }

func Unlock(f *os.File) error { return nil }

type LockFile struct {
	f *os.File
}

func AcquireLockFile(ctx context.Context, path string) (*LockFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fd, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, err
	}
	return &LockFile{f: fd}, nil
}

func (l *LockFile) Release() error {
	if l == nil || l.f == nil {
		return nil
	}
	err := l.f.Close()
	l.f = nil
	return err
}
