//go:build unix

package fileops

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// ErrLocked is returned when a non-blocking lock is already held elsewhere.
var ErrLocked = errors.New("resource is locked by another process")

const lockPollInterval = 50 * time.Millisecond

// TryLock takes an exclusive advisory lock on f without blocking.
func TryLock(f *os.File) error {
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		if errors.Is(err, unix.EWOULDBLOCK) {
			return ErrLocked
		}
		return fmt.Errorf("flock %s: %w", f.Name(), err)
	}
	return nil
}

// Unlock releases a lock taken by TryLock.
func Unlock(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_UN)
}

// LockFile is an exclusive lock held on a dedicated lock file.
type LockFile struct {
	f *os.File
}

// AcquireLockFile opens or creates path and blocks until an exclusive lock is
// held or ctx is done.
func AcquireLockFile(ctx context.Context, path string) (*LockFile, error) {
	fd, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("cannot open lock file: %w", err)
	}

	ticker := time.NewTicker(lockPollInterval)
	defer ticker.Stop()
	for {
		err := TryLock(fd)
		if err == nil {
			return &LockFile{f: fd}, nil
		}
		if !errors.Is(err, ErrLocked) {
			_ = fd.Close()
			return nil, err
		}
		select {
		case <-ctx.Done():
			_ = fd.Close()
			return nil, fmt.Errorf("waiting for lock %s: %w", path, ctx.Err())
		case <-ticker.C:
		}
	}
}

// Release unlocks and closes the lock file. The file itself is left in place
// so that concurrent waiters keep locking the same inode.
func (l *LockFile) Release() error {
	if l == nil || l.f == nil {
		return nil
	}
	uerr := Unlock(l.f)
	cerr := l.f.Close()
	l.f = nil
	return errors.Join(uerr, cerr)
}
