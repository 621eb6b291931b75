// Package fileops provides the durable filesystem primitives used by the key
// store and report generator.
package fileops

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// FileSystemOperations provides filesystem operations
type FileSystemOperations struct {
	logger *zap.Logger
}

// NewFileSystemOperations creates a new filesystem operations implementation
func NewFileSystemOperations(logger *zap.Logger) *FileSystemOperations {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileSystemOperations{
		logger: logger.Named("filesystem"),
	}
}

// ReadFile reads the entire contents of a file
func (f *FileSystemOperations) ReadFile(ctx context.Context, path string) ([]byte, error) {
	f.logger.Debug("Reading file", zap.String("path", path))

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return data, nil
}

// WriteFile durably replaces path with data. A reader observes either the
// previous contents or the complete new contents, never a partial file.
// Steps: write tmp, fsync, chmod, rename, fsync parent directory.
func (f *FileSystemOperations) WriteFile(ctx context.Context, path string, data []byte, perm os.FileMode) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.logger.Debug("Writing file",
		zap.String("path", path),
		zap.Int("size", len(data)),
		zap.String("permissions", perm.String()))

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp for %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("fsync temp for %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp for %s: %w", path, err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("chmod temp for %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename into %s: %w", path, err)
	}
	committed = true

	if err := SyncDir(dir); err != nil {
		f.logger.Warn("Directory fsync failed", zap.String("dir", dir), zap.Error(err))
	}

	f.logger.Debug("File written", zap.String("path", path), zap.Int("size", len(data)))
	return nil
}

// WriteFileExclusive durably creates path with data and fails with an error
// matching fs.ErrExist if path already exists. The complete file appears
// under its final name in one step.
func (f *FileSystemOperations) WriteFileExclusive(ctx context.Context, path string, data []byte, perm os.FileMode) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp for %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("fsync temp for %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp for %s: %w", path, err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("chmod temp for %s: %w", path, err)
	}
	// link(2) refuses to replace an existing entry.
	if err := os.Link(tmpPath, path); err != nil {
		return fmt.Errorf("publish %s: %w", path, err)
	}

	if err := SyncDir(dir); err != nil {
		f.logger.Warn("Directory fsync failed", zap.String("dir", dir), zap.Error(err))
	}
	f.logger.Debug("File created", zap.String("path", path), zap.Int("size", len(data)))
	return nil
}

// CreateDirectory creates a directory with the specified permissions
func (f *FileSystemOperations) CreateDirectory(ctx context.Context, path string, perm os.FileMode) error {
	if err := os.MkdirAll(path, perm); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", path, err)
	}
	return nil
}

// SyncDir fsyncs a directory so that entry changes (create, rename, unlink)
// inside it are durable.
func SyncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}
