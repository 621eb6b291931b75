//go:build unix

package erase

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/CodeMonkeyCybersecurity/wipe/pkg/fileops"
	"github.com/CodeMonkeyCybersecurity/wipe/pkg/medium"
	"github.com/CodeMonkeyCybersecurity/wipe/pkg/wipe_err"
	cerr "github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestEraseBusyTargetFailsFast(t *testing.T) {
	path := writeTarget(t, 64)
	original, err := os.ReadFile(path)
	require.NoError(t, err)

	holder, err := os.Open(path)
	require.NoError(t, err)
	defer holder.Close()
	require.NoError(t, fileops.TryLock(holder))

	out := NewEngine(zaptest.NewLogger(t)).Erase(context.Background(),
		Request{TargetPath: path, Medium: medium.HDD})

	assert.False(t, out.Success)
	assert.Equal(t, wipe_err.ReasonBusy, out.FailureReason)
	assert.True(t, cerr.Is(out.Err, wipe_err.ErrIoFailure))
	assert.Equal(t, 0, out.PassesCompleted)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, original, after, "nothing was written")
}

func TestEraseRefusesSymlinkTarget(t *testing.T) {
	for _, kind := range []medium.Kind{medium.HDD, medium.SSD, medium.Unknown} {
		t.Run(kind.String(), func(t *testing.T) {
			dir := t.TempDir()
			victim := filepath.Join(dir, "payroll-secret.txt")
			require.NoError(t, os.WriteFile(victim, []byte("hello world"), 0o600))
			link := filepath.Join(dir, "link")
			require.NoError(t, os.Symlink(victim, link))

			out := NewEngine(zaptest.NewLogger(t)).Erase(context.Background(),
				Request{TargetPath: link, Medium: kind})

			assert.False(t, out.Success)
			assert.Equal(t, wipe_err.ReasonNotFound, out.FailureReason)
			assert.True(t, cerr.Is(out.Err, wipe_err.ErrNotFound))
			assert.Equal(t, 0, out.PassesCompleted)

			data, err := os.ReadFile(victim)
			require.NoError(t, err)
			assert.Equal(t, "hello world", string(data), "link target untouched")
			_, err = os.Lstat(link)
			assert.NoError(t, err, "link left in place")
		})
	}
}

func TestOpenLockedDoesNotFollowSymlink(t *testing.T) {
	dir := t.TempDir()
	victim := filepath.Join(dir, "victim.txt")
	require.NoError(t, os.WriteFile(victim, []byte("x"), 0o600))
	link := filepath.Join(dir, "link")
	require.NoError(t, os.Symlink(victim, link))

	f, err := OpenLocked(link)
	require.Error(t, err)
	assert.Nil(t, f)
	assert.True(t, cerr.Is(err, wipe_err.ErrNotFound))
}
