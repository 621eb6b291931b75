package verify

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTargetAbsent(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "present")
	require.NoError(t, os.WriteFile(present, []byte("x"), 0o600))

	absent, err := TargetAbsent(present)
	require.NoError(t, err)
	assert.False(t, absent)

	absent, err = TargetAbsent(filepath.Join(dir, "gone"))
	require.NoError(t, err)
	assert.True(t, absent)

	link := filepath.Join(dir, "dangling")
	require.NoError(t, os.Symlink(filepath.Join(dir, "nowhere"), link))
	absent, err = TargetAbsent(link)
	require.NoError(t, err)
	assert.False(t, absent)
}

func TestRegularFile(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "f")
	require.NoError(t, os.WriteFile(f, []byte("abc"), 0o600))

	info, ok, err := RegularFile(f)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(3), info.Size())

	_, ok, err = RegularFile(dir)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = RegularFile(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.False(t, ok)

	link := filepath.Join(dir, "link")
	require.NoError(t, os.Symlink(f, link))
	_, ok, err = RegularFile(link)
	require.NoError(t, err)
	assert.False(t, ok, "a symlink to a regular file is not itself regular")
}
