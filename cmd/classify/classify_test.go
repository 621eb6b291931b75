package classify

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/CodeMonkeyCybersecurity/wipe/pkg/testutil"
	"github.com/CodeMonkeyCybersecurity/wipe/pkg/wipe_err"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyMissingPath(t *testing.T) {
	dir := testutil.Isolate(t)

	_, err := testutil.ExecuteCommand(t, NewClassifyCmd(), filepath.Join(dir, "absent"))
	require.Error(t, err)
	assert.Equal(t, wipe_err.ReasonNotFound, wipe_err.Reason(err))
}

func TestClassifyWithoutSysfsIsUnknown(t *testing.T) {
	dir := testutil.Isolate(t)
	target := testutil.CreateTestFile(t, dir, "f", "x", 0o600)

	out, err := testutil.ExecuteCommand(t, NewClassifyCmd(), "--sysfs-root", filepath.Join(dir, "nosys"), target)
	require.NoError(t, err)
	assert.Equal(t, "Unknown", strings.TrimSpace(out))
}
