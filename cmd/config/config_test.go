package config

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/CodeMonkeyCybersecurity/wipe/pkg/testutil"
	"github.com/CodeMonkeyCybersecurity/wipe/pkg/wipe_err"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func show(t *testing.T, args ...string) (string, map[string]any, error) {
	t.Helper()
	out, err := testutil.ExecuteCommand(t, NewConfigCmd(), append([]string{"show"}, args...)...)
	if err != nil {
		return out, nil, err
	}
	var m map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &m), "output: %s", out)
	return out, m, nil
}

func TestConfigShowDefaults(t *testing.T) {
	testutil.Isolate(t)

	out, m, err := show(t)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "# source: defaults\n"))
	assert.Equal(t, 3, m["passes"])
	assert.Equal(t, "auto", m["medium"])
	assert.Equal(t, true, m["sign"])
	assert.Equal(t, "reports", m["report_dir"])
}

func TestConfigShowLayers(t *testing.T) {
	dir := testutil.Isolate(t)
	file := testutil.CreateTestFile(t, dir, "custom.yaml", "passes: 5\nmedium: ssd\npdf: true\n", 0o644)
	t.Setenv("WIPE_PASSES", "9")
	t.Setenv("WIPE_KEY_PASSPHRASE", "hunter2")

	out, m, err := show(t, "--config", file)
	require.NoError(t, err)
	assert.Contains(t, out, "# source: "+file)
	assert.Equal(t, 9, m["passes"], "environment overrides file")
	assert.Equal(t, "ssd", m["medium"])
	assert.Equal(t, true, m["pdf"])
	assert.NotContains(t, out, "hunter2")
}

func TestConfigShowDiscoversWorkingDirFile(t *testing.T) {
	dir := testutil.Isolate(t)
	testutil.CreateTestFile(t, dir, "wipe.yaml", "key_bits: 4096\n", 0o644)

	out, m, err := show(t)
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join(dir, "wipe.yaml"))
	assert.Equal(t, 4096, m["key_bits"])
}

func TestConfigShowInvalid(t *testing.T) {
	dir := testutil.Isolate(t)
	file := testutil.CreateTestFile(t, dir, "bad.yaml", "passes: 99\n", 0o644)

	_, _, err := show(t, "--config", file)
	require.Error(t, err)
	assert.Equal(t, 2, wipe_err.GetExitCode(err))
}
