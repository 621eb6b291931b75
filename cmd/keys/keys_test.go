package keys

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/CodeMonkeyCybersecurity/wipe/pkg/shared"
	"github.com/CodeMonkeyCybersecurity/wipe/pkg/testutil"
	"github.com/CodeMonkeyCybersecurity/wipe/pkg/wipe_err"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keysJSON(t *testing.T, args ...string) (KeyInfo, error) {
	t.Helper()
	out, err := testutil.ExecuteCommand(t, NewKeysCmd(), append(args, "--json")...)
	var info KeyInfo
	if err == nil {
		require.NoError(t, json.Unmarshal([]byte(out), &info), "output: %s", out)
	}
	return info, err
}

func TestKeysInitIsIdempotent(t *testing.T) {
	dir := testutil.Isolate(t)
	keyDir := filepath.Join(dir, "keys")

	first, err := keysJSON(t, "init", "--key-dir", keyDir)
	require.NoError(t, err)
	assert.True(t, first.Created)
	assert.Equal(t, 2048, first.Bits)
	assert.Len(t, first.Fingerprint, 64)
	testutil.AssertFilePermissions(t, filepath.Join(keyDir, shared.PrivateKeyFile), 0o600)

	second, err := keysJSON(t, "init", "--key-dir", keyDir)
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.Fingerprint, second.Fingerprint)

	shown, err := keysJSON(t, "show", "--key-dir", keyDir)
	require.NoError(t, err)
	assert.Equal(t, first.Fingerprint, shown.Fingerprint)
	assert.Equal(t, filepath.Join(keyDir, shared.PublicKeyFile), shown.PublicKeyPath)
}

func TestKeysInitEncrypted(t *testing.T) {
	dir := testutil.Isolate(t)
	keyDir := filepath.Join(dir, "keys")
	t.Setenv(shared.KeyPassphraseEnv, "correct horse")

	info, err := keysJSON(t, "init", "--key-dir", keyDir)
	require.NoError(t, err)
	assert.True(t, info.Encrypted)

	pem, err := os.ReadFile(filepath.Join(keyDir, shared.PrivateKeyFile))
	require.NoError(t, err)
	assert.Contains(t, string(pem), "ENCRYPTED PRIVATE KEY")

	t.Setenv(shared.KeyPassphraseEnv, "wrong")
	_, err = keysJSON(t, "init", "--key-dir", keyDir)
	require.Error(t, err)
	assert.Equal(t, wipe_err.ReasonKeyLoadError, wipe_err.Reason(err))
}

func TestKeysInitRejectsCorruptKey(t *testing.T) {
	dir := testutil.Isolate(t)
	keyDir := filepath.Join(dir, "keys")
	require.NoError(t, os.MkdirAll(keyDir, 0o700))
	corrupt := testutil.CreateTestFile(t, keyDir, shared.PrivateKeyFile, "not a key", 0o600)

	_, err := keysJSON(t, "init", "--key-dir", keyDir)
	require.Error(t, err)
	assert.Equal(t, wipe_err.ReasonKeyLoadError, wipe_err.Reason(err))
	testutil.AssertFileContent(t, corrupt, "not a key")
}

func TestKeysShowWithoutKey(t *testing.T) {
	dir := testutil.Isolate(t)

	_, err := keysJSON(t, "show", "--key-dir", filepath.Join(dir, "none"))
	require.Error(t, err)
	assert.Equal(t, wipe_err.ReasonKeyLoadError, wipe_err.Reason(err))
}

func TestKeysInitRejectsBadBits(t *testing.T) {
	dir := testutil.Isolate(t)

	_, err := keysJSON(t, "init", "--key-dir", filepath.Join(dir, "keys"), "--key-bits", "1024")
	require.Error(t, err)
	assert.Equal(t, 2, wipe_err.GetExitCode(err))
}
