package verify

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/CodeMonkeyCybersecurity/wipe/pkg/attest"
	"github.com/CodeMonkeyCybersecurity/wipe/pkg/keystore"
	"github.com/CodeMonkeyCybersecurity/wipe/pkg/medium"
	"github.com/CodeMonkeyCybersecurity/wipe/pkg/report"
	"github.com/CodeMonkeyCybersecurity/wipe/pkg/testutil"
	"github.com/CodeMonkeyCybersecurity/wipe/pkg/wipe_err"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func signedReport(t *testing.T, dir string) *report.PersistedReport {
	t.Helper()
	opts := keystore.OptionsForDir(filepath.Join(dir, "keys"))
	opts.Logger = zaptest.NewLogger(t)
	g := report.NewGenerator(report.Options{
		Dir:    filepath.Join(dir, "reports"),
		Signer: keystore.NewStore(opts),
		Logger: zaptest.NewLogger(t),
	})
	rec, err := attest.NewBuilder(func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }).
		Build(attest.BuildInput{Target: "/data/old.db", Method: "ssd-rename-delete", Medium: medium.SSD, Verified: true})
	require.NoError(t, err)
	rep, err := g.Generate(context.Background(), rec)
	require.NoError(t, err)
	require.True(t, rep.Signed)
	return rep
}

func TestVerifyValidReport(t *testing.T) {
	dir := testutil.Isolate(t)
	rep := signedReport(t, dir)

	out, err := testutil.ExecuteCommand(t, NewVerifyCmd(), "--key-dir", filepath.Join(dir, "keys"), rep.JSONPath)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ signature valid")
	assert.Contains(t, out, "/data/old.db")
	assert.Contains(t, out, rep.Digest)
}

func TestVerifyExplicitPaths(t *testing.T) {
	dir := testutil.Isolate(t)
	rep := signedReport(t, dir)
	sig := filepath.Join(dir, "elsewhere.sig")
	data, err := os.ReadFile(rep.SigPath)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(sig, data, 0o644))

	_, err = testutil.ExecuteCommand(t, NewVerifyCmd(), "--sig", sig, "--pub", rep.PublicKeyPath, rep.JSONPath)
	assert.NoError(t, err)
}

func TestVerifyTamperedReport(t *testing.T) {
	dir := testutil.Isolate(t)
	rep := signedReport(t, dir)

	data, err := os.ReadFile(rep.JSONPath)
	require.NoError(t, err)
	tampered := bytes.Clone(data)
	tampered[len(`{"medium_kind":"`)] = 'H'
	require.NoError(t, os.WriteFile(rep.JSONPath, tampered, 0o644))

	_, err = testutil.ExecuteCommand(t, NewVerifyCmd(), "--pub", rep.PublicKeyPath, rep.JSONPath)
	require.Error(t, err)
	assert.Equal(t, 4, wipe_err.GetExitCode(err))
}

func TestVerifyUnsignedReport(t *testing.T) {
	dir := testutil.Isolate(t)
	rep := signedReport(t, dir)
	require.NoError(t, os.Remove(rep.SigPath))

	_, err := testutil.ExecuteCommand(t, NewVerifyCmd(), "--pub", rep.PublicKeyPath, rep.JSONPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no signature")
	assert.Equal(t, 4, wipe_err.GetExitCode(err))
}
