package attest

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/CodeMonkeyCybersecurity/wipe/pkg/hashutil"
	"github.com/CodeMonkeyCybersecurity/wipe/pkg/medium"
	"github.com/CodeMonkeyCybersecurity/wipe/pkg/wipe_err"
	cerr "github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixed = time.Date(2026, 10, 19, 12, 30, 5, 987654321, time.FixedZone("CEST", 2*3600))

func fixedClock() time.Time { return fixed }

func sampleInput() BuildInput {
	return BuildInput{
		Target:           "/tmp/secret.txt",
		Method:           "3-pass-random+zero",
		PreErasureSHA256: hashutil.HashBytes([]byte("hello")),
		Medium:           medium.HDD,
		Verified:         true,
		Metadata:         map[string]string{"passes_completed": "3", "best_effort": "false"},
	}
}

func TestBuild(t *testing.T) {
	calls := 0
	b := NewBuilder(func() time.Time { calls++; return fixed })

	r, err := b.Build(sampleInput())
	require.NoError(t, err)

	assert.Equal(t, 1, calls, "clock sampled once")
	assert.Equal(t, "2026-10-19T10-30-05Z", r.Timestamp, "UTC, second precision, dashes for colons")
	assert.Equal(t, "file", r.Mode)
	assert.Equal(t, medium.HDD, r.MediumKind)
	assert.True(t, r.Verified)
}

func TestBuildCopiesMetadata(t *testing.T) {
	in := sampleInput()
	r, err := NewBuilder(fixedClock).Build(in)
	require.NoError(t, err)

	in.Metadata["passes_completed"] = "99"
	assert.Equal(t, "3", r.Metadata["passes_completed"])
}

func TestBuildValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*BuildInput)
	}{
		{"uppercase hash", func(in *BuildInput) { in.PreErasureSHA256 = strings.ToUpper(in.PreErasureSHA256) }},
		{"short hash", func(in *BuildInput) { in.PreErasureSHA256 = "abc" }},
		{"empty target", func(in *BuildInput) { in.Target = "" }},
		{"empty method", func(in *BuildInput) { in.Method = "" }},
		{"bad medium", func(in *BuildInput) { in.Medium = "Tape" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := sampleInput()
			tt.mutate(&in)
			_, err := NewBuilder(fixedClock).Build(in)
			assert.Error(t, err)
		})
	}

	in := sampleInput()
	in.PreErasureSHA256 = ""
	_, err := NewBuilder(fixedClock).Build(in)
	assert.NoError(t, err, "hash may be absent")
}

func TestCanonicalShape(t *testing.T) {
	r, err := NewBuilder(fixedClock).Build(sampleInput())
	require.NoError(t, err)

	b, err := Canonical(r)
	require.NoError(t, err)

	want := `{"medium_kind":"HDD","metadata":{"best_effort":"false","passes_completed":"3"},` +
		`"method":"3-pass-random+zero","mode":"file","pre_erasure_sha256":"` + r.PreErasureSHA256 + `",` +
		`"target":"/tmp/secret.txt","timestamp":"2026-10-19T10-30-05Z","verified":true}`
	assert.Equal(t, want, string(b))
	assert.True(t, IsCanonical(b))
}

func TestCanonicalOmitsAbsentHashAndKeepsEmptyMetadata(t *testing.T) {
	r := Record{
		Timestamp:  "2026-10-19T12-30-05Z",
		Mode:       "file",
		Target:     "/x",
		Method:     "1-pass-random",
		MediumKind: medium.Unknown,
	}
	b, err := Canonical(r)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "pre_erasure_sha256")
	assert.Contains(t, string(b), `"metadata":{}`)
	assert.Contains(t, string(b), `"verified":false`)
}

func TestCanonicalIdempotentAndOrderIndependent(t *testing.T) {
	r, err := NewBuilder(fixedClock).Build(sampleInput())
	require.NoError(t, err)

	first, err := Canonical(r)
	require.NoError(t, err)
	second, err := Canonical(r)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// Same content, differently ordered and spaced JSON, decodes to the same record.
	shuffled := `{ "verified": true, "timestamp": "2026-10-19T10-30-05Z", "target": "/tmp/secret.txt",
		"metadata": {"passes_completed": "3", "best_effort": "false"}, "mode": "file",
		"pre_erasure_sha256": "` + r.PreErasureSHA256 + `", "method": "3-pass-random+zero", "medium_kind": "HDD" }`
	parsed, err := ParseCanonical([]byte(shuffled))
	require.NoError(t, err)
	third, err := Canonical(parsed)
	require.NoError(t, err)
	assert.Equal(t, first, third)
	assert.Equal(t, Digest(first), Digest(third))

	assert.False(t, IsCanonical([]byte(shuffled)))
}

func TestCanonicalDoesNotEscapeHTML(t *testing.T) {
	r := Record{
		Timestamp:  "2026-10-19T12-30-05Z",
		Mode:       "file",
		Target:     "/tmp/<a&b>.txt",
		Method:     "1-pass-random",
		MediumKind: medium.Unknown,
		Metadata:   map[string]string{"note": "é"},
	}
	b, err := Canonical(r)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"/tmp/<a&b>.txt"`)
	assert.Contains(t, string(b), `"é"`)

	var back map[string]any
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, "/tmp/<a&b>.txt", back["target"])
}

func TestCanonicalRejectsInvalidUTF8(t *testing.T) {
	base := Record{
		Timestamp:  "2026-10-19T12-30-05Z",
		Mode:       "file",
		Target:     "/tmp/a.txt",
		Method:     "1-pass-random",
		MediumKind: medium.Unknown,
		Metadata:   map[string]string{},
	}
	tests := []struct {
		name   string
		mutate func(*Record)
	}{
		{"target", func(r *Record) { r.Target = "/tmp/a\xff.txt" }},
		{"method", func(r *Record) { r.Method = "x\xfe" }},
		{"metadata value", func(r *Record) { r.Metadata["note"] = "\xc3" }},
		{"metadata key", func(r *Record) { r.Metadata["k\xff"] = "v" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := base
			r.Metadata = map[string]string{}
			tt.mutate(&r)
			b, err := Canonical(r)
			require.Error(t, err)
			assert.Nil(t, b)
			assert.True(t, cerr.Is(err, wipe_err.ErrSerialization))
			assert.Equal(t, wipe_err.ReasonSerializationError, wipe_err.Reason(err))
		})
	}
}

func TestBuildRejectsInvalidUTF8Target(t *testing.T) {
	// Two distinct byte paths must never collapse into one signed record.
	for _, target := range []string{"/tmp/a\xff.txt", "/tmp/a\xfe.txt"} {
		in := sampleInput()
		in.Target = target
		_, err := NewBuilder(fixedClock).Build(in)
		require.Error(t, err, "%q", target)
		assert.True(t, cerr.Is(err, wipe_err.ErrSerialization))
	}
}

func TestParseCanonicalRejects(t *testing.T) {
	r, err := NewBuilder(fixedClock).Build(sampleInput())
	require.NoError(t, err)
	b, err := Canonical(r)
	require.NoError(t, err)

	_, err = ParseCanonical([]byte(strings.Replace(string(b), `"mode"`, `"extra":1,"mode"`, 1)))
	assert.Error(t, err, "unknown field")

	_, err = ParseCanonical(append(append([]byte{}, b...), []byte(`{}`)...))
	assert.Error(t, err, "trailing data")

	_, err = ParseCanonical([]byte(`{"timestamp":"yesterday"}`))
	assert.Error(t, err)
}

func TestDigest(t *testing.T) {
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", Digest([]byte("abc")))
}
