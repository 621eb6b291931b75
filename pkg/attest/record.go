// pkg/attest/record.go

// Package attest builds attestation records and their canonical encoding.
// Nothing here touches the filesystem.
package attest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/CodeMonkeyCybersecurity/wipe/pkg/hashutil"
	"github.com/CodeMonkeyCybersecurity/wipe/pkg/medium"
	"github.com/CodeMonkeyCybersecurity/wipe/pkg/wipe_err"
	cerr "github.com/cockroachdb/errors"
	"github.com/gowebpki/jcs"
)

// TimestampLayout is ISO-8601 UTC with ':' replaced by '-' so the value is
// safe inside file names.
const TimestampLayout = "2006-01-02T15-04-05Z"

// Record is the attestation of one erasure.
type Record struct {
	Timestamp        string            `json:"timestamp"`
	Mode             string            `json:"mode"`
	Target           string            `json:"target"`
	Method           string            `json:"method"`
	PreErasureSHA256 string            `json:"pre_erasure_sha256,omitempty"`
	MediumKind       medium.Kind       `json:"medium_kind"`
	Verified         bool              `json:"verified"`
	Metadata         map[string]string `json:"metadata"`
}

// FormatTimestamp renders t in TimestampLayout at second precision.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(TimestampLayout)
}

// ParseTimestamp is the inverse of FormatTimestamp.
func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse(TimestampLayout, s)
}

// Validate checks the record's field constraints.
func (r Record) Validate() error {
	var problems []string
	if _, err := ParseTimestamp(r.Timestamp); err != nil {
		problems = append(problems, fmt.Sprintf("timestamp %q is not %s", r.Timestamp, TimestampLayout))
	}
	if r.Mode == "" {
		problems = append(problems, "mode is empty")
	}
	if r.Target == "" {
		problems = append(problems, "target is empty")
	}
	if r.Method == "" {
		problems = append(problems, "method is empty")
	}
	if r.PreErasureSHA256 != "" && !hashutil.IsHexDigest(r.PreErasureSHA256) {
		problems = append(problems, "pre_erasure_sha256 must be 64 lowercase hex characters")
	}
	if !r.MediumKind.Valid() {
		problems = append(problems, fmt.Sprintf("medium_kind %q is not HDD, SSD or Unknown", r.MediumKind))
	}
	if len(problems) > 0 {
		return wipe_err.NewValidationError("invalid attestation record: " + strings.Join(problems, "; "))
	}
	return nil
}

// Canonical returns the RFC 8785 encoding of r: sorted keys, no
// insignificant whitespace, UTF-8. Equal records always yield equal bytes.
func Canonical(r Record) ([]byte, error) {
	if err := checkUTF8(r); err != nil {
		return nil, err
	}
	if r.Metadata == nil {
		r.Metadata = map[string]string{}
	}
	raw, err := json.Marshal(r)
	if err != nil {
		return nil, wipe_err.Serialization(err)
	}
	out, err := jcs.Transform(raw)
	if err != nil {
		return nil, wipe_err.Serialization(err)
	}
	return out, nil
}

// checkUTF8 fails with a SerializationError when a string field is not
// valid UTF-8. encoding/json would substitute U+FFFD, so two different
// paths could otherwise produce the same signed bytes.
func checkUTF8(r Record) error {
	fields := [][2]string{
		{"timestamp", r.Timestamp},
		{"mode", r.Mode},
		{"target", r.Target},
		{"method", r.Method},
		{"pre_erasure_sha256", r.PreErasureSHA256},
		{"medium_kind", string(r.MediumKind)},
	}
	keys := make([]string, 0, len(r.Metadata))
	for k := range r.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fields = append(fields, [2]string{"metadata key", k}, [2]string{"metadata." + k, r.Metadata[k]})
	}
	for _, f := range fields {
		if !utf8.ValidString(f[1]) {
			return wipe_err.Serialization(fmt.Errorf("%s %q is not valid UTF-8", f[0], f[1]))
		}
	}
	return nil
}

// Digest is the lowercase hex SHA-256 of b.
func Digest(b []byte) string {
	return hashutil.HashBytes(b)
}

// ParseCanonical decodes stored record bytes. Unknown fields are rejected.
func ParseCanonical(b []byte) (Record, error) {
	var r Record
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&r); err != nil {
		return Record{}, cerr.Wrap(err, "decode attestation record")
	}
	if dec.More() {
		return Record{}, cerr.New("decode attestation record: trailing data")
	}
	if r.Metadata == nil {
		r.Metadata = map[string]string{}
	}
	if err := r.Validate(); err != nil {
		return Record{}, err
	}
	return r, nil
}

// IsCanonical reports whether b is already in canonical form.
func IsCanonical(b []byte) bool {
	out, err := jcs.Transform(b)
	return err == nil && bytes.Equal(out, b)
}
