// pkg/attest/builder.go

package attest

import (
	"time"

	"github.com/CodeMonkeyCybersecurity/wipe/pkg/medium"
	"github.com/CodeMonkeyCybersecurity/wipe/pkg/shared"
)

// Clock returns the current time.
type Clock func() time.Time

// BuildInput carries the facts an attestation records.
type BuildInput struct {
	Mode             string
	Target           string
	Method           string
	PreErasureSHA256 string
	Medium           medium.Kind
	Verified         bool
	Metadata         map[string]string
}

// Builder constructs records. It samples the clock exactly once per record.
type Builder struct {
	now Clock
}

func NewBuilder(now Clock) *Builder {
	if now == nil {
		now = time.Now
	}
	return &Builder{now: now}
}

// Build returns a validated record. Metadata is copied. Strings that are not
// valid UTF-8 yield a SerializationError.
func (b *Builder) Build(in BuildInput) (Record, error) {
	mode := in.Mode
	if mode == "" {
		mode = shared.ModeFile
	}
	meta := make(map[string]string, len(in.Metadata))
	for k, v := range in.Metadata {
		meta[k] = v
	}
	r := Record{
		Timestamp:        FormatTimestamp(b.now()),
		Mode:             mode,
		Target:           in.Target,
		Method:           in.Method,
		PreErasureSHA256: in.PreErasureSHA256,
		MediumKind:       in.Medium,
		Verified:         in.Verified,
		Metadata:         meta,
	}
	if err := r.Validate(); err != nil {
		return Record{}, err
	}
	if err := checkUTF8(r); err != nil {
		return Record{}, err
	}
	return r, nil
}
