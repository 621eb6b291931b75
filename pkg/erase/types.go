// pkg/erase/types.go

package erase

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/CodeMonkeyCybersecurity/wipe/pkg/medium"
)

// Request asks for one file to be erased. It is consumed once.
type Request struct {
	TargetPath string
	Medium     medium.Kind
	// Passes is the number of random passes for HDD targets; 0 uses the default.
	Passes int
}

// Outcome is the terminal state of an erasure. Success implies the target
// path no longer exists.
type Outcome struct {
	Success         bool
	MediumUsed      medium.Kind
	PassesCompleted int
	ZeroPass        bool
	Method          string
	BestEffort      bool
	FailureReason   string
	Err             error
	BytesPerPass    int64
	Notes           map[string]string
}

// Pattern is the content written in one pass.
type Pattern string

const (
	PatternRandom Pattern = "random"
	PatternZero   Pattern = "zero"
)

// PassObserver is called after each pass has been flushed to stable storage.
// Pass numbers start at 1 and include the zero pass.
type PassObserver func(pass int, pattern Pattern, bytes int64)

// File is the subset of *os.File the engine writes through.
type File interface {
	io.WriterAt
	Stat() (os.FileInfo, error)
	Sync() error
	Close() error
}

// errNotRegular is the NotFound cause for symlinks, directories and devices.
// Erasing through a link would overwrite one file and remove another.
var errNotRegular = errors.New("not a regular file")

// Opener opens the target for writing and takes an exclusive lock on it.
type Opener func(path string) (File, error)

const (
	MethodSSD     = "ssd-overwrite-rename-discard"
	MethodUnknown = "1-pass-random"

	// NoteKey is the metadata key for the medium caveat.
	NoteKey = "note"
	// RenamedKey records the throwaway name used before an SSD removal.
	RenamedKey = "renamed_to"

	SSDNote = "SSD erasure is best-effort: wear leveling and over-provisioning may keep " +
		"stale copies outside the file's current blocks; use a device-level sanitize for guaranteed removal"
	UnknownNote = "medium could not be determined; a single random pass was applied"
)

// MethodHDD names the HDD strategy for n random passes.
func MethodHDD(n int) string {
	return fmt.Sprintf("%d-pass-random+zero", n)
}
