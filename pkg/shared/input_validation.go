package shared

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxPathLength matches Linux PATH_MAX.
const MaxPathLength = 4096

// ValidateTargetPath rejects paths no filesystem call could resolve and
// paths an attestation could not record byte for byte.
func ValidateTargetPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("target path cannot be empty")
	}
	if len(path) > MaxPathLength {
		return fmt.Errorf("target path too long: %d bytes (max %d)", len(path), MaxPathLength)
	}
	if strings.ContainsRune(path, 0) {
		return fmt.Errorf("target path contains a NUL byte")
	}
	if !utf8.ValidString(path) {
		return fmt.Errorf("target path is not valid UTF-8 and cannot be recorded exactly")
	}
	return nil
}
