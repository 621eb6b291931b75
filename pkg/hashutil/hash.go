// pkg/hashutil/hash.go

package hashutil

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"regexp"

	"github.com/CodeMonkeyCybersecurity/wipe/pkg/shared"
)

var hexDigest = regexp.MustCompile(`^[0-9a-f]{64}$`)

// HashBytes returns the SHA256 hash of b as lowercase hex.
func HashBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// FileSHA256 streams path through SHA-256 in fixed-size chunks.
func FileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, shared.ChunkSize)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// IsHexDigest reports whether s is exactly 64 lowercase hex characters.
func IsHexDigest(s string) bool {
	return hexDigest.MatchString(s)
}

// SecureZero overwrites a byte slice to reduce the chance of sensitive data lingering in memory.
func SecureZero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
