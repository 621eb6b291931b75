// Package medium decides which erasure strategy a file's backing device calls
// for. Classification is advisory: callers treat any error as Unknown.
package medium

import (
	"fmt"
	"slices"
	"strings"
)

// Kind is the storage medium backing a file.
type Kind string

const (
	HDD     Kind = "HDD"
	SSD     Kind = "SSD"
	Unknown Kind = "Unknown"
)

// Kinds lists every valid kind.
var Kinds = []Kind{HDD, SSD, Unknown}

func (k Kind) String() string { return string(k) }

// Valid reports whether k is one of the three known kinds.
func (k Kind) Valid() bool {
	return slices.Contains(Kinds, k)
}

// ParseKind accepts "hdd", "ssd" and "unknown" in any case.
func ParseKind(s string) (Kind, error) {
	v := strings.TrimSpace(s)
	for _, k := range Kinds {
		if strings.EqualFold(v, string(k)) {
			return k, nil
		}
	}
	return Unknown, fmt.Errorf("unknown medium %q (want hdd, ssd or unknown)", s)
}
