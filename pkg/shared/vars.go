// pkg/shared/vars.go

package shared

import (
	"os"
	"sync/atomic"

	"go.uber.org/zap"
)

// Version is set at build time with -ldflags "-X .../pkg/shared.Version=..."
var Version = "0.3.0-dev"

var syncedAlready atomic.Bool

// SafeSync flushes the global logger once per process.
func SafeSync() {
	if syncedAlready.Swap(true) {
		return
	}
	_ = zap.L().Sync()
}

// Hostname returns the host name or "unknown".
func Hostname() string {
	if h, err := os.Hostname(); err == nil {
		return h
	}
	return "unknown"
}
