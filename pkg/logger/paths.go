/* pkg/logger/paths.go */

package logger

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/CodeMonkeyCybersecurity/wipe/pkg/shared"
	"github.com/CodeMonkeyCybersecurity/wipe/pkg/xdg"
)

// PlatformLogPaths returns fallback log paths in order of priority for the platform.
func PlatformLogPaths() []string {
	if p := os.Getenv("WIPE_LOG_FILE"); p != "" {
		return []string{p}
	}
	switch runtime.GOOS {
	case "linux":
		return []string{
			shared.WipeLogs, // writable when run as root
			xdg.XDGStatePath(shared.WipeID, "wipe.log"),
			"/tmp/wipe/wipe.log",
		}
	case "darwin":
		return []string{
			xdg.XDGStatePath(shared.WipeID, "wipe.log"),
			"/tmp/wipe/wipe.log",
		}
	case "windows":
		return []string{
			filepath.Join(os.Getenv("LOCALAPPDATA"), shared.WipeID, "wipe.log"),
			".\\wipe.log",
		}
	default:
		return []string{shared.WipeLogsPWD}
	}
}
