/* pkg/logger/lifecycle.go */

package logger

import "github.com/google/uuid"

// GenerateTraceID returns a short 8-char ID for correlating log lines when
// tracing is disabled.
func GenerateTraceID() string {
	return uuid.New().String()[:8]
}
