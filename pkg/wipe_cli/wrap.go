// pkg/wipe_cli/wrap.go

package wipe_cli

import (
	"context"

	"github.com/CodeMonkeyCybersecurity/wipe/pkg/logger"
	"github.com/CodeMonkeyCybersecurity/wipe/pkg/wipe_err"
	"github.com/CodeMonkeyCybersecurity/wipe/pkg/wipe_io"
	cerr "github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RunFunc is the signature of every wrapped command body.
type RunFunc func(rc *wipe_io.RuntimeContext, cmd *cobra.Command, args []string) error

// Wrap adapts fn to cobra's RunE. It sets up the runtime context, cancels it
// on SIGINT/SIGTERM, recovers panics, and stack-annotates unexpected errors.
func Wrap(fn RunFunc) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		if !logger.Installed() {
			logger.InitFallback()
		}

		parent := cmd.Context()
		if parent == nil {
			parent = context.Background()
		}
		signals := NewSignalHandler(parent)
		defer signals.Stop()

		rc := wipe_io.NewContext(signals.Context(), cmd.Name())
		defer rc.End(&err)
		defer rc.HandlePanic(&err)

		wipe_io.LogRuntimeExecutionContext(rc)
		rc.Log.Info("Command started", zap.String("command", cmd.CommandPath()), zap.Strings("args", args))

		err = fn(rc, cmd, args)
		if err != nil && !wipe_err.IsExpectedUserError(err) {
			err = cerr.WithStack(err)
		}
		return err
	}
}
