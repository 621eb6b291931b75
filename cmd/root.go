/* cmd/root.go */

package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/CodeMonkeyCybersecurity/wipe/cmd/classify"
	"github.com/CodeMonkeyCybersecurity/wipe/cmd/config"
	"github.com/CodeMonkeyCybersecurity/wipe/cmd/file"
	"github.com/CodeMonkeyCybersecurity/wipe/cmd/keys"
	"github.com/CodeMonkeyCybersecurity/wipe/cmd/verify"
	"github.com/CodeMonkeyCybersecurity/wipe/pkg/logger"
	"github.com/CodeMonkeyCybersecurity/wipe/pkg/shared"
	"github.com/CodeMonkeyCybersecurity/wipe/pkg/telemetry"
	"github.com/CodeMonkeyCybersecurity/wipe/pkg/wipe_cli"
	"github.com/CodeMonkeyCybersecurity/wipe/pkg/wipe_err"
	"github.com/CodeMonkeyCybersecurity/wipe/pkg/wipe_io"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var helpLogged bool

// RootCmd is the base command for wipe.
var RootCmd = &cobra.Command{
	Use:   "wipe",
	Short: "Securely erase files and issue signed erasure attestations",
	Long: `wipe overwrites a file according to the medium it lives on, deletes it,
and writes a canonical JSON attestation with an HTML (and optional PDF)
rendering. Attestations are signed with a locally held RSA key when one is
available.`,
	Version:       shared.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: wipe_cli.Wrap(func(rc *wipe_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), "⚠️  No subcommand provided. Try `wipe help`.")
		return cmd.Help()
	}),
}

// HelpCmd wraps help so that it can be invoked like a normal command.
var HelpCmd = &cobra.Command{
	Use:   "help [command]",
	Short: "Help about any command",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return RootCmd.Help()
		}
		c, _, err := RootCmd.Find(args)
		if err != nil || c == nil {
			return wipe_err.NewValidationError(fmt.Sprintf("command not found: %s", strings.Join(args, " ")))
		}
		return c.Help()
	},
}

func init() {
	RootCmd.PersistentFlags().String(wipe_cli.FlagConfig, "", "config file (default: ./wipe.yaml, $XDG_CONFIG_HOME/wipe/wipe.yaml, /etc/wipe/wipe.yaml)")
	RootCmd.PersistentFlags().String(wipe_cli.FlagEnvFile, "", "dotenv file to load before reading WIPE_* variables (default: ./.env if present)")
	RegisterCommands()
}

// RegisterCommands adds all subcommands to the root command.
func RegisterCommands() {
	RootCmd.SetHelpCommand(HelpCmd)

	RootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		if !helpLogged {
			logger.L().Debug("Help requested", zap.String("command", cmd.Name()))
			helpLogged = true
		}
		if err := cmd.Usage(); err != nil {
			logger.L().Warn("Failed to print usage", zap.Error(err))
		}
	})

	for _, subCmd := range []*cobra.Command{
		file.FileCmd,
		verify.VerifyCmd,
		keys.KeysCmd,
		classify.ClassifyCmd,
		config.ConfigCmd,
	} {
		RootCmd.AddCommand(subCmd)
	}
}

// Execute runs the root command and exits with the classified exit code.
func Execute() {
	err := RootCmd.Execute()
	code := wipe_err.GetExitCode(err)

	if err != nil {
		if wipe_err.IsExpectedUserError(err) {
			logger.L().Warn("CLI completed with user error", zap.Error(err))
		} else {
			logger.L().Error("CLI execution error", zap.Error(err), zap.Int("exit_code", code))
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	if shutErr := telemetry.Shutdown(ctx); shutErr != nil {
		logger.L().Debug("Telemetry shutdown failed", zap.Error(shutErr))
	}
	cancel()

	if syncErr := logger.Sync(); syncErr != nil && !isIgnorableSyncError(syncErr) {
		fmt.Fprintf(os.Stderr, "⚠️  Failed to flush logs: %v\n", syncErr)
	}
	os.Exit(code)
}

// Syncing stderr fails with EINVAL/ENOTTY on terminals.
func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "invalid argument") || strings.Contains(msg, "inappropriate ioctl")
}
