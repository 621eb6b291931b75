// cmd/config/config.go

package config

import (
	"fmt"

	"github.com/CodeMonkeyCybersecurity/wipe/pkg/wipe_cli"
	"github.com/CodeMonkeyCybersecurity/wipe/pkg/wipe_io"
	cerr "github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// ConfigCmd inspects the effective configuration.
var ConfigCmd = NewConfigCmd()

// NewConfigCmd builds the command group with fresh flag state.
func NewConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect wipe configuration",
		Long: `Configuration is resolved from defaults, then wipe.yaml (--config, ./,
$XDG_CONFIG_HOME/wipe/, /etc/wipe/), then WIPE_* environment variables
(optionally loaded from a .env file), then command-line flags.

Examples:
  wipe config show
  WIPE_PASSES=7 wipe config show`,
	}
	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE:  wipe_cli.Wrap(runShow),
	})
	return configCmd
}

func runShow(rc *wipe_io.RuntimeContext, cmd *cobra.Command, args []string) error {
	cfg, err := wipe_cli.LoadConfig(cmd)
	if err != nil {
		return err
	}
	out, err := cfg.YAML()
	if err != nil {
		return cerr.Wrap(err, "render configuration")
	}

	source := cfg.Source
	if source == "" {
		source = "defaults"
	}
	otelzap.Ctx(rc.Ctx).Debug("Configuration resolved", zap.String("source", source))

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "# source: %s\n", source)
	_, err = w.Write(out)
	return err
}
