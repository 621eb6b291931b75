// cmd/classify/classify.go

package classify

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/CodeMonkeyCybersecurity/wipe/pkg/medium"
	"github.com/CodeMonkeyCybersecurity/wipe/pkg/wipe_cli"
	"github.com/CodeMonkeyCybersecurity/wipe/pkg/wipe_err"
	"github.com/CodeMonkeyCybersecurity/wipe/pkg/wipe_io"
	"github.com/spf13/cobra"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// ClassifyCmd prints the medium wipe would pick for a path.
var ClassifyCmd = NewClassifyCmd()

// NewClassifyCmd builds the command with fresh flag state.
func NewClassifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify <path>",
		Short: "Show which storage medium a path lives on",
		Long: `Report HDD, SSD or Unknown for the block device holding <path>, using the
rotational flag under sysfs. Nothing is modified.`,
		Args: cobra.ExactArgs(1),
		RunE: wipe_cli.Wrap(runClassify),
	}
	cmd.Flags().String("sysfs-root", "/sys", "sysfs mount point")
	return cmd
}

func runClassify(rc *wipe_io.RuntimeContext, cmd *cobra.Command, args []string) error {
	logger := otelzap.Ctx(rc.Ctx)
	path := args[0]

	cfg, err := wipe_cli.LoadConfig(cmd)
	if err != nil {
		return err
	}

	c := medium.NewSysfsClassifier(cfg.SysfsRoot)
	kind, err := c.Classify(rc.Ctx, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return wipe_err.NotFound(path, err)
		}
		logger.Warn("Classification unavailable", zap.String("path", path), zap.Error(err))
		kind = medium.Unknown
	}
	logger.Info("Medium classified", zap.String("path", path), zap.String("medium", kind.String()))
	fmt.Fprintln(cmd.OutOrStdout(), kind)
	return nil
}
