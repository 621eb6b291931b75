// cmd/verify/verify.go

package verify

import (
	"encoding/json"
	"fmt"

	"github.com/CodeMonkeyCybersecurity/wipe/pkg/report"
	"github.com/CodeMonkeyCybersecurity/wipe/pkg/shared"
	"github.com/CodeMonkeyCybersecurity/wipe/pkg/wipe_cli"
	"github.com/CodeMonkeyCybersecurity/wipe/pkg/wipe_io"
	"github.com/spf13/cobra"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// VerifyCmd checks a report's canonical form and detached signature.
var VerifyCmd = NewVerifyCmd()

// NewVerifyCmd builds the command with fresh flag state.
func NewVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify <report.json>",
		Short: "Verify a signed erasure report",
		Long: `Check that a report is in canonical form and that its detached signature
matches the public key. The signature defaults to <report.json>.sig and the
public key to public.pem in the configured key directory.

Exit status is 0 when the signature is valid and 4 when it is not.`,
		Args: cobra.ExactArgs(1),
		RunE: wipe_cli.Wrap(runVerify),
	}

	cmd.Flags().String("sig", "", "detached signature (default: <report.json>.sig)")
	cmd.Flags().String("pub", "", "public key PEM (default: <key-dir>/public.pem)")
	cmd.Flags().String("key-dir", shared.DefaultKeyDir, "directory holding public.pem")
	cmd.Flags().Bool("json", false, "print the result as JSON")
	return cmd
}

func runVerify(rc *wipe_io.RuntimeContext, cmd *cobra.Command, args []string) error {
	logger := otelzap.Ctx(rc.Ctx)
	jsonPath := args[0]

	sigPath, _ := cmd.Flags().GetString("sig")
	if sigPath == "" {
		sigPath = jsonPath + shared.SignatureSuffix
	}
	pubPath, _ := cmd.Flags().GetString("pub")
	if pubPath == "" {
		cfg, err := wipe_cli.LoadConfig(cmd)
		if err != nil {
			return err
		}
		pubPath = cfg.PublicKeyPath()
	}

	logger.Info("Verifying report",
		zap.String("report", jsonPath),
		zap.String("signature", sigPath),
		zap.String("public_key", pubPath))

	v, err := report.VerifyReport(jsonPath, sigPath, pubPath)
	if err != nil {
		logger.Warn("Report verification failed", zap.Error(err))
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	fmt.Fprintf(out, "✓ signature valid: %s\n", v.JSONPath)
	fmt.Fprintf(out, "  target:    %s\n", v.Record.Target)
	fmt.Fprintf(out, "  timestamp: %s\n", v.Record.Timestamp)
	fmt.Fprintf(out, "  method:    %s\n", v.Record.Method)
	fmt.Fprintf(out, "  verified:  %t\n", v.Record.Verified)
	fmt.Fprintf(out, "  digest:    %s\n", v.Digest)
	fmt.Fprintf(out, "  key:       %s\n", v.Fingerprint)
	return nil
}
