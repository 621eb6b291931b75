// cmd/file/file.go

package file

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/CodeMonkeyCybersecurity/wipe/pkg/erase"
	"github.com/CodeMonkeyCybersecurity/wipe/pkg/pipeline"
	"github.com/CodeMonkeyCybersecurity/wipe/pkg/report"
	"github.com/CodeMonkeyCybersecurity/wipe/pkg/shared"
	"github.com/CodeMonkeyCybersecurity/wipe/pkg/wipe_cli"
	"github.com/CodeMonkeyCybersecurity/wipe/pkg/wipe_err"
	"github.com/CodeMonkeyCybersecurity/wipe/pkg/wipe_io"
	cerr "github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// FileCmd erases a single file and writes its attestation.
var FileCmd = NewFileCmd()

// NewFileCmd builds the command with fresh flag state.
func NewFileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "file <path>",
		Short: "Erase a file and write an attestation report",
		Long: `Overwrite and delete a file, then write a canonical JSON attestation,
an HTML report, an optional PDF, and a detached signature when a key is
available.

On HDD the file receives N random passes and a zero pass. On SSD it is
renamed and deleted (best effort; wear levelling keeps old blocks). On an
unknown medium it receives one random pass before deletion.

Examples:
  wipe file ./secret.txt
  wipe file --medium ssd --no-sign ./secret.txt
  wipe file --passes 7 --pdf --report-dir /var/lib/wipe/reports /tmp/dump.bin`,
		Args: cobra.ExactArgs(1),
		RunE: wipe_cli.Wrap(runFile),
	}

	fs := cmd.Flags()
	fs.String("medium", "auto", "storage medium: auto, hdd, ssd, unknown")
	fs.Int("passes", shared.DefaultHDDPasses, "random overwrite passes on HDD")
	fs.String("report-dir", shared.DefaultReportDir, "directory for reports")
	fs.String("key-dir", shared.DefaultKeyDir, "directory holding private.pem and public.pem")
	fs.Bool("no-sign", false, "do not sign the report")
	fs.Bool("pdf", false, "also render a PDF report")
	fs.Bool("json", false, "print the result as JSON")
	return cmd
}

// Summary is what the command prints.
type Summary struct {
	Target        string                  `json:"target"`
	Medium        string                  `json:"medium"`
	MediumSource  string                  `json:"medium_source"`
	Method        string                  `json:"method"`
	Erased        bool                    `json:"erased"`
	Verified      bool                    `json:"verified"`
	BestEffort    bool                    `json:"best_effort"`
	Note          string                  `json:"note,omitempty"`
	Passes        int                     `json:"passes_completed"`
	FailureReason string                  `json:"failure_reason,omitempty"`
	Report        *report.PersistedReport `json:"report,omitempty"`
}

func runFile(rc *wipe_io.RuntimeContext, cmd *cobra.Command, args []string) error {
	logger := otelzap.Ctx(rc.Ctx)
	target := args[0]
	if err := shared.ValidateTargetPath(target); err != nil {
		return wipe_err.NewValidationError(err.Error())
	}

	cfg, err := wipe_cli.LoadConfig(cmd)
	if err != nil {
		return err
	}
	if noSign, _ := cmd.Flags().GetBool("no-sign"); noSign {
		cfg.Sign = false
	}
	kind, err := wipe_cli.RequestedMedium(cfg)
	if err != nil {
		return err
	}

	app, err := wipe_cli.NewApp(cfg, rc.Log)
	if err != nil {
		return cerr.Wrap(err, "initialise pipeline")
	}
	defer app.FlushMetrics(rc.Log)

	rc.Attributes["target"] = target
	rc.Attributes["medium_requested"] = cfg.Medium
	logger.Info("Erasing file",
		zap.String("target", target),
		zap.String("medium", cfg.Medium),
		zap.Int("passes", cfg.Passes),
		zap.Bool("sign", cfg.Sign))

	res, runErr := app.Pipeline.Run(rc.Ctx, pipeline.Request{
		TargetPath: target,
		Medium:     kind,
		Passes:     cfg.Passes,
	})
	if res == nil || (res.Report == nil && runErr != nil) {
		return runErr
	}

	summary := summarise(target, res)
	asJSON, _ := cmd.Flags().GetBool("json")
	if err := render(cmd.OutOrStdout(), summary, asJSON); err != nil {
		return cerr.Wrap(err, "render result")
	}
	if runErr != nil {
		return runErr
	}

	if !res.Outcome.Success {
		return wipe_err.NewIntegrityError(
			fmt.Sprintf("erasure of %s did not complete (%s)", target, res.Outcome.FailureReason),
			res.Outcome.Err,
			"The attestation records the failure; inspect it before retrying")
	}
	if !res.Verified {
		return wipe_err.NewIntegrityError(
			fmt.Sprintf("%s is still present after erasure", target), nil)
	}
	return nil
}

func summarise(target string, res *pipeline.Result) Summary {
	return Summary{
		Target:        target,
		Medium:        res.Outcome.MediumUsed.String(),
		MediumSource:  res.MediumSource,
		Method:        res.Outcome.Method,
		Erased:        res.Outcome.Success,
		Verified:      res.Verified,
		BestEffort:    res.Outcome.BestEffort,
		Note:          res.Outcome.Notes[erase.NoteKey],
		Passes:        res.Outcome.PassesCompleted,
		FailureReason: res.Outcome.FailureReason,
		Report:        res.Report,
	}
}

func render(w io.Writer, s Summary, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	}

	status := "✓ erased"
	if !s.Erased {
		status = "✗ erasure failed: " + s.FailureReason
	}
	fmt.Fprintf(w, "%s %s\n", status, s.Target)
	fmt.Fprintf(w, "  medium:    %s (%s)\n", s.Medium, s.MediumSource)
	fmt.Fprintf(w, "  method:    %s\n", s.Method)
	fmt.Fprintf(w, "  verified:  %t\n", s.Verified)
	if s.Note != "" {
		fmt.Fprintf(w, "  note:      %s\n", s.Note)
	}
	if s.Report == nil {
		return nil
	}
	fmt.Fprintf(w, "  report:    %s\n", s.Report.JSONPath)
	if s.Report.HTMLPath != "" {
		fmt.Fprintf(w, "  html:      %s\n", s.Report.HTMLPath)
	}
	if s.Report.PDFPath != "" {
		fmt.Fprintf(w, "  pdf:       %s\n", s.Report.PDFPath)
	}
	fmt.Fprintf(w, "  digest:    %s\n", s.Report.Digest)
	if s.Report.Signed {
		fmt.Fprintf(w, "  signature: %s\n", s.Report.SigPath)
		fmt.Fprintf(w, "  pubkey:    %s\n", s.Report.PublicKeyPath)
	} else {
		reason := s.Report.SigningReason
		if reason == "" {
			reason = "disabled"
		}
		fmt.Fprintf(w, "  signature: none (%s)\n", reason)
	}
	return nil
}
