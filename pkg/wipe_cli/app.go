// pkg/wipe_cli/app.go

package wipe_cli

import (
	"os"
	"path/filepath"

	"github.com/CodeMonkeyCybersecurity/wipe/pkg/attest"
	"github.com/CodeMonkeyCybersecurity/wipe/pkg/config"
	"github.com/CodeMonkeyCybersecurity/wipe/pkg/keystore"
	"github.com/CodeMonkeyCybersecurity/wipe/pkg/medium"
	"github.com/CodeMonkeyCybersecurity/wipe/pkg/metrics"
	"github.com/CodeMonkeyCybersecurity/wipe/pkg/pipeline"
	"github.com/CodeMonkeyCybersecurity/wipe/pkg/report"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Persistent flag names shared by every subcommand.
const (
	FlagConfig  = "config"
	FlagEnvFile = "env-file"
)

// LoadConfig resolves configuration for cmd, binding its local flags over
// file and environment values.
func LoadConfig(cmd *cobra.Command) (*config.Config, error) {
	opts := config.LoadOptions{Flags: cmd.LocalFlags()}
	if f := cmd.Flags().Lookup(FlagConfig); f != nil {
		opts.ConfigFile = f.Value.String()
	}
	if f := cmd.Flags().Lookup(FlagEnvFile); f != nil {
		opts.EnvFile = f.Value.String()
	}
	return config.Load(opts)
}

// KeystoreOptions maps configuration onto keystore options.
func KeystoreOptions(cfg *config.Config, log *zap.Logger) keystore.Options {
	opts := keystore.OptionsForDir(cfg.KeyDir)
	opts.Bits = cfg.KeyBits
	opts.Logger = log
	if cfg.KeyPassphrase != "" {
		opts.Passphrase = []byte(cfg.KeyPassphrase)
	}
	return opts
}

// Classifier returns the classifier for "auto", or nil when the operator
// fixed the medium.
func Classifier(cfg *config.Config) medium.Classifier {
	if cfg.Medium != "auto" {
		return nil
	}
	return medium.NewCached(medium.NewSysfsClassifier(cfg.SysfsRoot), cfg.ClassifierCacheTTL, medium.DeviceID)
}

// RequestedMedium returns the operator's medium, or "" for auto.
func RequestedMedium(cfg *config.Config) (medium.Kind, error) {
	if cfg.Medium == "auto" {
		return "", nil
	}
	return medium.ParseKind(cfg.Medium)
}

// App bundles the wired pipeline with the recorder it reports into.
type App struct {
	Pipeline *pipeline.Pipeline
	Metrics  *metrics.Recorder
	Config   *config.Config
}

// NewApp wires classifier, signer, report generator, and metrics from cfg.
func NewApp(cfg *config.Config, log *zap.Logger) (*App, error) {
	var signer keystore.Signer
	if cfg.Sign {
		signer = keystore.NewStore(KeystoreOptions(cfg, log))
	}

	var rec *metrics.Recorder
	if cfg.Metrics {
		r, err := metrics.New()
		if err != nil {
			return nil, err
		}
		rec = r
	}

	p := pipeline.New(pipeline.Options{
		Classifier: Classifier(cfg),
		Builder:    attest.NewBuilder(nil),
		Reports: report.NewGenerator(report.Options{
			Dir:    cfg.ReportDir,
			PDF:    cfg.PDF,
			Signer: signer,
			Logger: log,
		}),
		Metrics: rec,
		Logger:  log,
	})
	return &App{Pipeline: p, Metrics: rec, Config: cfg}, nil
}

// FlushMetrics writes the textfile when metrics are enabled. It never
// creates the report directory; a run that wrote no report leaves no trace.
func (a *App) FlushMetrics(log *zap.Logger) {
	if a.Metrics == nil {
		return
	}
	path := a.Config.MetricsPath()
	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		log.Debug("Skipping metrics textfile", zap.String("path", path), zap.Error(err))
		return
	}
	if err := a.Metrics.WriteTextfile(path); err != nil {
		log.Warn("Failed to write metrics textfile", zap.String("path", path), zap.Error(err))
		return
	}
	log.Debug("Metrics written", zap.String("path", path))
}
