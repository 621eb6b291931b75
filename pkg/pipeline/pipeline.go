// pkg/pipeline/pipeline.go

// Package pipeline runs one erasure end to end:
// classify, hash, erase, verify, build the attestation, persist the report.
package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/CodeMonkeyCybersecurity/wipe/pkg/attest"
	"github.com/CodeMonkeyCybersecurity/wipe/pkg/erase"
	"github.com/CodeMonkeyCybersecurity/wipe/pkg/hashutil"
	"github.com/CodeMonkeyCybersecurity/wipe/pkg/medium"
	"github.com/CodeMonkeyCybersecurity/wipe/pkg/metrics"
	"github.com/CodeMonkeyCybersecurity/wipe/pkg/report"
	"github.com/CodeMonkeyCybersecurity/wipe/pkg/shared"
	"github.com/CodeMonkeyCybersecurity/wipe/pkg/telemetry"
	"github.com/CodeMonkeyCybersecurity/wipe/pkg/verify"
	"github.com/CodeMonkeyCybersecurity/wipe/pkg/wipe_err"
	cerr "github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Metadata keys written into every attestation.
const (
	MetaOutcome         = "outcome"
	MetaFailureReason   = "failure_reason"
	MetaPassesCompleted = "passes_completed"
	MetaZeroPass        = "zero_pass"
	MetaBestEffort      = "best_effort"
	MetaBytesPerPass    = "bytes_per_pass"
	MetaMediumSource    = "medium_source"
	MetaToolVersion     = "tool_version"
	MetaHostname        = "hostname"
	MetaHashError       = "hash_error"

	OutcomeErased = "erased"
	OutcomeFailed = "failed"
)

// Where the medium came from.
const (
	SourceOperator   = "operator"
	SourceClassifier = "classifier"
	SourceDefault    = "default"
)

// Options wires the stages together. Reports is required.
type Options struct {
	Classifier    medium.Classifier
	Builder       *attest.Builder
	Reports       *report.Generator
	Metrics       *metrics.Recorder
	Logger        *zap.Logger
	EngineOptions []erase.Option
	// Hostname overrides the recorded host name.
	Hostname string
}

// Request is one erasure job. Medium Unknown lets the classifier decide.
type Request struct {
	TargetPath string
	Medium     medium.Kind
	Passes     int
}

// Result holds every terminal state of a run.
type Result struct {
	Outcome          erase.Outcome
	MediumSource     string
	PreErasureSHA256 string
	Verified         bool
	Record           *attest.Record
	Report           *report.PersistedReport
}

// Pipeline is reusable across requests.
type Pipeline struct {
	classifier medium.Classifier
	builder    *attest.Builder
	reports    *report.Generator
	metrics    *metrics.Recorder
	logger     *zap.Logger
	engine     *erase.Engine
	hostname   string
}

func New(opts Options) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	builder := opts.Builder
	if builder == nil {
		builder = attest.NewBuilder(nil)
	}
	host := opts.Hostname
	if host == "" {
		host = shared.Hostname()
	}
	p := &Pipeline{
		classifier: opts.Classifier,
		builder:    builder,
		reports:    opts.Reports,
		metrics:    opts.Metrics,
		logger:     logger.Named("pipeline"),
		hostname:   host,
	}
	engineOpts := append([]erase.Option{erase.WithObserver(p.onPass)}, opts.EngineOptions...)
	p.engine = erase.NewEngine(logger, engineOpts...)
	return p
}

func (p *Pipeline) onPass(pass int, pattern erase.Pattern, bytes int64) {
	p.logger.Info("Pass complete", zap.Int("pass", pass), zap.String("pattern", string(pattern)))
	p.metrics.ObservePass(string(pattern), bytes)
}

// Run erases req.TargetPath and persists an attestation. A failed erasure
// still yields a report with verified=false; only a missing target, or a
// failure to persist the report, returns an error. When the JSON was written
// but a rendering was not, Result.Report still names the files on disk.
func (p *Pipeline) Run(ctx context.Context, req Request) (res *Result, err error) {
	ctx, span := telemetry.Start(ctx, "pipeline.Run", attribute.String("target", req.TargetPath))
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()
	if p.reports == nil {
		return nil, cerr.AssertionFailedf("pipeline has no report generator")
	}
	if !utf8.ValidString(req.TargetPath) {
		return nil, wipe_err.NewValidationError(
			fmt.Sprintf("target path %q is not valid UTF-8 and cannot be attested exactly", req.TargetPath),
			"Rename the file to a UTF-8 name first")
	}
	log := p.logger.With(zap.String("target", req.TargetPath))

	res = &Result{}
	kind, source := p.classify(ctx, log, req)
	res.MediumSource = source

	hashErr := ""
	res.PreErasureSHA256, hashErr = p.hash(ctx, log, req.TargetPath)

	started := time.Now()
	res.Outcome = p.erase(ctx, erase.Request{TargetPath: req.TargetPath, Medium: kind, Passes: req.Passes})
	p.metrics.ObserveErasure(res.Outcome.MediumUsed.String(), res.Outcome.Method, res.Outcome.Success, time.Since(started))

	if res.Outcome.FailureReason == wipe_err.ReasonNotFound {
		return res, res.Outcome.Err
	}

	res.Verified = p.verify(ctx, log, req.TargetPath, res.Outcome)

	rec, err := p.builder.Build(attest.BuildInput{
		Mode:             shared.ModeFile,
		Target:           req.TargetPath,
		Method:           res.Outcome.Method,
		PreErasureSHA256: res.PreErasureSHA256,
		Medium:           res.Outcome.MediumUsed,
		Verified:         res.Verified,
		Metadata:         p.metadata(res, hashErr),
	})
	if err != nil {
		return res, cerr.Wrap(err, "build attestation")
	}
	res.Record = &rec

	rep, err := p.generate(ctx, rec)
	res.Report = rep
	if err != nil {
		return res, cerr.Wrap(err, "persist report")
	}
	p.metrics.ObserveReport(rep.Signed, rep.SigningReason)

	log.Info("Run complete",
		zap.Bool("erased", res.Outcome.Success),
		zap.Bool("verified", res.Verified),
		zap.Bool("signed", rep.Signed),
		zap.String("report", rep.JSONPath))
	return res, nil
}

func (p *Pipeline) classify(ctx context.Context, log *zap.Logger, req Request) (medium.Kind, string) {
	if req.Medium.Valid() && req.Medium != medium.Unknown {
		return req.Medium, SourceOperator
	}
	if p.classifier == nil {
		return medium.Unknown, SourceDefault
	}
	ctx, span := telemetry.Start(ctx, "pipeline.classify")
	defer span.End()

	kind := medium.Resolve(ctx, p.classifier, req.TargetPath, log)
	span.SetAttributes(attribute.String("medium", kind.String()))
	log.Info("Medium classified", zap.String("medium", kind.String()))
	return kind, SourceClassifier
}

func (p *Pipeline) hash(ctx context.Context, log *zap.Logger, path string) (string, string) {
	_, span := telemetry.Start(ctx, "pipeline.hash")
	defer span.End()

	sum, err := hashutil.FileSHA256(path)
	if err != nil {
		log.Warn("Pre-erasure hash unavailable", zap.Error(err))
		telemetry.RecordError(span, err)
		return "", err.Error()
	}
	return sum, ""
}

func (p *Pipeline) erase(ctx context.Context, req erase.Request) erase.Outcome {
	ctx, span := telemetry.Start(ctx, "pipeline.erase",
		attribute.String("medium", req.Medium.String()),
		attribute.Int("passes", req.Passes))
	defer span.End()

	out := p.engine.Erase(ctx, req)
	span.SetAttributes(
		attribute.Bool("success", out.Success),
		attribute.Int("passes_completed", out.PassesCompleted),
		attribute.String("method", out.Method))
	telemetry.RecordError(span, out.Err)
	return out
}

// verify confirms the target is gone. It never upgrades a failed erasure.
func (p *Pipeline) verify(ctx context.Context, log *zap.Logger, path string, out erase.Outcome) bool {
	_, span := telemetry.Start(ctx, "pipeline.verify")
	defer span.End()

	if !out.Success {
		return false
	}
	absent, err := verify.TargetAbsent(path)
	if err != nil {
		log.Warn("Post-erasure check failed", zap.Error(err))
		telemetry.RecordError(span, err)
		return false
	}
	if !absent {
		log.Error("Target still present after reported erasure")
	}
	return absent
}

func (p *Pipeline) generate(ctx context.Context, rec attest.Record) (*report.PersistedReport, error) {
	ctx, span := telemetry.Start(ctx, "pipeline.report")
	defer span.End()

	rep, err := p.reports.Generate(ctx, rec)
	if err != nil {
		telemetry.RecordError(span, err)
		return rep, err
	}
	span.SetAttributes(attribute.Bool("signed", rep.Signed), attribute.String("digest", rep.Digest))
	return rep, nil
}

func (p *Pipeline) metadata(res *Result, hashErr string) map[string]string {
	out := res.Outcome
	meta := map[string]string{
		MetaPassesCompleted: strconv.Itoa(out.PassesCompleted),
		MetaBestEffort:      strconv.FormatBool(out.BestEffort),
		MetaBytesPerPass:    strconv.FormatInt(out.BytesPerPass, 10),
		MetaMediumSource:    res.MediumSource,
		MetaToolVersion:     shared.Version,
		MetaHostname:        p.hostname,
	}
	if out.MediumUsed == medium.HDD {
		meta[MetaZeroPass] = strconv.FormatBool(out.ZeroPass)
	}
	for k, v := range out.Notes {
		meta[k] = v
	}
	if out.Success {
		meta[MetaOutcome] = OutcomeErased
	} else {
		meta[MetaOutcome] = OutcomeFailed
		meta[MetaFailureReason] = out.FailureReason
	}
	if hashErr != "" {
		meta[MetaHashError] = hashErr
	}
	return meta
}
