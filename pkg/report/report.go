// pkg/report/report.go

// Package report persists attestation records: the canonical JSON that is
// the authoritative artifact, its detached signature, and human-readable
// HTML and PDF renderings.
package report

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/CodeMonkeyCybersecurity/wipe/pkg/attest"
	"github.com/CodeMonkeyCybersecurity/wipe/pkg/fileops"
	"github.com/CodeMonkeyCybersecurity/wipe/pkg/keystore"
	"github.com/CodeMonkeyCybersecurity/wipe/pkg/shared"
	"github.com/CodeMonkeyCybersecurity/wipe/pkg/wipe_err"
	cerr "github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

const maxCollisionSuffix = 1000

// PersistedReport lists what Generate wrote.
type PersistedReport struct {
	JSONPath      string `json:"json_path"`
	HTMLPath      string `json:"html_path"`
	PDFPath       string `json:"pdf_path,omitempty"`
	SigPath       string `json:"sig_path,omitempty"`
	PublicKeyPath string `json:"public_key_path,omitempty"`
	Signed        bool   `json:"signed"`
	SigningError  string `json:"signing_error,omitempty"`
	SigningReason string `json:"signing_reason,omitempty"`
	Digest        string `json:"digest"`
	CanonicalJSON []byte `json:"-"`
}

// Options configures a Generator.
type Options struct {
	Dir string
	PDF bool
	// Signer may be nil, in which case reports are written unsigned.
	Signer keystore.Signer
	Logger *zap.Logger
}

// Generator writes report files for records.
type Generator struct {
	dir    string
	pdf    bool
	signer keystore.Signer
	logger *zap.Logger
	files  *fileops.FileSystemOperations
}

func NewGenerator(opts Options) *Generator {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	dir := opts.Dir
	if dir == "" {
		dir = shared.DefaultReportDir
	}
	return &Generator{
		dir:    dir,
		pdf:    opts.PDF,
		signer: opts.Signer,
		logger: logger.Named("report"),
		files:  fileops.NewFileSystemOperations(logger),
	}
}

// Generate persists rec. Failure to write the JSON, HTML or PDF is returned
// as an error. Failure to sign is not: the report is kept unsigned and the
// reason is recorded in SigningError. Once the JSON is on disk the returned
// report is non-nil even with an error, and names only files that exist.
func (g *Generator) Generate(ctx context.Context, rec attest.Record) (*PersistedReport, error) {
	canonical, err := attest.Canonical(rec)
	if err != nil {
		return nil, err
	}
	out := &PersistedReport{
		CanonicalJSON: canonical,
		Digest:        attest.Digest(canonical),
	}

	base, err := g.publishJSON(ctx, rec.Timestamp, canonical)
	if err != nil {
		return nil, err
	}
	out.JSONPath = base + ".json"
	log := g.logger.With(zap.String("json_path", out.JSONPath), zap.String("digest", out.Digest))

	g.sign(ctx, log, out)

	v := view{
		Record:        rec,
		Digest:        out.Digest,
		Signed:        out.Signed,
		SigningError:  out.SigningError,
		SigFile:       filepath.Base(out.SigPath),
		JSONFile:      filepath.Base(out.JSONPath),
		PublicKeyPath: out.PublicKeyPath,
	}

	html, err := renderHTML(v)
	if err != nil {
		return out, err
	}
	htmlPath := base + ".html"
	if err := g.files.WriteFile(ctx, htmlPath, html, shared.FilePermStandard); err != nil {
		return out, cerr.Wrap(err, "write HTML report")
	}
	out.HTMLPath = htmlPath

	if g.pdf {
		pdf, err := renderPDF(v)
		if err != nil {
			return out, err
		}
		pdfPath := base + ".pdf"
		if err := g.files.WriteFile(ctx, pdfPath, pdf, shared.FilePermStandard); err != nil {
			return out, cerr.Wrap(err, "write PDF report")
		}
		out.PDFPath = pdfPath
	}

	log.Info("Report written",
		zap.Bool("signed", out.Signed),
		zap.String("html_path", out.HTMLPath),
		zap.String("pdf_path", out.PDFPath))
	return out, nil
}

// publishJSON writes canonical to report_<ts>.json, appending _<n> until a
// free name is found. It returns the path without extension.
func (g *Generator) publishJSON(ctx context.Context, ts string, canonical []byte) (string, error) {
	stem := filepath.Join(g.dir, shared.ReportPrefix+ts)
	for n := 0; n < maxCollisionSuffix; n++ {
		base := stem
		if n > 0 {
			base = fmt.Sprintf("%s_%d", stem, n)
		}
		err := g.files.WriteFileExclusive(ctx, base+".json", canonical, shared.FilePermStandard)
		if err == nil {
			return base, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", cerr.Wrap(err, "write JSON report")
		}
	}
	return "", cerr.Newf("no free report name for %s after %d attempts", stem, maxCollisionSuffix)
}

func (g *Generator) sign(ctx context.Context, log *zap.Logger, out *PersistedReport) {
	if g.signer == nil {
		out.SigningError = wipe_err.SigningUnavailable("signing disabled").Error()
		out.SigningReason = wipe_err.ReasonSigningUnavailable
		return
	}
	sig, err := g.signer.Sign(ctx, out.CanonicalJSON)
	if err != nil {
		out.SigningError = err.Error()
		out.SigningReason = wipe_err.Reason(err)
		if out.SigningReason == "" {
			out.SigningReason = wipe_err.ReasonSigningUnavailable
		}
		log.Warn("Report left unsigned",
			zap.String("reason", wipe_err.Reason(err)),
			zap.Error(err))
		return
	}

	sigPath := out.JSONPath + shared.SignatureSuffix
	if err := g.files.WriteFile(ctx, sigPath, sig, shared.FilePermStandard); err != nil {
		out.SigningError = fmt.Sprintf("write signature: %v", err)
		out.SigningReason = wipe_err.ReasonSigningUnavailable
		log.Warn("Report left unsigned", zap.Error(err))
		return
	}
	out.SigPath = sigPath
	out.PublicKeyPath = g.signer.PublicKeyPath()
	out.Signed = true
}
