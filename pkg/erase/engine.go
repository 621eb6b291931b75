// pkg/erase/engine.go

// Package erase overwrites and removes a single file using a strategy chosen
// by its storage medium.
package erase

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/CodeMonkeyCybersecurity/wipe/pkg/fileops"
	"github.com/CodeMonkeyCybersecurity/wipe/pkg/medium"
	"github.com/CodeMonkeyCybersecurity/wipe/pkg/shared"
	"github.com/CodeMonkeyCybersecurity/wipe/pkg/verify"
	"github.com/CodeMonkeyCybersecurity/wipe/pkg/wipe_err"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Engine performs erasures. The zero value is not usable; use NewEngine.
type Engine struct {
	logger    *zap.Logger
	random    io.Reader
	observer  PassObserver
	open      Opener
	rename    func(oldpath, newpath string) error
	remove    func(path string) error
	chunkSize int
}

// Option configures an Engine.
type Option func(*Engine)

// WithRandom replaces crypto/rand as the source of random pass content.
func WithRandom(r io.Reader) Option { return func(e *Engine) { e.random = r } }

func WithObserver(o PassObserver) Option { return func(e *Engine) { e.observer = o } }

func WithOpener(o Opener) Option { return func(e *Engine) { e.open = o } }

func WithChunkSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.chunkSize = n
		}
	}
}

// WithFS overrides rename and remove.
func WithFS(rename func(string, string) error, remove func(string) error) Option {
	return func(e *Engine) {
		if rename != nil {
			e.rename = rename
		}
		if remove != nil {
			e.remove = remove
		}
	}
}

func NewEngine(logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		logger:    logger.Named("erase"),
		random:    rand.Reader,
		open:      OpenLocked,
		rename:    os.Rename,
		remove:    os.Remove,
		chunkSize: shared.ChunkSize,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type plan struct {
	randomPasses int
	zeroPass     bool
	rename       bool
	method       string
	bestEffort   bool
	note         string
}

func planFor(req Request) plan {
	switch req.Medium {
	case medium.HDD:
		n := req.Passes
		if n <= 0 {
			n = shared.DefaultHDDPasses
		}
		return plan{randomPasses: n, zeroPass: true, method: MethodHDD(n)}
	case medium.SSD:
		return plan{randomPasses: 1, rename: true, method: MethodSSD, bestEffort: true, note: SSDNote}
	default:
		return plan{randomPasses: 1, method: MethodUnknown, bestEffort: true, note: UnknownNote}
	}
}

// Erase runs the medium strategy against req.TargetPath. It never returns a
// successful outcome unless every pass was flushed and the path is gone.
// Cancellation is honoured between passes only.
func (e *Engine) Erase(ctx context.Context, req Request) Outcome {
	kind := req.Medium
	if !kind.Valid() {
		kind = medium.Unknown
	}
	req.Medium = kind
	p := planFor(req)

	out := Outcome{
		MediumUsed: kind,
		Method:     p.method,
		BestEffort: p.bestEffort,
		Notes:      map[string]string{},
	}
	if p.note != "" {
		out.Notes[NoteKey] = p.note
	}
	log := e.logger.With(zap.String("target", req.TargetPath), zap.String("medium", kind.String()))

	_, regular, err := verify.RegularFile(req.TargetPath)
	if err != nil {
		return e.fail(log, out, wipe_err.IoFailure(err, "stat %s", req.TargetPath))
	}
	if !regular {
		return e.fail(log, out, wipe_err.NotFound(req.TargetPath, errNotRegular))
	}

	f, err := e.open(req.TargetPath)
	if err != nil {
		return e.fail(log, out, err)
	}
	closed := false
	closeFile := func() {
		if closed {
			return
		}
		closed = true
		if cerr := f.Close(); cerr != nil {
			log.Warn("Close after erasure failed", zap.Error(cerr))
		}
	}
	defer closeFile()

	// Size is taken from the locked descriptor, not the earlier Lstat.
	info, err := f.Stat()
	if err != nil {
		return e.fail(log, out, wipe_err.IoFailure(err, "stat %s", req.TargetPath))
	}
	if !info.Mode().IsRegular() {
		return e.fail(log, out, wipe_err.NotFound(req.TargetPath, errNotRegular))
	}
	size := info.Size()
	out.BytesPerPass = size

	log.Info("Erasure started",
		zap.String("method", p.method),
		zap.Int("random_passes", p.randomPasses),
		zap.Bool("zero_pass", p.zeroPass),
		zap.Int64("bytes_per_pass", size))

	pass := 0
	for i := 0; i < p.randomPasses; i++ {
		pass++
		if err := ctx.Err(); err != nil {
			return e.fail(log, out, wipe_err.IoFailure(err, "erasure cancelled before pass %d", pass))
		}
		if err := e.writePass(f, size, PatternRandom); err != nil {
			return e.fail(log, out, wipe_err.IoFailure(err, "pass %d", pass))
		}
		out.PassesCompleted++
		e.passDone(log, pass, PatternRandom, size)
	}
	if p.zeroPass {
		pass++
		if err := ctx.Err(); err != nil {
			return e.fail(log, out, wipe_err.IoFailure(err, "erasure cancelled before zero pass"))
		}
		if err := e.writePass(f, size, PatternZero); err != nil {
			return e.fail(log, out, wipe_err.IoFailure(err, "zero pass"))
		}
		out.ZeroPass = true
		e.passDone(log, pass, PatternZero, size)
	}

	dir := filepath.Dir(req.TargetPath)
	victim := req.TargetPath
	if p.rename {
		renamed := filepath.Join(dir, ".wipe_"+strings.ReplaceAll(uuid.NewString(), "-", ""))
		if err := e.rename(req.TargetPath, renamed); err != nil {
			return e.fail(log, out, wipe_err.DeleteFailed(req.TargetPath, fmt.Errorf("rename before discard: %w", err)))
		}
		if err := fileops.SyncDir(dir); err != nil {
			log.Warn("Directory fsync after rename failed", zap.String("dir", dir), zap.Error(err))
		}
		out.Notes[RenamedKey] = filepath.Base(renamed)
		victim = renamed
	}

	if err := e.remove(victim); err != nil {
		return e.fail(log, out, wipe_err.DeleteFailed(victim, err))
	}
	closeFile()
	if err := fileops.SyncDir(dir); err != nil {
		log.Warn("Directory fsync after removal failed", zap.String("dir", dir), zap.Error(err))
	}

	out.Success = true
	log.Info("Erasure complete",
		zap.String("method", out.Method),
		zap.Int("passes_completed", out.PassesCompleted),
		zap.Bool("best_effort", out.BestEffort))
	return out
}

// writePass overwrites [0, size) with pattern, then fsyncs.
func (e *Engine) writePass(f File, size int64, pattern Pattern) error {
	n := e.chunkSize
	if size < int64(n) {
		n = int(size)
	}
	buf := make([]byte, n)

	for off := int64(0); off < size; {
		chunk := buf
		if rem := size - off; rem < int64(len(chunk)) {
			chunk = chunk[:rem]
		}
		if pattern == PatternRandom {
			if _, err := io.ReadFull(e.random, chunk); err != nil {
				return fmt.Errorf("read random source: %w", err)
			}
		}
		w, err := f.WriteAt(chunk, off)
		if err != nil {
			return fmt.Errorf("write at offset %d: %w", off, err)
		}
		if w != len(chunk) {
			return fmt.Errorf("short write at offset %d: %d of %d bytes", off, w, len(chunk))
		}
		off += int64(w)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("fsync: %w", err)
	}
	return nil
}

func (e *Engine) passDone(log *zap.Logger, pass int, pattern Pattern, size int64) {
	log.Debug("Pass flushed", zap.Int("pass", pass), zap.String("pattern", string(pattern)))
	if e.observer != nil {
		e.observer(pass, pattern, size)
	}
}

func (e *Engine) fail(log *zap.Logger, out Outcome, err error) Outcome {
	out.Success = false
	out.Err = err
	out.FailureReason = wipe_err.Reason(err)
	if out.FailureReason == "" {
		out.FailureReason = wipe_err.ReasonIoFailure
	}
	log.Error("Erasure failed",
		zap.String("reason", out.FailureReason),
		zap.Int("passes_completed", out.PassesCompleted),
		zap.Error(err))
	return out
}
