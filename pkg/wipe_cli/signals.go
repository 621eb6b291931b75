// pkg/wipe_cli/signals.go
//
// Interrupt handling for long-running erasures. The first SIGINT/SIGTERM
// cancels the command context so the current pass finishes and a failure
// report is still written; a second signal exits immediately.

package wipe_cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// CleanupFunc runs when the first signal arrives.
type CleanupFunc func() error

// CleanupTimeout bounds how long registered cleanups may run.
const CleanupTimeout = 5 * time.Second

// ForcedExitCode is used when a second signal arrives.
const ForcedExitCode = 130

type SignalHandler struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu           sync.Mutex
	cleanupFuncs []CleanupFunc

	sigChan  chan os.Signal
	doneChan chan struct{}
	stopOnce sync.Once

	exit func(code int)
}

func NewSignalHandler(parent context.Context) *SignalHandler {
	h := newSignalHandler(parent, os.Exit)
	signal.Notify(h.sigChan, os.Interrupt, syscall.SIGTERM)
	go h.handleSignals()
	return h
}

func newSignalHandler(parent context.Context, exit func(int)) *SignalHandler {
	ctx, cancel := context.WithCancel(parent)
	return &SignalHandler{
		ctx:      ctx,
		cancel:   cancel,
		sigChan:  make(chan os.Signal, 2),
		doneChan: make(chan struct{}),
		exit:     exit,
	}
}

// RegisterCleanup adds a cleanup; cleanups run in reverse registration order.
func (h *SignalHandler) RegisterCleanup(cleanup CleanupFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cleanupFuncs = append(h.cleanupFuncs, cleanup)
}

// Context is cancelled on the first signal.
func (h *SignalHandler) Context() context.Context {
	return h.ctx
}

func (h *SignalHandler) handleSignals() {
	logger := otelzap.Ctx(h.ctx)

	select {
	case sig := <-h.sigChan:
		logger.Warn("Received signal, stopping after the current pass",
			zap.String("signal", sig.String()))
		fmt.Fprintf(os.Stderr, "\n⚠️  Received %v, stopping after the current pass (send again to force exit)\n", sig)
		h.cancel()
		if err := h.runCleanup(); err != nil {
			logger.Warn("Cleanup completed with errors", zap.Error(err))
		}
	case <-h.doneChan:
		return
	}

	select {
	case sig := <-h.sigChan:
		logger.Error("Received second signal, forcing exit", zap.String("signal", sig.String()))
		fmt.Fprintln(os.Stderr, "⚠️  Received second interrupt, forcing exit!")
		h.exit(ForcedExitCode)
	case <-h.doneChan:
	}
}

func (h *SignalHandler) runCleanup() error {
	logger := otelzap.Ctx(h.ctx)

	h.mu.Lock()
	funcs := append([]CleanupFunc(nil), h.cleanupFuncs...)
	h.mu.Unlock()

	timeout, cancel := context.WithTimeout(context.Background(), CleanupTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		var result *multierror.Error
		for i := len(funcs) - 1; i >= 0; i-- {
			if err := funcs[i](); err != nil {
				logger.Warn("Cleanup function failed", zap.Int("index", i), zap.Error(err))
				result = multierror.Append(result, err)
			}
		}
		done <- result.ErrorOrNil()
	}()

	select {
	case err := <-done:
		return err
	case <-timeout.Done():
		logger.Error("Cleanup timed out", zap.Duration("timeout", CleanupTimeout))
		return fmt.Errorf("cleanup timed out after %s", CleanupTimeout)
	}
}

// Stop releases the signal subscription and the context. Safe to call twice.
func (h *SignalHandler) Stop() {
	h.stopOnce.Do(func() {
		signal.Stop(h.sigChan)
		close(h.doneChan)
		h.cancel()
	})
}
