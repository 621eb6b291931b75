package wipe_cli

import (
	"context"
	"errors"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignalHandlerFirstSignalCancels(t *testing.T) {
	exited := make(chan int, 1)
	h := newSignalHandler(context.Background(), func(code int) { exited <- code })
	go h.handleSignals()
	defer h.Stop()

	var mu sync.Mutex
	var order []int
	record := func(n int) {
		mu.Lock()
		defer mu.Unlock()
		order = append(order, n)
	}
	snapshot := func() []int {
		mu.Lock()
		defer mu.Unlock()
		return append([]int(nil), order...)
	}
	h.RegisterCleanup(func() error { record(1); return nil })
	h.RegisterCleanup(func() error { record(2); return errors.New("ignored") })

	h.sigChan <- syscall.SIGINT

	select {
	case <-h.Context().Done():
	case <-time.After(2 * time.Second):
		t.Fatal("context was not cancelled")
	}

	require.Eventually(t, func() bool { return len(snapshot()) == 2 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []int{2, 1}, snapshot())

	h.sigChan <- syscall.SIGTERM
	select {
	case code := <-exited:
		assert.Equal(t, ForcedExitCode, code)
	case <-time.After(2 * time.Second):
		t.Fatal("second signal did not force exit")
	}
}

func TestSignalHandlerStop(t *testing.T) {
	h := newSignalHandler(context.Background(), func(int) { t.Fatal("unexpected exit") })
	go h.handleSignals()

	h.Stop()
	assert.NotPanics(t, h.Stop)
	assert.ErrorIs(t, h.Context().Err(), context.Canceled)
}

func TestRunCleanupTimesOut(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for the cleanup timeout")
	}
	h := newSignalHandler(context.Background(), func(int) {})
	defer h.Stop()
	block := make(chan struct{})
	defer close(block)
	h.RegisterCleanup(func() error { <-block; return nil })

	err := h.runCleanup()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
}
