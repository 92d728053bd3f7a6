// Package shutdown turns process signals into context cancellation so an
// interrupted harvest can flush its batch and checkpoint before exiting.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
)

// Handler manages graceful shutdown.
type Handler struct {
	// State
	isShuttingDown atomic.Bool
	received       atomic.Value // os.Signal

	// Context
	ctx    context.Context
	cancel context.CancelFunc

	// Signal handling
	sigChan  chan os.Signal
	stopped  chan struct{}
	stopOnce sync.Once

	// Notification
	onShutdownStart func(sig os.Signal)
}

// Config holds shutdown configuration.
type Config struct {
	Signals         []os.Signal
	OnShutdownStart func(sig os.Signal) // sig is nil for programmatic shutdown
}

// DefaultConfig returns default configuration.
func DefaultConfig() Config {
	return Config{
		Signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
	}
}

// New creates a new shutdown handler and subscribes to the configured
// signals.
func New(cfg Config) *Handler {
	if len(cfg.Signals) == 0 {
		cfg.Signals = DefaultConfig().Signals
	}

	ctx, cancel := context.WithCancel(context.Background())

	h := &Handler{
		ctx:             ctx,
		cancel:          cancel,
		sigChan:         make(chan os.Signal, 1),
		stopped:         make(chan struct{}),
		onShutdownStart: cfg.OnShutdownStart,
	}

	signal.Notify(h.sigChan, cfg.Signals...)

	return h
}

// Context returns the shutdown context.
// This context is cancelled when shutdown begins.
func (h *Handler) Context() context.Context {
	return h.ctx
}

// Signal returns the signal that started shutdown, or nil.
func (h *Handler) Signal() os.Signal {
	sig, _ := h.received.Load().(os.Signal)
	return sig
}

// Wait blocks until a shutdown signal is received, shutdown starts some
// other way, or the handler is stopped.
func (h *Handler) Wait() {
	select {
	case sig := <-h.sigChan:
		h.received.Store(sig)
		h.Shutdown()
	case <-h.ctx.Done():
	case <-h.stopped:
	}
}

// Listen runs Wait in the background.
func (h *Handler) Listen() {
	go h.Wait()
}

// Shutdown notifies the start hook once and cancels the context.
func (h *Handler) Shutdown() {
	if !h.isShuttingDown.CompareAndSwap(false, true) {
		return
	}

	if h.onShutdownStart != nil {
		h.onShutdownStart(h.Signal())
	}

	h.cancel()
}

// Stop releases the signal subscription and ends any pending Wait. A second
// Ctrl-C after Stop falls through to the default handler and kills the
// process. The context is left as is, so a finished run is not reported as
// interrupted.
func (h *Handler) Stop() {
	h.stopOnce.Do(func() {
		signal.Stop(h.sigChan)
		close(h.stopped)
	})
}
