package shutdown

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"ruserwation/core"
)

// DefaultTimeout bounds the whole shutdown sequence.
const DefaultTimeout = 30 * time.Second

// Manager ties signal handling, request draining and cleanup together.
//
//	m := shutdown.NewManager(logger)
//	m.Register("database", shutdown.PriorityDatabase, shutdown.Closer(database))
//	m.Start()
//	<-m.Context().Done()
//	m.Shutdown()
type Manager struct {
	logger  *zap.Logger
	timeout time.Duration
	exit    func(code int)

	mu       sync.Mutex
	started  bool
	shutdown bool
	received os.Signal

	ctx    context.Context
	cancel context.CancelFunc

	tracker  *OperationTracker
	registry *Registry
	signals  *SignalCounter
	sigChan  chan os.Signal
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

func WithTimeout(timeout time.Duration) ManagerOption {
	return func(m *Manager) {
		if timeout > 0 {
			m.timeout = timeout
		}
	}
}

// WithExitFunc replaces os.Exit for the forced exit on a second signal.
func WithExitFunc(exit func(code int)) ManagerOption {
	return func(m *Manager) { m.exit = exit }
}

// WithParent derives the managed context from parent instead of Background.
func WithParent(parent context.Context) ManagerOption {
	return func(m *Manager) {
		m.cancel()
		m.ctx, m.cancel = context.WithCancel(parent)
	}
}

func NewManager(logger *zap.Logger, opts ...ManagerOption) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		logger:   logger,
		timeout:  DefaultTimeout,
		exit:     os.Exit,
		ctx:      ctx,
		cancel:   cancel,
		tracker:  NewOperationTracker(),
		registry: NewRegistry(),
		sigChan:  make(chan os.Signal, 2),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.signals = NewSignalCounter(2, func() {
		m.logger.Warn("second signal received, exiting without cleanup")
		m.exit(core.ExitCodeError)
	})
	return m
}

// Context is cancelled when shutdown begins.
func (m *Manager) Context() context.Context {
	return m.ctx
}

// Register adds a cleanup function. Lower priorities run first.
func (m *Manager) Register(name string, priority int, fn core.ShutdownFunc) {
	m.registry.Register(name, priority, fn)
	m.logger.Debug("registered shutdown handler", zap.String("name", name), zap.Int("priority", priority))
}

// Start listens for SIGINT and SIGTERM. Calling it again does nothing.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return
	}
	m.started = true

	signal.Notify(m.sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		for sig := range m.sigChan {
			m.handleSignal(sig)
		}
	}()
}

func (m *Manager) handleSignal(sig os.Signal) {
	if m.signals.Increment() == 1 {
		m.mu.Lock()
		m.received = sig
		m.mu.Unlock()
		m.logger.Info("shutdown signal received", zap.String("signal", sig.String()))
		m.cancel()
	}
}

// Trigger begins shutdown without a signal, e.g. when the server fails.
func (m *Manager) Trigger() {
	m.cancel()
}

// ExitCode returns the exit status matching the signal that started shutdown,
// or success when none did.
func (m *Manager) ExitCode() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.received == nil {
		return core.ExitCodeSuccess
	}
	return ExitCodeForSignal(m.received)
}

// Shutdown refuses new requests, waits for in-flight ones and runs the
// cleanup functions with whatever time is left. Only the first call does
// anything.
func (m *Manager) Shutdown() error {
	m.mu.Lock()
	if m.shutdown {
		m.mu.Unlock()
		return nil
	}
	m.shutdown = true
	started := m.started
	m.mu.Unlock()

	m.cancel()
	begin := time.Now()
	m.logger.Info("graceful shutdown started",
		zap.Duration("timeout", m.timeout),
		zap.Int64("in_flight", m.tracker.ActiveCount()),
		zap.Strings("handlers", m.registry.Names()))

	m.tracker.Close()
	if err := m.tracker.Wait(m.timeout); err != nil {
		m.logger.Warn("in-flight requests still running",
			zap.Int64("remaining", m.tracker.ActiveCount()),
			zap.Duration("waited", time.Since(begin)))
	}

	remaining := m.timeout - time.Since(begin)
	if remaining < time.Second {
		remaining = time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), remaining)
	defer cancel()

	errs := m.registry.Shutdown(ctx)
	for _, err := range errs {
		m.logger.Error("cleanup failed", zap.Error(err))
	}

	if started {
		signal.Stop(m.sigChan)
		close(m.sigChan)
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown finished with %d errors: %w", len(errs), errs[0])
	}
	m.logger.Info("graceful shutdown complete", zap.Duration("duration", time.Since(begin)))
	return nil
}

// Middleware tracks HTTP requests so Shutdown can wait for them.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return m.tracker.Middleware(next)
}

func (m *Manager) ActiveOperations() int64 {
	return m.tracker.ActiveCount()
}

func (m *Manager) IsShuttingDown() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shutdown
}

// RegisteredHandlers lists cleanup names in execution order.
func (m *Manager) RegisteredHandlers() []string {
	return m.registry.Names()
}
