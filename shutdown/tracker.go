// Package shutdown coordinates graceful shutdown of the reservation service:
// signal handling, draining in-flight requests and ordered resource cleanup.
package shutdown

import (
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// ErrTrackerClosed is returned when an operation starts after shutdown began.
var ErrTrackerClosed = errors.New("operation tracker is closed")

// ErrWaitTimeout is returned when in-flight operations outlive the wait.
var ErrWaitTimeout = errors.New("wait timeout: operations did not complete in time")

// OperationTracker counts in-flight operations so shutdown can wait for them.
type OperationTracker struct {
	wg     sync.WaitGroup
	mu     sync.Mutex
	active int64
	closed bool
}

func NewOperationTracker() *OperationTracker {
	return &OperationTracker{}
}

// Start registers an operation. It returns false once the tracker is closed;
// a true result must be paired with Done.
func (t *OperationTracker) Start() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return false
	}
	t.wg.Add(1)
	atomic.AddInt64(&t.active, 1)
	return true
}

// Done marks one started operation as finished.
func (t *OperationTracker) Done() {
	atomic.AddInt64(&t.active, -1)
	t.wg.Done()
}

// Wait blocks until every operation is done or timeout passes.
func (t *OperationTracker) Wait(timeout time.Duration) error {
	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-done:
		return nil
	case <-timer.C:
		return ErrWaitTimeout
	}
}

// Close stops new operations from starting.
func (t *OperationTracker) Close() {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
}

func (t *OperationTracker) ActiveCount() int64 {
	return atomic.LoadInt64(&t.active)
}

func (t *OperationTracker) IsClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// Middleware tracks each request and answers 503 once the tracker is closed,
// so a booking is either completed or refused, never cut off midway.
func (t *OperationTracker) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !t.Start() {
			w.Header().Set("Connection", "close")
			w.Header().Set("Retry-After", "5")
			http.Error(w, "Service is shutting down", http.StatusServiceUnavailable)
			return
		}
		defer t.Done()
		next.ServeHTTP(w, r)
	})
}
