package db

import (
	"context"
	"sync"
	"time"
)

const (
	// DefaultChannelCapacity is the buffer size for queued writes.
	DefaultChannelCapacity = 100

	// DefaultDrainTimeout bounds how long Stop waits for queued writes.
	DefaultDrainTimeout = 10 * time.Second
)

// WriteOperation is one queued write.
type WriteOperation struct {
	Data      interface{}
	Timestamp time.Time
}

// WriteHandler applies a queued write. It handles its own logging.
type WriteHandler func(op WriteOperation) error

// AsyncWriter applies writes off the request path through a buffered
// channel and one background goroutine. Login uses it to record
// last_login_time without delaying the response.
type AsyncWriter struct {
	writeChan chan WriteOperation
	handler   WriteHandler
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	started   bool
	stopOnce  sync.Once
	mu        sync.Mutex
}

// NewAsyncWriter creates a writer with the given buffer capacity.
// A non-positive capacity uses DefaultChannelCapacity.
func NewAsyncWriter(handler WriteHandler, capacity int) *AsyncWriter {
	if capacity <= 0 {
		capacity = DefaultChannelCapacity
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &AsyncWriter{
		writeChan: make(chan WriteOperation, capacity),
		handler:   handler,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start launches the background goroutine. Calling it again is a no-op.
func (w *AsyncWriter) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return
	}
	w.started = true
	w.wg.Add(1)
	go w.processWrites()
}

func (w *AsyncWriter) processWrites() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			w.drainChannel()
			return
		case op := <-w.writeChan:
			_ = w.handler(op)
		}
	}
}

func (w *AsyncWriter) drainChannel() {
	for {
		select {
		case op := <-w.writeChan:
			_ = w.handler(op)
		default:
			return
		}
	}
}

// Write queues data without blocking. It returns false when the buffer is
// full or the writer has been stopped.
func (w *AsyncWriter) Write(data interface{}) bool {
	if w.ctx.Err() != nil {
		return false
	}
	select {
	case w.writeChan <- WriteOperation{Data: data, Timestamp: time.Now()}:
		return true
	default:
		return false
	}
}

// Pending returns the number of queued operations.
func (w *AsyncWriter) Pending() int {
	return len(w.writeChan)
}

// Stop drains queued writes and waits up to timeout for the goroutine to
// finish. It returns false on timeout. Only the first call has an effect.
func (w *AsyncWriter) Stop(timeout time.Duration) bool {
	ok := true
	w.stopOnce.Do(func() {
		w.cancel()
		done := make(chan struct{})
		go func() {
			w.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(timeout):
			ok = false
		}
	})
	return ok
}

func (w *AsyncWriter) IsStarted() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.started
}
