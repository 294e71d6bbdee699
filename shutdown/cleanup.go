package shutdown

import (
	"context"
	"errors"
	"io"
	"os"
	"syscall"
	"time"

	"go.uber.org/zap"

	"ruserwation/core"
)

// HTTPServer adapts a server with a context-aware Shutdown method.
func HTTPServer(srv interface {
	Shutdown(ctx context.Context) error
}) core.ShutdownFunc {
	return srv.Shutdown
}

// Closer adapts an io.Closer, such as the database or the redis client.
func Closer(c io.Closer) core.ShutdownFunc {
	return func(ctx context.Context) error {
		return c.Close()
	}
}

// Stopper is satisfied by *db.AsyncWriter.
type Stopper interface {
	Stop(timeout time.Duration) bool
	Pending() int
}

// DrainWriter stops an async writer, giving it until ctx's deadline (or
// fallback when ctx has none) to flush queued writes. Dropped writes are
// logged, not returned.
func DrainWriter(w Stopper, fallback time.Duration, logger *zap.Logger) core.ShutdownFunc {
	return func(ctx context.Context) error {
		timeout := fallback
		if deadline, ok := ctx.Deadline(); ok {
			timeout = time.Until(deadline)
		}
		pending := w.Pending()
		if !w.Stop(timeout) {
			logger.Warn("async writer did not drain before deadline", zap.Int("pending_at_stop", pending))
			return nil
		}
		if pending > 0 {
			logger.Info("async writer drained", zap.Int("writes", pending))
		}
		return nil
	}
}

// SyncLogger flushes the logger. The "invalid argument" and "inappropriate
// ioctl" errors that Sync returns for terminals are ignored.
func SyncLogger(logger *zap.Logger) core.ShutdownFunc {
	return func(ctx context.Context) error {
		err := logger.Sync()
		if err == nil || errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY) || errors.Is(err, os.ErrInvalid) {
			return nil
		}
		return err
	}
}
