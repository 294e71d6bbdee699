package webui

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

const maxRequestIDLength = 128

var validRequestID = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

type requestIDKey struct{}

// RequestIDFromContext returns the id assigned by LoggingMiddleware, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// LoggingMiddleware logs one structured line per request and assigns every
// request an id. A well-formed incoming X-Request-ID is kept; anything else
// is replaced with a fresh UUID.
type LoggingMiddleware struct {
	logger    *zap.Logger
	skipPaths map[string]bool
}

// NewLoggingMiddleware creates the middleware. Requests for skipPaths still
// get an id but are not logged.
func NewLoggingMiddleware(logger *zap.Logger, skipPaths ...string) *LoggingMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	skip := make(map[string]bool, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = true
	}
	return &LoggingMiddleware{logger: logger, skipPaths: skip}
}

// Handler wraps next.
func (m *LoggingMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if len(requestID) > maxRequestIDLength || !validRequestID.MatchString(requestID) {
			requestID = uuid.New().String()
		}
		w.Header().Set(RequestIDHeader, requestID)
		r = r.WithContext(context.WithValue(r.Context(), requestIDKey{}, requestID))

		if m.skipPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		wrapped := &responseWriterWrapper{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", wrapped.statusCode),
			zap.Duration("duration", time.Since(start)),
			zap.String("remote", r.RemoteAddr),
			zap.Int64("bytes", wrapped.bytesWritten),
		}
		if ce := m.logger.Check(levelForStatus(wrapped.statusCode), "http request"); ce != nil {
			ce.Write(fields...)
		}
	})
}

func levelForStatus(status int) zapcore.Level {
	switch {
	case status >= 500:
		return zapcore.ErrorLevel
	case status >= 400:
		return zapcore.WarnLevel
	default:
		return zapcore.InfoLevel
	}
}

// responseWriterWrapper records the status code and body size.
type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
	wroteHeader  bool
}

func (w *responseWriterWrapper) WriteHeader(statusCode int) {
	if !w.wroteHeader {
		w.statusCode = statusCode
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *responseWriterWrapper) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytesWritten += int64(n)
	return n, err
}

func (w *responseWriterWrapper) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
