package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.Logger with console + rotating file output and
// redaction of credentials, ref_check tokens and password hashes.
//
// Redaction happens in the core, so loggers handed out through Zap()
// to other packages are filtered the same way.
//
// Example:
//
//	logger, err := NewLogger(true, "ruserwation.log", zapcore.DebugLevel)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer logger.Sync()
//
//	logger.Info("server started", zap.Int("port", 3030))
type Logger struct {
	zap           *zap.Logger
	sugar         *zap.SugaredLogger
	isDevelopment bool
	logFilePath   string
}

// Options configures New.
type Options struct {
	// Development selects the colored console encoder.
	Development bool

	// Level is the minimum enabled level for both outputs.
	Level zapcore.Level

	// FilePath is the JSON log file. Its directory is created if missing.
	FilePath string

	// File tunes lumberjack rotation. Zero values use the defaults.
	File FileWriterConfig

	// Console overrides stdout; tests pass a buffer.
	Console zapcore.WriteSyncer
}

// NewLogger creates a Logger writing to stdout and to logFilePath.
func NewLogger(isDevelopment bool, logFilePath string, level zapcore.Level) (*Logger, error) {
	return New(Options{
		Development: isDevelopment,
		Level:       level,
		FilePath:    logFilePath,
		File:        DefaultFileWriterConfig(),
	})
}

// New creates a Logger from explicit options.
func New(opts Options) (*Logger, error) {
	if opts.FilePath == "" {
		return nil, fmt.Errorf("log file path is empty")
	}
	if dir := filepath.Dir(opts.FilePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
		}
	}

	console := opts.Console
	if console == nil {
		console = zapcore.Lock(os.Stdout)
	}
	file := NewFileWriterWithConfig(opts.FilePath, opts.File)

	core := NewMultiCoreWithWriters(opts.Level, console, file, opts.Development)
	zapLogger := zap.New(NewRedactingCore(core),
		zap.AddCaller(),
		zap.AddCallerSkip(1),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)

	return &Logger{
		zap:           zapLogger,
		sugar:         zapLogger.Sugar(),
		isDevelopment: opts.Development,
		logFilePath:   opts.FilePath,
	}, nil
}

// NewNop returns a Logger that discards everything.
func NewNop() *Logger {
	z := zap.NewNop()
	return &Logger{zap: z, sugar: z.Sugar()}
}

// Sync flushes buffered entries. Call before exit.
func (l *Logger) Sync() error {
	if l == nil || l.zap == nil {
		return nil
	}
	return l.zap.Sync()
}

func (l *Logger) Debug(msg string, fields ...zap.Field) { l.zap.Debug(msg, fields...) }
func (l *Logger) Info(msg string, fields ...zap.Field)  { l.zap.Info(msg, fields...) }
func (l *Logger) Warn(msg string, fields ...zap.Field)  { l.zap.Warn(msg, fields...) }
func (l *Logger) Error(msg string, fields ...zap.Field) { l.zap.Error(msg, fields...) }

// Fatal logs then calls os.Exit(1).
func (l *Logger) Fatal(msg string, fields ...zap.Field) { l.zap.Fatal(msg, fields...) }

// Panic logs then panics with msg.
func (l *Logger) Panic(msg string, fields ...zap.Field) { l.zap.Panic(msg, fields...) }

// Infow logs loosely-typed key/value pairs at InfoLevel.
//
//	logger.Infow("admin bootstrapped", "username", name, "generated", true)
func (l *Logger) Infow(msg string, keysAndValues ...interface{}) {
	l.sugar.Infow(msg, keysAndValues...)
}

func (l *Logger) Warnw(msg string, keysAndValues ...interface{}) {
	l.sugar.Warnw(msg, keysAndValues...)
}

func (l *Logger) Errorw(msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, keysAndValues...)
}

func (l *Logger) Infof(template string, args ...interface{}) {
	l.sugar.Infof(template, args...)
}

// With returns a child logger carrying fields on every entry.
func (l *Logger) With(fields ...zap.Field) *Logger {
	z := l.zap.With(fields...)
	return &Logger{zap: z, sugar: z.Sugar(), isDevelopment: l.isDevelopment, logFilePath: l.logFilePath}
}

// Named adds a sub-logger name such as "http" or "db".
func (l *Logger) Named(name string) *Logger {
	z := l.zap.Named(name)
	return &Logger{zap: z, sugar: z.Sugar(), isDevelopment: l.isDevelopment, logFilePath: l.logFilePath}
}

// Zap returns the underlying logger for packages that take *zap.Logger.
// The wrapper's caller skip is removed so call sites stay accurate.
func (l *Logger) Zap() *zap.Logger {
	return l.zap.WithOptions(zap.AddCallerSkip(-1))
}

func (l *Logger) IsDevelopment() bool { return l.isDevelopment }
func (l *Logger) LogFilePath() string { return l.logFilePath }
