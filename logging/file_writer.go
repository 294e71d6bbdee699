package logging

import (
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	DefaultMaxSizeMB  = 50
	DefaultMaxBackups = 5
	DefaultMaxAgeDays = 30
)

// FileWriterConfig holds lumberjack rotation settings.
// Zero numeric fields fall back to the defaults above.
type FileWriterConfig struct {
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
	LocalTime  bool
}

func DefaultFileWriterConfig() FileWriterConfig {
	return FileWriterConfig{
		MaxSizeMB:  DefaultMaxSizeMB,
		MaxBackups: DefaultMaxBackups,
		MaxAgeDays: DefaultMaxAgeDays,
		Compress:   true,
	}
}

// NewFileWriter returns a rotating WriteSyncer with the default settings.
func NewFileWriter(path string) zapcore.WriteSyncer {
	return NewFileWriterWithConfig(path, DefaultFileWriterConfig())
}

// NewFileWriterWithConfig returns a rotating WriteSyncer backed by lumberjack.
func NewFileWriterWithConfig(path string, config FileWriterConfig) zapcore.WriteSyncer {
	cfg := applyFileWriterDefaults(config)
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
		LocalTime:  cfg.LocalTime,
	})
}

func applyFileWriterDefaults(config FileWriterConfig) FileWriterConfig {
	if config.MaxSizeMB <= 0 {
		config.MaxSizeMB = DefaultMaxSizeMB
	}
	if config.MaxBackups <= 0 {
		config.MaxBackups = DefaultMaxBackups
	}
	if config.MaxAgeDays <= 0 {
		config.MaxAgeDays = DefaultMaxAgeDays
	}
	return config
}
