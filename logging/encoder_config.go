package logging

import (
	"time"

	"go.uber.org/zap/zapcore"
)

// JSON keys used in log output.
const (
	FieldTimestamp  = "ts"
	FieldLevel      = "level"
	FieldLogger     = "logger"
	FieldMessage    = "msg"
	FieldStacktrace = "stacktrace"
	FieldCaller     = "caller"
)

// NewEncoderConfig is the JSON encoder config used for the log file and
// for production console output.
func NewEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        FieldTimestamp,
		LevelKey:       FieldLevel,
		NameKey:        FieldLogger,
		CallerKey:      FieldCaller,
		MessageKey:     FieldMessage,
		StacktraceKey:  FieldStacktrace,
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.RFC3339TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

// NewConsoleEncoderConfig uses colored levels and a short clock.
func NewConsoleEncoderConfig() zapcore.EncoderConfig {
	cfg := NewEncoderConfig()
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncodeTime = shortTimeEncoder
	cfg.EncodeDuration = zapcore.StringDurationEncoder
	return cfg
}

func shortTimeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("15:04:05.000"))
}
