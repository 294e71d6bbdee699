package logging

import (
	"os"
	"strings"

	"go.uber.org/zap/zapcore"
)

// ParseLogLevel reads envVarName and parses it, returning defaultLevel
// when unset or unrecognised.
//
//	level := ParseLogLevel("RW_LOG_LEVEL", zapcore.InfoLevel)
func ParseLogLevel(envVarName string, defaultLevel zapcore.Level) zapcore.Level {
	return ParseLogLevelString(os.Getenv(envVarName), defaultLevel)
}

// ParseLogLevelString parses debug, info, warn/warning, error or fatal,
// case-insensitively.
func ParseLogLevelString(levelStr string, defaultLevel zapcore.Level) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return defaultLevel
	}
}

// DefaultLevel is debug in development and info otherwise.
func DefaultLevel(isDevelopment bool) zapcore.Level {
	if isDevelopment {
		return zapcore.DebugLevel
	}
	return zapcore.InfoLevel
}
