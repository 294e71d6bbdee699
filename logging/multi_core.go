package logging

import (
	"go.uber.org/zap/zapcore"
)

// NewMultiCore tees entries to stdout and to a rotating file at filePath.
// The file side is always JSON. The console side is colored text when
// isDev is set and JSON otherwise.
func NewMultiCore(level zapcore.Level, filePath string, isDev bool, console zapcore.WriteSyncer) zapcore.Core {
	return NewMultiCoreWithWriters(level, console, NewFileWriter(filePath), isDev)
}

// NewMultiCoreWithWriters is NewMultiCore over caller-supplied writers.
func NewMultiCoreWithWriters(level zapcore.Level, consoleWriter, fileWriter zapcore.WriteSyncer, isDev bool) zapcore.Core {
	fileCore := zapcore.NewCore(zapcore.NewJSONEncoder(NewEncoderConfig()), fileWriter, level)

	var consoleEncoder zapcore.Encoder
	if isDev {
		consoleEncoder = zapcore.NewConsoleEncoder(NewConsoleEncoderConfig())
	} else {
		consoleEncoder = zapcore.NewJSONEncoder(NewEncoderConfig())
	}
	consoleCore := zapcore.NewCore(consoleEncoder, consoleWriter, level)

	return zapcore.NewTee(consoleCore, fileCore)
}
