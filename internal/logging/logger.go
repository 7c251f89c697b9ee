// Package logging is the central logging package of the CLI. It holds our custom log formatters for zap.
package logging

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewProductionLogger returns a logger that prints Info messages to stdout and Warn & above to stderr.
func NewProductionLogger() *zap.SugaredLogger {
	return NewLogger(os.Stdout, os.Stderr, false)
}

// NewDebugLogger is similar to our production logger, however it also includes debug output & stacktraces
func NewDebugLogger() *zap.SugaredLogger {
	return NewLogger(os.Stdout, os.Stderr, true)
}

// NewLogger builds a console logger writing Info to `stdout` and everything else to `stderr`.
func NewLogger(stdout, stderr io.Writer, debug bool) *zap.SugaredLogger {
	if !debug {
		encoder := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
			// These strings are meaningless - they just need to be non-empty for the console encoder.
			MessageKey: "M",
			LevelKey:   "L",
			EncodeLevel: func(lvl zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
				// Anything other than "info" logs will have a capitalized level prefix.
				if lvl != zapcore.InfoLevel {
					zapcore.CapitalLevelEncoder(lvl, enc)
				}
			},
		})

		return zap.New(tee(encoder, stdout, stderr, false)).Sugar()
	}

	encoder := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		LevelKey:      "L",
		MessageKey:    "M",
		NameKey:       "N",
		StacktraceKey: "S",
		TimeKey:       "T",
		EncodeLevel:   zapcore.CapitalColorLevelEncoder,
		EncodeTime:    zapcore.ISO8601TimeEncoder,
	})

	return zap.New(tee(encoder, stdout, stderr, true)).WithOptions(
		zap.Development(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	).Sugar()
}

func tee(encoder zapcore.Encoder, stdout, stderr io.Writer, debug bool) zapcore.Core {
	infoLevels := zap.LevelEnablerFunc(func(level zapcore.Level) bool {
		return level == zapcore.InfoLevel
	})

	errorLevels := zap.LevelEnablerFunc(func(level zapcore.Level) bool {
		if level == zapcore.DebugLevel {
			return debug
		}

		return !infoLevels(level)
	})

	return zapcore.NewTee(
		zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(stdout)), infoLevels),
		zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(stderr)), errorLevels),
	)
}
