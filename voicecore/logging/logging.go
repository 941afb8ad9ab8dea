// Package logging provides structured logging for the pipeline.
//
// The Logger interface keeps the rest of the engine decoupled from the
// backing implementation. The default implementation wraps zap with
// optional file rotation.
package logging

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the interface for logging.
type Logger interface {
	Info(msg string, fields ...any)
	Debug(msg string, fields ...any)
	Warn(msg string, fields ...any)
	Error(msg string, fields ...any)
	Bind(fields ...any) Logger
}

// =============================================================================
// ZAP IMPLEMENTATION
// =============================================================================

type zapLogger struct {
	sugar *zap.SugaredLogger
}

// Options configures the zap-backed logger.
type Options struct {
	Level string // "DEBUG", "INFO", "WARN", "ERROR"
	// File enables JSON file output with rotation when non-empty.
	File string
	// Console enables human-readable stdout output.
	Console bool
}

// New creates a zap-backed Logger. With an empty Options.File logs go to
// stdout only.
func New(opts Options) Logger {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.MessageKey = "message"
	encoderConfig.LevelKey = "level"
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	level := parseLevel(opts.Level)
	cores := []zapcore.Core{}

	if opts.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10, // Megabytes
			MaxBackups: 5,
			MaxAge:     30, // Days
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderConfig),
			zapcore.AddSync(rotator),
			level,
		))
	}
	if opts.Console || opts.File == "" {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
			zapcore.Lock(os.Stdout),
			level,
		))
	}

	l := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1))
	return &zapLogger{sugar: l.Sugar()}
}

// NewNop returns a Logger that discards everything.
func NewNop() Logger {
	return &zapLogger{sugar: zap.NewNop().Sugar()}
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return zapcore.DebugLevel
	case "WARN", "WARNING":
		return zapcore.WarnLevel
	case "ERROR":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func (z *zapLogger) Debug(msg string, fields ...any) { z.sugar.Debugw(msg, fields...) }
func (z *zapLogger) Info(msg string, fields ...any)  { z.sugar.Infow(msg, fields...) }
func (z *zapLogger) Warn(msg string, fields ...any)  { z.sugar.Warnw(msg, fields...) }
func (z *zapLogger) Error(msg string, fields ...any) { z.sugar.Errorw(msg, fields...) }

func (z *zapLogger) Bind(fields ...any) Logger {
	return &zapLogger{sugar: z.sugar.With(fields...)}
}
