// Package logger wraps zap behind the small field-map interface the search
// pipeline, the stores and the job workers log through.
package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	WithFields(fields map[string]interface{}) Logger
}

func parseLevel(levelStr string) zapcore.Level {
	switch levelStr {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	}
	return zapcore.InfoLevel
}

// NewWithOutput builds a zap logger writing to output ("stdout", "stderr" or a
// file path). format "json" selects the production encoder. An unusable
// output yields a no-op logger.
func NewWithOutput(levelStr, format, output string) *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	if format == "json" {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(levelStr))
	if output != "" {
		cfg.OutputPaths = []string{output}
	}
	l, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

type zapLogger struct {
	l *zap.Logger
}

func (z *zapLogger) log(level zapcore.Level, msg string, fields map[string]interface{}) {
	if ce := z.l.Check(level, msg); ce != nil {
		ce.Write(toZapFields(fields)...)
	}
}

func (z *zapLogger) Debug(msg string, fields map[string]interface{}) {
	z.log(zapcore.DebugLevel, msg, fields)
}

func (z *zapLogger) Info(msg string, fields map[string]interface{}) {
	z.log(zapcore.InfoLevel, msg, fields)
}

func (z *zapLogger) Warn(msg string, fields map[string]interface{}) {
	z.log(zapcore.WarnLevel, msg, fields)
}

func (z *zapLogger) Error(msg string, fields map[string]interface{}) {
	z.log(zapcore.ErrorLevel, msg, fields)
}

func (z *zapLogger) WithFields(fields map[string]interface{}) Logger {
	return &zapLogger{l: z.l.With(toZapFields(fields)...)}
}

// toZapFields keeps error values typed so they render under their own key.
func toZapFields(fields map[string]interface{}) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		if err, ok := v.(error); ok {
			out = append(out, zap.NamedError(k, err))
			continue
		}
		out = append(out, zap.Any(k, v))
	}
	return out
}

func NewZapAdapter(l *zap.Logger) Logger {
	return &zapLogger{l: l}
}

// NewTestLogger routes output through t.Log.
func NewTestLogger(t testing.TB) Logger {
	return &zapLogger{l: zaptest.NewLogger(t)}
}

func NewNoOpLogger() Logger {
	return &zapLogger{l: zap.NewNop()}
}

// NewObservedLogger records entries at or above levelStr in memory for assertions.
func NewObservedLogger(levelStr string) (Logger, *observer.ObservedLogs) {
	core, logs := observer.New(parseLevel(levelStr))
	return &zapLogger{l: zap.New(core)}, logs
}
