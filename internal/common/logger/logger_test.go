package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestObservedLogger_CarriesScopedFields(t *testing.T) {
	log, logs := NewObservedLogger("info")

	scoped := log.WithFields(map[string]interface{}{"taskType": "search-repairers"})
	scoped.Debug("hidden", nil)
	scoped.Warn("slow search", map[string]interface{}{"durationMs": int64(812)})
	scoped.Error("directory store unavailable", map[string]interface{}{"error": errors.New("boom")})

	entries := logs.All()
	require.Len(t, entries, 2)

	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "slow search", entries[0].Message)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "search-repairers", ctx["taskType"])
	assert.Equal(t, int64(812), ctx["durationMs"])

	assert.Equal(t, "boom", entries[1].ContextMap()["error"])
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"warn":    zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"info":    zapcore.InfoLevel,
		"verbose": zapcore.InfoLevel,
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, parseLevel(in))
		})
	}
}

func TestNewWithOutput_FallsBackOnBadPath(t *testing.T) {
	l := NewWithOutput("info", "json", "/nonexistent-dir/x/y.log")
	require.NotNil(t, l)
	l.Info("ignored")
}
