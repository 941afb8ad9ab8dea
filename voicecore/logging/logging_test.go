package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("WARNING"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("ERROR"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel(""))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("garbage"))
}

func TestCapture(t *testing.T) {
	c := NewCapture()
	c.Info("code issued", "action_id", "draft_1")
	c.Error("send failed", "error", "boom")

	assert.True(t, c.Has("info", "code issued"))
	assert.True(t, c.Has("error", "send failed"))
	assert.False(t, c.Has("warn", "code issued"))

	entries := c.Entries()
	assert.Len(t, entries, 2)
	assert.Equal(t, "draft_1", entries[0].Fields["action_id"])
}

func TestCaptureBind(t *testing.T) {
	c := NewCapture()
	bound := c.Bind("session_id", "sess_1")
	bound.Info("stage started", "stage", "intent_classifier")

	entries := c.Entries()
	assert.Len(t, entries, 1)
	assert.Equal(t, "sess_1", entries[0].Fields["session_id"])
	assert.Equal(t, "intent_classifier", entries[0].Fields["stage"])

	nested := bound.Bind("stage", "executor")
	nested.Warn("retrying")
	assert.Equal(t, "executor", c.Entries()[1].Fields["stage"])
}

func TestNopLoggerDoesNotPanic(t *testing.T) {
	l := NewNop()
	l.Debug("a")
	l.Info("b", "k", "v")
	l.Warn("c")
	l.Error("d")
	l.Bind("k", "v").Info("e")
}
