package logger

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{"info", LevelInfo},
		{"", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"off", LevelOff},
		{"none", LevelOff},
		{"bogus", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestLevelThreshold(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelWarn)

	l.Debug("sampled in %ds", 3)
	l.Info("uploaded reading")
	assert.Empty(t, buf.String(), "below-threshold messages should be dropped")

	l.Warn("upload skipped")
	l.Error("feed rejected")
	out := buf.String()
	assert.Contains(t, out, "WARN: upload skipped")
	assert.Contains(t, out, "ERROR: feed rejected")
}

func TestLevelOffDiscardsEverything(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelOff)

	l.Error("should not appear")
	assert.Empty(t, buf.String())
}

func TestNewFile(t *testing.T) {
	path := t.TempDir() + "/sysmon.log"

	l, err := NewFile(path, LevelInfo)
	require.NoError(t, err)
	l.Info("hello %s", "world")
	require.NoError(t, Close(l))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello world")
}

func TestBufferLogger(t *testing.T) {
	l := NewBufferLogger()

	l.Debug("a")
	l.Warn("b %d", 2)

	require.Len(t, l.Messages, 2)
	assert.True(t, l.HasLevel("debug"))
	assert.True(t, l.HasLevel("warn"))
	assert.False(t, l.HasLevel("error"))
	assert.Equal(t, "b 2", l.Messages[1].Message)

	l.Clear()
	assert.Empty(t, l.Messages)
}

func TestNoopLoggerDoesNotPanic(t *testing.T) {
	l := Noop()
	l.Debug("x")
	l.Info("x")
	l.Warn("x")
	l.Error("x")
}
