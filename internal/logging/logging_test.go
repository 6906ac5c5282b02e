package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected LogLevel
	}{
		{"debug", LogLevelDebug},
		{"DEBUG", LogLevelDebug},
		{"info", LogLevelInfo},
		{"warn", LogLevelWarn},
		{"WARNING", LogLevelWarn},
		{" error ", LogLevelError},
		{"unknown", LogLevelInfo},
		{"", LogLevelInfo},
	}
	for _, tt := range tests {
		require.Equal(t, tt.expected, ParseLogLevel(tt.input), "input %q", tt.input)
	}
	require.Equal(t, "UNKNOWN", LogLevel(99).String())
}

func newTestLogger(buf *bytes.Buffer, level LogLevel) *Logger {
	l := New(Config{Level: level, Output: buf, Prefix: "test"})
	l.now = func() time.Time { return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC) }
	return l
}

func TestLoggerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf, LogLevelWarn)

	l.Debug("hidden")
	l.Info("hidden")
	require.Empty(t, buf.String())

	l.Warn("careful %d", 3)
	require.Equal(t, "2026-05-01T12:00:00.000 [WARN] test: careful 3\n", buf.String())

	require.False(t, l.Enabled(LogLevelInfo))
	l.SetLevel(LogLevelDebug)
	require.True(t, l.Enabled(LogLevelDebug))
}

func TestLoggerFieldsAreSorted(t *testing.T) {
	var buf bytes.Buffer
	base := newTestLogger(&buf, LogLevelDebug)
	l := base.WithCategory(CatHistory).WithFields(map[string]any{"b": 2, "a": 1})

	l.Info("pushed")
	require.Equal(t, "2026-05-01T12:00:00.000 [INFO] test: pushed {a=1, b=2, cat=history}\n", buf.String())

	buf.Reset()
	base.Info("plain")
	require.NotContains(t, buf.String(), "cat=", "derived fields do not leak into the parent")
}

func TestNopAndNil(t *testing.T) {
	Nop().Error("dropped")
	var l *Logger
	l.Info("nil loggers are silent")
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blockstorm.log")
	l, closeFn, err := OpenFile(path, LogLevelInfo)
	require.NoError(t, err)
	l.Info("hello")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "[INFO] blockstorm: hello")

	_, _, err = OpenFile(filepath.Join(t.TempDir(), "missing", "x.log"), LogLevelInfo)
	require.Error(t, err)
}
