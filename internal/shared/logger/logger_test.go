package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	t.Run("creates with default config", func(t *testing.T) {
		l := New(nil)
		assert.NotNil(t, l)
		assert.NotNil(t, l.Logger)
	})

	t.Run("creates with custom config", func(t *testing.T) {
		buf := &bytes.Buffer{}
		l := New(&Config{Level: "debug", Format: "json", Output: buf})
		assert.NotNil(t, l)

		l.Info("test message")
		assert.Contains(t, buf.String(), "test message")
	})

	t.Run("creates text format logger", func(t *testing.T) {
		buf := &bytes.Buffer{}
		l := New(&Config{Level: "info", Format: "text", Output: buf})

		l.Info("test message")
		output := buf.String()
		assert.Contains(t, output, "test message")
		// Text format should not be JSON
		assert.False(t, strings.HasPrefix(output, "{"))
	})
}

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		level   string
		logFunc func(*Logger, string)
	}{
		{"debug", func(l *Logger, msg string) { l.Debug(msg) }},
		{"info", func(l *Logger, msg string) { l.Info(msg) }},
		{"warn", func(l *Logger, msg string) { l.Warn(msg) }},
		{"error", func(l *Logger, msg string) { l.Error(msg) }},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			buf := &bytes.Buffer{}
			l := New(&Config{Level: tt.level, Format: "json", Output: buf})

			tt.logFunc(l, "test")
			assert.NotEmpty(t, buf.String())
		})
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	l := New(&Config{Level: "warn", Format: "json", Output: buf})

	l.Info("should be dropped")
	assert.Empty(t, buf.String())

	l.Warn("should be logged")
	assert.Contains(t, buf.String(), "should be logged")
}

func TestFromContext(t *testing.T) {
	t.Run("returns logger from context", func(t *testing.T) {
		buf := &bytes.Buffer{}
		l := New(&Config{Level: "info", Format: "json", Output: buf})

		ctx := ContextWithLogger(context.Background(), l)
		got := FromContext(ctx)
		got.Info("from context")
		assert.Contains(t, buf.String(), "from context")
	})

	t.Run("returns default when absent", func(t *testing.T) {
		assert.NotNil(t, FromContext(context.Background()))
	})
}

func TestNewZapLogger(t *testing.T) {
	z, err := NewZapLogger(&Config{Level: "debug", Format: "json"})
	assert.NoError(t, err)
	assert.NotNil(t, z)
}
