package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNew_JSONRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "warn", true)

	log.Info("hidden")
	log.Warn("shown", "task_id", 7)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"task_id":7`)
}

func TestPackageFunctionsUseProcessLogger(t *testing.T) {
	prev := defaultLogger
	t.Cleanup(func() { defaultLogger = prev })

	var buf bytes.Buffer
	defaultLogger = New(&buf, "info", false)

	Info("started", "db", "todo.db")
	Warn("no owner")
	Error("stopped", "err", "boom")

	out := buf.String()
	assert.Contains(t, out, "level=INFO msg=started db=todo.db")
	assert.Contains(t, out, "level=WARN msg=\"no owner\"")
	assert.Contains(t, out, "level=ERROR msg=stopped err=boom")
	assert.Same(t, defaultLogger, Get())
}
