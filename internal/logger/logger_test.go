package logger

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func restore(t *testing.T) {
	prev := L
	t.Cleanup(func() { L = prev })
}

func TestInitDisabledDiscards(t *testing.T) {
	restore(t)
	require.NoError(t, Init(Options{Enabled: false}))
	assert.False(t, L.Enabled(t.Context(), slog.LevelError))
}

func TestInitWriter(t *testing.T) {
	restore(t)
	var out bytes.Buffer
	require.NoError(t, Init(Options{Enabled: true, Writer: &out, Level: slog.LevelDebug}))

	Debug("allocated", "bytes", 64)
	assert.Contains(t, out.String(), "allocated")
	assert.Contains(t, out.String(), "bytes=64")
}

func TestInitLevels(t *testing.T) {
	restore(t)
	var out bytes.Buffer
	require.NoError(t, Init(Options{Enabled: true, Writer: &out}))
	assert.False(t, L.Enabled(t.Context(), slog.LevelDebug))
	assert.True(t, L.Enabled(t.Context(), slog.LevelInfo))

	require.NoError(t, Init(Options{Enabled: true, Writer: &out, Level: slog.LevelWarn}))
	assert.False(t, L.Enabled(t.Context(), slog.LevelInfo))
	assert.True(t, L.Enabled(t.Context(), slog.LevelWarn))
}

func TestInitLogDirCreatesDailyFile(t *testing.T) {
	restore(t)
	dir := t.TempDir()
	require.NoError(t, Init(Options{Enabled: true, LogDir: dir}))

	Info("hello")
	name := logPrefix + time.Now().Format("2006-01-02") + logSuffix
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
}

func TestCleanOldLogs(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	old := filepath.Join(dir, logPrefix+"2026-08-01"+logSuffix)
	fresh := filepath.Join(dir, logPrefix+"2026-10-18"+logSuffix)
	other := filepath.Join(dir, "unrelated.txt")
	for _, p := range []string{old, fresh, other} {
		require.NoError(t, os.WriteFile(p, nil, 0o644))
	}

	cleanOldLogs(dir, now)

	assert.NoFileExists(t, old)
	assert.FileExists(t, fresh)
	assert.FileExists(t, other)
}
