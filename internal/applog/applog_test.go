package applog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew_WritesAndAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "driftline.log")

	logger, closeFn := New(path)
	logger.Info("hello", "who", "world")
	logger.Debug("detail", "n", 123)
	require.NoError(t, closeFn())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(b), "hello")
	require.Contains(t, string(b), "who=world")
	require.Contains(t, string(b), "n=123")
}

func TestNew_NoOpWhenEmpty(t *testing.T) {
	logger, closeFn := New("")
	logger.Info("should not panic")
	require.NoError(t, closeFn())
}

func TestNew_NoOpWhenPathIsDirectory(t *testing.T) {
	dir := t.TempDir()

	logger, closeFn := New(dir)
	logger.Info("ignored")
	require.NoError(t, closeFn())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}
