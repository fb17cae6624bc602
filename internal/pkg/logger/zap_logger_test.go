package logger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsolatedLoggerRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.log")
	l := NewIsolatedLogger(path)

	l.Info("Synchronizer", "entity applied", map[string]interface{}{"id": "a"})
	l.Warn("Synchronizer", "event dropped", nil)
	l.Error("Synchronizer", "fetch failed", map[string]interface{}{"error": "boom"})
	require.NoError(t, l.Sync())

	all, err := l.GetLogs("", 10, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "fetch failed", all[0].Message, "newest entry comes first")
	assert.Equal(t, "Synchronizer", all[0].Module)

	warns, err := l.GetLogs("WARN", 10, 0)
	require.NoError(t, err)
	require.Len(t, warns, 1)
	assert.Equal(t, "event dropped", warns[0].Message)

	found, err := l.GetLogById(all[1].Id)
	require.NoError(t, err)
	assert.Equal(t, all[1].Message, found.Message)

	_, err = l.GetLogById("missing")
	assert.ErrorIs(t, err, ErrLogNotFound)
}

func TestGetLogsPagination(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.log")
	l := NewIsolatedLogger(path)
	for i := 0; i < 5; i++ {
		l.Info("Loop", "tick", map[string]interface{}{"n": i})
	}
	require.NoError(t, l.Sync())

	page, err := l.GetLogs("", 2, 4)
	require.NoError(t, err)
	assert.Len(t, page, 1)

	empty, err := l.GetLogs("", 2, 10)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	l.Info("x", "y", nil)
	logs, err := l.GetLogs("", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, logs)
}
