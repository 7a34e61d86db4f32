package workspace

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(t.TempDir(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return m
}

func TestCreateIsUniqueAndInsideBase(t *testing.T) {
	m := newTestManager(t)

	a, err := m.Create()
	require.NoError(t, err)
	b, err := m.Create()
	require.NoError(t, err)

	assert.NotEqual(t, a.Dir, b.Dir)
	assert.True(t, strings.HasPrefix(a.Dir, m.BaseDir()))
	assert.DirExists(t, a.Dir)
	assert.Equal(t, filepath.Join(a.Dir, "part0.mp3"), a.Path("part0.mp3"))
}

func TestDestroyRemovesContents(t *testing.T) {
	m := newTestManager(t)
	ws, err := m.Create()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(ws.Path("part0.mp3"), []byte("data"), 0o644))
	require.NoError(t, os.MkdirAll(ws.Path("nested/deeper"), 0o755))

	m.Destroy(ws)
	assert.NoDirExists(t, ws.Dir)
}

func TestDestroyIsSafeWhenMissing(t *testing.T) {
	m := newTestManager(t)
	ws, err := m.Create()
	require.NoError(t, err)

	m.Destroy(ws)
	m.Destroy(ws)
	m.Destroy(nil)
	assert.NoDirExists(t, ws.Dir)
}

func TestNewManagerCreatesBase(t *testing.T) {
	base := filepath.Join(t.TempDir(), "a", "b")
	m, err := NewManager(base, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	assert.DirExists(t, m.BaseDir())
}
