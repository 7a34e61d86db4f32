// Package workspace manages request-scoped scratch directories.
package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

const dirPrefix = "merge-"

// Workspace is one request's private directory.
type Workspace struct {
	ID  string
	Dir string
}

// Path joins name onto the workspace directory.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.Dir, name)
}

// Manager creates and destroys workspaces under a base directory.
type Manager struct {
	baseDir string
	logger  *slog.Logger
}

// NewManager returns a Manager rooted at baseDir (os.TempDir when empty).
func NewManager(baseDir string, logger *slog.Logger) (*Manager, error) {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("resolve work dir %s: %w", baseDir, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create work dir %s: %w", abs, err)
	}
	return &Manager{baseDir: abs, logger: logger}, nil
}

// BaseDir returns the absolute directory workspaces are created in.
func (m *Manager) BaseDir() string {
	return m.baseDir
}

// Create makes a fresh, uniquely named directory. Concurrent requests never share one.
func (m *Manager) Create() (*Workspace, error) {
	id := uuid.NewString()
	dir := filepath.Join(m.baseDir, dirPrefix+id)
	if err := os.Mkdir(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	m.logger.Debug("workspace created", "workspace_id", id, "dir", dir)
	return &Workspace{ID: id, Dir: dir}, nil
}

// Destroy removes the workspace and everything in it. It is safe on a nil or
// already removed workspace; failures are logged, never returned.
func (m *Manager) Destroy(w *Workspace) {
	if w == nil {
		return
	}
	if err := os.RemoveAll(w.Dir); err != nil {
		m.logger.Warn("workspace cleanup failed", "workspace_id", w.ID, "dir", w.Dir, "error", err)
		return
	}
	m.logger.Debug("workspace removed", "workspace_id", w.ID)
}
