package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/buildstamp/internal/logfields"
)

// Manager owns one output directory, either persistent (the bin dir) or
// ephemeral (a timestamped scratch directory).
type Manager struct {
	baseDir    string
	path       string
	prefix     string
	persistent bool
}

// NewManager creates a manager for ephemeral directories named
// <prefix>-<timestamp> below baseDir (os.TempDir when empty).
func NewManager(baseDir, prefix string) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	if prefix == "" {
		prefix = "buildstamp"
	}
	return &Manager{baseDir: baseDir, prefix: prefix}
}

// NewBinDir creates a manager for the persistent binaries directory binDir,
// resolved against projectDir when relative.
func NewBinDir(projectDir, binDir string) *Manager {
	path := binDir
	if !filepath.IsAbs(path) {
		path = filepath.Join(projectDir, binDir)
	}
	return &Manager{baseDir: projectDir, path: path, persistent: true}
}

// Create ensures the directory exists. In ephemeral mode every call creates a
// fresh directory.
func (m *Manager) Create() error {
	if m.persistent {
		if err := os.MkdirAll(m.path, 0o750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", m.path, err)
		}
		slog.Debug("Using output directory", logfields.Path(m.path))
		return nil
	}

	timestamp := time.Now().Format("20060102-150405")
	dir, err := os.MkdirTemp(m.baseDir, fmt.Sprintf("%s-%s-", m.prefix, timestamp))
	if err != nil {
		return fmt.Errorf("failed to create workspace directory: %w", err)
	}
	m.path = dir
	slog.Debug("Created workspace", logfields.Path(dir))
	return nil
}

// GetPath returns the directory path (empty for an ephemeral manager before Create).
func (m *Manager) GetPath() string {
	return m.path
}

// Cleanup removes an ephemeral directory. Persistent directories are kept;
// use Remove for those.
func (m *Manager) Cleanup() error {
	if m.path == "" || m.persistent {
		return nil
	}
	if err := os.RemoveAll(m.path); err != nil {
		return fmt.Errorf("failed to cleanup workspace: %w", err)
	}
	slog.Debug("Cleaned up workspace", logfields.Path(m.path))
	m.path = ""
	return nil
}

// Remove deletes the directory and everything in it. A missing directory is
// not an error.
func (m *Manager) Remove() error {
	if m.path == "" {
		return nil
	}
	if err := os.RemoveAll(m.path); err != nil {
		return fmt.Errorf("failed to remove %s: %w", m.path, err)
	}
	slog.Info("Removed directory", logfields.Path(m.path))
	return nil
}
