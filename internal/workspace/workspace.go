package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/kpfbuilder/internal/logfields"
)

// Manager handles scratch directory operations for a single conversion job.
type Manager struct {
	baseDir   string
	tempDir   string
	uniqueCnt int
}

// NewManager creates a new workspace manager rooted at baseDir (system temp
// dir when empty).
func NewManager(baseDir string) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	return &Manager{baseDir: baseDir}
}

// Create creates a timestamped workspace directory.
func (m *Manager) Create() error {
	timestamp := time.Now().Format("20060102-150405")
	tempDir, err := os.MkdirTemp(m.baseDir, fmt.Sprintf("kpfbuilder-%s-", timestamp))
	if err != nil {
		return fmt.Errorf("failed to create workspace directory: %w", err)
	}

	m.tempDir = tempDir
	slog.Debug("Created workspace", logfields.Path(tempDir))
	return nil
}

// GetPath returns the path to the workspace directory
func (m *Manager) GetPath() string {
	return m.tempDir
}

// CreateUniqueDir creates the next numbered subdirectory within the workspace
// and returns its path. Names are sequential hex ("0000", "0001", ...) so a
// job's intermediate directories sort in creation order.
func (m *Manager) CreateUniqueDir() (string, error) {
	if m.tempDir == "" {
		return "", fmt.Errorf("workspace not created")
	}
	uniqueDir := filepath.Join(m.tempDir, fmt.Sprintf("%04x", m.uniqueCnt))
	m.uniqueCnt++
	if err := os.Mkdir(uniqueDir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create unique directory: %w", err)
	}
	return uniqueDir, nil
}

// Cleanup removes the workspace directory and everything under it.
// Removal errors are ignored; leftover scratch dirs are harmless.
func (m *Manager) Cleanup() error {
	if m.tempDir == "" {
		return nil
	}
	if _, err := os.Stat(m.tempDir); os.IsNotExist(err) {
		return nil
	}
	if err := os.RemoveAll(m.tempDir); err != nil {
		slog.Warn("Failed to remove workspace", logfields.Path(m.tempDir), logfields.Error(err))
	}
	slog.Debug("Cleaned up workspace", logfields.Path(m.tempDir))
	m.tempDir = ""
	return nil
}
