package build

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Workspace owns per-attempt staging directories under a common root.
type Workspace struct {
	root string
}

// NewWorkspace ensures the staging root exists and is accessible. An empty
// root defaults to a whopctl directory under the system temp dir.
func NewWorkspace(root string) (*Workspace, error) {
	if strings.TrimSpace(root) == "" {
		root = filepath.Join(os.TempDir(), "whopctl")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create staging root: %w", err)
	}
	return &Workspace{root: root}, nil
}

// Prepare creates an isolated directory for the provided identifier.
func (w *Workspace) Prepare(identifier string) (string, error) {
	if identifier == "" {
		return "", fmt.Errorf("staging identifier cannot be empty")
	}
	dir := filepath.Join(w.root, identifier)
	if err := os.RemoveAll(dir); err != nil {
		return "", fmt.Errorf("reset staging dir: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create staging dir: %w", err)
	}
	return dir, nil
}

// Cleanup removes a staging directory.
func (w *Workspace) Cleanup(path string) error {
	if path == "" {
		return nil
	}
	// Only directories within the configured root may be removed.
	rel, err := filepath.Rel(w.root, path)
	if err != nil || rel == "." || rel == "" || strings.HasPrefix(rel, "..") {
		return fmt.Errorf("refusing to cleanup path outside staging root")
	}
	return os.RemoveAll(path)
}
