// Package workspace provides a scratch directory scoped to one container
// invocation.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Workspace is a temporary directory removed by Close
type Workspace struct {
	dir string
}

// New creates a workspace under the system temp directory
func New(prefix string) (*Workspace, error) {
	dir, err := os.MkdirTemp("", prefix+"-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}
	return &Workspace{dir: dir}, nil
}

// Dir returns the workspace root
func (w *Workspace) Dir() string {
	return w.dir
}

// Path maps an entry name to a file inside the workspace, creating parent
// directories. Names that would escape the workspace are flattened.
func (w *Workspace) Path(name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		clean = filepath.Base(clean)
	}
	p := filepath.Join(w.dir, clean)
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return "", fmt.Errorf("failed to create workspace directory: %w", err)
	}
	return p, nil
}

// Close removes the workspace and everything in it
func (w *Workspace) Close() error {
	if w.dir == "" {
		return nil
	}
	err := os.RemoveAll(w.dir)
	w.dir = ""
	return err
}
