package staging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Workspace is the scratch directory of one invocation: <root>/<taskId>.
// The directory is created on first use and never removed by this package.
type Workspace struct {
	TaskID string
	root   string

	once sync.Once
	err  error
}

// NewWorkspace returns a workspace for taskID under root. Nothing is
// created on disk until Dir is called.
func NewWorkspace(root, taskID string) *Workspace {
	return &Workspace{TaskID: taskID, root: root}
}

// Dir returns the workspace directory, creating it if needed.
func (w *Workspace) Dir() (string, error) {
	dir := filepath.Join(w.root, w.TaskID)
	w.once.Do(func() {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			w.err = fmt.Errorf("create workspace %s: %w", dir, err)
		}
	})
	return dir, w.err
}

// Sub returns a subdirectory of the workspace, creating it if needed.
func (w *Workspace) Sub(elem ...string) (string, error) {
	dir, err := w.Dir()
	if err != nil {
		return "", err
	}
	sub := filepath.Join(append([]string{dir}, elem...)...)
	if err := os.MkdirAll(sub, 0o755); err != nil {
		return "", fmt.Errorf("create workspace dir %s: %w", sub, err)
	}
	return sub, nil
}

// Path joins elem onto the workspace directory without creating anything.
func (w *Workspace) Path(elem ...string) string {
	return filepath.Join(append([]string{w.root, w.TaskID}, elem...)...)
}
