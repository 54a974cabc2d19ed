package agent

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Workspace confines agent file tools to one directory tree. All tool paths
// are resolved relative to the root; escaping the root is rejected.
type Workspace struct {
	root string
}

// NewWorkspace creates the workspace directory if needed and returns a
// Workspace rooted there.
func NewWorkspace(root string) (*Workspace, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workspace root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create workspace directory: %w", err)
	}
	return &Workspace{root: abs}, nil
}

// Root returns the absolute workspace root.
func (w *Workspace) Root() string {
	return w.root
}

// resolve maps a tool-supplied name onto an absolute path inside the root.
func (w *Workspace) resolve(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("path is required")
	}
	if filepath.IsAbs(name) {
		return "", fmt.Errorf("absolute paths are not allowed")
	}
	cleaned := filepath.Clean(name)
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes the workspace")
	}
	return filepath.Join(w.root, cleaned), nil
}

// List returns the entry names in a workspace subdirectory. dir may be empty
// to list the root.
func (w *Workspace) List(dir string) ([]string, error) {
	if dir == "" {
		dir = "."
	}
	path, err := w.resolve(dir)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Read returns a workspace file's content.
func (w *Workspace) Read(name string) (string, error) {
	path, err := w.resolve(name)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Write creates or replaces a workspace file, creating parent directories as
// needed.
func (w *Workspace) Write(name, content string) error {
	path, err := w.resolve(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

// Delete removes a workspace file.
func (w *Workspace) Delete(name string) error {
	path, err := w.resolve(name)
	if err != nil {
		return err
	}
	return os.Remove(path)
}
