package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideRoot is returned for paths that escape the allowed directory
var ErrOutsideRoot = errors.New("path is outside the allowed directory")

// PathValidator confines client-supplied paths to one directory tree
type PathValidator struct {
	root string
}

// NewPathValidator creates a validator rooted at dir. The directory does not
// need to exist yet.
func NewPathValidator(dir string) (*PathValidator, error) {
	if dir == "" {
		return nil, fmt.Errorf("allowed directory cannot be empty")
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve allowed directory: %w", err)
	}

	return &PathValidator{root: filepath.Clean(abs)}, nil
}

// Root returns the absolute allowed directory
func (v *PathValidator) Root() string {
	return v.root
}

// Resolve returns the absolute form of path, interpreting relative paths
// against the root, and rejects anything that resolves outside of it.
// Symlinks in existing path prefixes are followed before the check.
func (v *PathValidator) Resolve(path string) (string, error) {
	path = strings.ReplaceAll(path, "\x00", "")
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("path cannot be empty")
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(v.root, path)
	}
	clean := filepath.Clean(path)

	if !within(clean, v.root) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, path)
	}

	realRoot := evalExisting(v.root)
	if !within(evalExisting(clean), realRoot) {
		return "", fmt.Errorf("%w: %s resolves through a link", ErrOutsideRoot, path)
	}

	return clean, nil
}

// ResolveDirectory resolves dir like Resolve and additionally rejects
// existing paths that are not directories.
func (v *PathValidator) ResolveDirectory(dir string) (string, error) {
	resolved, err := v.Resolve(dir)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(resolved)
	if err != nil {
		if os.IsNotExist(err) {
			return resolved, nil
		}
		return "", fmt.Errorf("cannot access directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("path is not a directory: %s", dir)
	}
	return resolved, nil
}

func within(path, dir string) bool {
	if path == dir {
		return true
	}
	prefix := dir
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(path, prefix)
}

// evalExisting resolves symlinks in the longest existing prefix of path and
// re-appends the components that do not exist yet.
func evalExisting(path string) string {
	var rest []string
	current := path
	for {
		if resolved, err := filepath.EvalSymlinks(current); err == nil {
			parts := append([]string{resolved}, rest...)
			return filepath.Join(parts...)
		}
		parent := filepath.Dir(current)
		if parent == current {
			return path
		}
		rest = append([]string{filepath.Base(current)}, rest...)
		current = parent
	}
}
