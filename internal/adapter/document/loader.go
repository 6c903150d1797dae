// Package document loads the compliance text supplied to remote reviews.
package document

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// Loader reads compliance guidance from an optional file on disk.
type Loader struct {
	path string
}

// NewLoader constructs a loader for the given path. An empty path means no
// compliance document is configured.
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Load returns the compliance text, or an empty string when no document is
// configured or the file does not exist. A missing document is not an
// error; an unreadable one is.
func (l *Loader) Load() (string, error) {
	if l.path == "" {
		return "", nil
	}
	data, err := os.ReadFile(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read compliance document %s: %w", l.path, err)
	}
	return strings.TrimSpace(string(data)), nil
}
