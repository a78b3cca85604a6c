package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideRoot is returned for paths that escape the storage root.
var ErrOutsideRoot = errors.New("path escapes storage root")

// LocalStore serves file:// locations from a directory. The URL path is
// resolved relative to the root, and ".." segments cannot climb above it.
type LocalStore struct {
	root string
}

// NewLocalStore creates a LocalStore rooted at root.
func NewLocalStore(root string) *LocalStore {
	return &LocalStore{root: filepath.Clean(root)}
}

// Open opens the file.
func (s *LocalStore) Open(_ context.Context, location *url.URL) (io.ReadCloser, error) {
	path, err := s.path(location)
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}

// Delete removes the file. A file that is already gone is not an error.
func (s *LocalStore) Delete(_ context.Context, location *url.URL) error {
	path, err := s.path(location)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *LocalStore) path(location *url.URL) (string, error) {
	if location.Path == "" {
		return "", fmt.Errorf("invalid file location %q", location.String())
	}

	full := filepath.Join(s.root, filepath.FromSlash(filepath.Clean("/"+location.Path)))
	if full != s.root && !strings.HasPrefix(full, s.root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, location.Path)
	}

	return full, nil
}
