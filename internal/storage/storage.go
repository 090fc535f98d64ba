package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Storage persists attachment files. Implementations must treat names as
// opaque single path segments.
type Storage interface {
	// Save writes the reader's contents under name and returns the full
	// storage location.
	Save(name string, r io.Reader) (string, error)

	// Remove deletes the file at the given storage location.
	Remove(path string) error

	// Path resolves a stored name to its location, or an error when the
	// name is not a plain filename or nothing is stored under it.
	Path(name string) (string, error)
}

// LocalStorage keeps files in a single directory on the local filesystem.
type LocalStorage struct {
	dir string
}

// NewLocal creates the storage directory if needed.
func NewLocal(dir string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &LocalStorage{dir: dir}, nil
}

// Save writes the file under the storage directory.
func (s *LocalStorage) Save(name string, r io.Reader) (string, error) {
	if err := validName(name); err != nil {
		return "", err
	}

	path := filepath.Join(s.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return path, nil
}

// Remove deletes a stored file.
func (s *LocalStorage) Remove(path string) error {
	return os.Remove(path)
}

// Path resolves a stored name, rejecting anything that is not a single
// path segment and anything that does not exist on disk.
func (s *LocalStorage) Path(name string) (string, error) {
	if err := validName(name); err != nil {
		return "", err
	}

	path := filepath.Join(s.dir, name)
	if _, err := os.Stat(path); err != nil {
		return "", err
	}
	return path, nil
}

func validName(name string) error {
	if name == "" || name != filepath.Base(name) || strings.Contains(name, "..") {
		return fmt.Errorf("invalid file name %q", name)
	}
	return nil
}
