// Package envstate persists the name of the current environment in a one-line
// marker file inside the cache directory.
package envstate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileName is the marker file inside the cache directory.
const FileName = "env"

// None is reported when no environment is current.
const None = "none"

// Store reads and writes the marker for one cache directory.
type Store struct {
	path string
}

// New returns a store for the marker under cacheDir.
func New(cacheDir string) *Store {
	return &Store{path: filepath.Join(cacheDir, FileName)}
}

// Path returns the marker file path.
func (s *Store) Path() string {
	return s.path
}

// Read returns the stored name. ok is false when no marker exists or it is
// blank.
func (s *Store) Read() (name string, ok bool, err error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read env marker: %w", err)
	}
	name = strings.TrimSpace(string(data))
	return name, name != "", nil
}

// Write replaces the marker with name by writing a temporary file and
// renaming it over the old one.
func (s *Store) Write(name string) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".env-*.tmp")
	if err != nil {
		return fmt.Errorf("create temporary marker: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.WriteString(name + "\n"); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temporary marker: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temporary marker: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename env marker: %w", err)
	}
	return nil
}

// Current resolves the current environment: the marker if present, else the
// fallback function if set, else None.
func (s *Store) Current(fallback func() (string, error)) (string, error) {
	name, ok, err := s.Read()
	if err != nil {
		return "", err
	}
	if ok {
		return name, nil
	}
	if fallback == nil {
		return None, nil
	}
	name, err = fallback()
	if err != nil {
		return "", fmt.Errorf("default environment: %w", err)
	}
	if name == "" {
		return None, nil
	}
	return name, nil
}
