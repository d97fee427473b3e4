package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoCatalog is returned by Discover when no catalog file exists.
var ErrNoCatalog = errors.New("no catalog file found")

// Discover returns the first catalog file found in dir.
func Discover(dir string) (string, error) {
	for _, name := range catalogFileNames {
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("stat %s: %w", path, err)
		}
		if !info.IsDir() {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w in %s (looked for %s)", ErrNoCatalog, dir, strings.Join(catalogFileNames, ", "))
}

// LoadFile reads and decodes the catalog at path, choosing the format by
// extension. Relative tool paths resolve against the file's directory.
func (p *Parser) LoadFile(ctx context.Context, path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var f *File
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".lua":
		f, err = p.ParseString(ctx, string(data))
	case ".yaml", ".yml":
		f, err = ParseYAML(data)
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}

	abs, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("resolve catalog dir: %w", err)
	}
	f.Dir = abs
	p.logger.Info("catalog loaded", "path", path, "tools", len(f.Tools), "envs", len(f.Envs))
	return f, nil
}
