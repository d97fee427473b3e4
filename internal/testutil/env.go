// Package testutil provides utilities for testing gearbox in isolation.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// Env describes an isolated gearbox environment.
type Env struct {
	// Root stands in for the repository root.
	Root string
	// CacheDir is exported as GEARBOX_CACHE_DIR.
	CacheDir string
	// Catalog is exported as GEARBOX_CATALOG. The file is not created.
	Catalog string
}

// SetupTestEnv creates isolated directories for one test and points the
// GEARBOX_* variables at them, so tests never touch a real cache or catalog.
// Cleanup is handled by t.TempDir and t.Setenv.
func SetupTestEnv(t *testing.T) *Env {
	t.Helper()

	tmpDir := t.TempDir()
	env := &Env{
		Root:     filepath.Join(tmpDir, "repo"),
		CacheDir: filepath.Join(tmpDir, "repo", ".gearbox_cache"),
		Catalog:  filepath.Join(tmpDir, "repo", "gearbox.lua"),
	}

	if err := os.MkdirAll(env.Root, 0o750); err != nil {
		t.Fatalf("failed to create test directory %s: %v", env.Root, err)
	}

	t.Setenv("GEARBOX_CACHE_DIR", env.CacheDir)
	t.Setenv("GEARBOX_CATALOG", env.Catalog)
	t.Setenv("GEARBOX_DEBUG", "")
	t.Setenv("GEARBOX_WORKERS", "")
	t.Setenv("GEARBOX_PROBE_TIMEOUT", "")

	return env
}

// WriteCatalog writes content to the environment's catalog file.
func (e *Env) WriteCatalog(t *testing.T, content string) {
	t.Helper()
	if err := os.WriteFile(e.Catalog, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write catalog: %v", err)
	}
}
