package binary

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestExists(t *testing.T) {
	dir := t.TempDir()
	file := writeTemp(t, dir, "f", []byte("x"))

	tests := []struct {
		name string
		path string
		want Kind
	}{
		{"file", file, File},
		{"dir", dir, Dir},
		{"absent", filepath.Join(dir, "missing"), Absent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Exists(tt.path)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("Exists() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestRemove(t *testing.T) {
	dir := t.TempDir()
	tree := filepath.Join(dir, "tree")
	if err := os.MkdirAll(filepath.Join(tree, "a", "b"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeTemp(t, filepath.Join(tree, "a"), "f", []byte("x"))

	if err := Remove(tree); err != nil {
		t.Fatalf("Remove(dir) error = %v", err)
	}
	if kind, _ := Exists(tree); kind != Absent {
		t.Errorf("tree still %s", kind)
	}
	if err := Remove(tree); err != nil {
		t.Errorf("Remove(missing) error = %v", err)
	}
}

func TestMove(t *testing.T) {
	dir := t.TempDir()
	src := writeTemp(t, dir, "src", []byte("payload"))
	dst := filepath.Join(dir, "nested", "dst")

	if err := Move(src, dst); err != nil {
		t.Fatalf("Move() error = %v", err)
	}
	if kind, _ := Exists(src); kind != Absent {
		t.Error("source still exists")
	}
	got, err := os.ReadFile(dst)
	if err != nil || string(got) != "payload" {
		t.Errorf("dst = %q, %v", got, err)
	}
}

func TestMove_ReplacesDirectory(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "dst")
	if err := os.MkdirAll(filepath.Join(dst, "old"), 0o755); err != nil {
		t.Fatal(err)
	}
	src := writeTemp(t, dir, "src", []byte("new"))

	if err := Move(src, dst); err != nil {
		t.Fatalf("Move() error = %v", err)
	}
	if kind, _ := Exists(dst); kind != File {
		t.Errorf("dst is %s, want file", kind)
	}
}

func TestSetExecutable(t *testing.T) {
	if runtime.GOOS == "windows" {
		if err := SetExecutable(writeTemp(t, t.TempDir(), "tool.exe", nil)); err != nil {
			t.Fatalf("SetExecutable() error = %v", err)
		}
		return
	}
	tests := []struct {
		mode os.FileMode
		want os.FileMode
	}{
		{0o644, 0o755},
		{0o600, 0o711},
		{0o700, 0o711},
		{0o755, 0o755},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			path := writeTemp(t, t.TempDir(), "tool", []byte("#!/bin/sh"))
			if err := os.Chmod(path, tt.mode); err != nil {
				t.Fatal(err)
			}
			if err := SetExecutable(path); err != nil {
				t.Fatalf("SetExecutable() error = %v", err)
			}
			info, err := os.Stat(path)
			if err != nil {
				t.Fatal(err)
			}
			if info.Mode().Perm() != tt.want {
				t.Errorf("mode = %v, want %v", info.Mode().Perm(), tt.want)
			}
		})
	}

	if err := SetExecutable(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for a missing file")
	}
}

func TestEnsureDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "c")
	if err := EnsureDir(path); err != nil {
		t.Fatal(err)
	}
	if kind, _ := Exists(path); kind != Dir {
		t.Errorf("kind = %s", kind)
	}
}
