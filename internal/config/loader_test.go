package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDiscover(t *testing.T) {
	t.Run("lua preferred over yaml", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "gearbox.yaml", "")
		want := writeFile(t, dir, "gearbox.lua", "gearbox = {}")
		got, err := Discover(dir)
		if err != nil || got != want {
			t.Errorf("Discover() = %q, %v; want %q", got, err, want)
		}
	})
	t.Run("yml", func(t *testing.T) {
		dir := t.TempDir()
		want := writeFile(t, dir, "gearbox.yml", "")
		got, err := Discover(dir)
		if err != nil || got != want {
			t.Errorf("Discover() = %q, %v; want %q", got, err, want)
		}
	})
	t.Run("none", func(t *testing.T) {
		_, err := Discover(t.TempDir())
		if !errors.Is(err, ErrNoCatalog) {
			t.Errorf("error = %v, want ErrNoCatalog", err)
		}
	})
}

func TestParser_LoadFile(t *testing.T) {
	dir := t.TempDir()
	lua := writeFile(t, dir, "gearbox.lua", `gearbox = { tools = { { name = "jq" } } }`)
	yml := writeFile(t, dir, "gearbox.yaml", "tools:\n  - name: yq\n")
	txt := writeFile(t, dir, "gearbox.toml", "")

	p := NewParser(linuxDetector())

	f, err := p.LoadFile(context.Background(), lua)
	if err != nil {
		t.Fatalf("LoadFile(lua) error = %v", err)
	}
	if f.Tools[0].Name != "jq" {
		t.Errorf("lua tools = %+v", f.Tools)
	}
	abs, _ := filepath.Abs(dir)
	if f.Dir != abs {
		t.Errorf("Dir = %q, want %q", f.Dir, abs)
	}

	f, err = p.LoadFile(context.Background(), yml)
	if err != nil {
		t.Fatalf("LoadFile(yaml) error = %v", err)
	}
	if f.Tools[0].Name != "yq" {
		t.Errorf("yaml tools = %+v", f.Tools)
	}

	if _, err := p.LoadFile(context.Background(), txt); err == nil || !strings.Contains(err.Error(), "unsupported") {
		t.Errorf("LoadFile(toml) error = %v", err)
	}
	if _, err := p.LoadFile(context.Background(), filepath.Join(dir, "missing.lua")); err == nil {
		t.Error("LoadFile(missing) should fail")
	}
}
