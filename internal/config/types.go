package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ZebulonRouseFrantzich/gearbox/internal/catalog"
	"github.com/ZebulonRouseFrantzich/gearbox/internal/platform"
)

// File is a decoded catalog file.
type File struct {
	Tools      []ToolDecl `yaml:"tools"`
	Envs       []EnvDecl  `yaml:"envs"`
	DefaultEnv string     `yaml:"default_env"`
	Settings   Settings   `yaml:"settings"`

	// Dir is the directory relative tool paths are resolved against. It is
	// set by LoadFile.
	Dir string `yaml:"-"`
}

// ToolDecl declares one tool. A tool without Path is managed.
type ToolDecl struct {
	Name    string                      `yaml:"name"`
	Version string                      `yaml:"version"`
	Tags    []string                    `yaml:"tags"`
	Path    string                      `yaml:"path"`
	Links   map[string]catalog.LinkSpec `yaml:"links"`
}

// EnvDecl declares one environment.
type EnvDecl struct {
	Name string   `yaml:"name"`
	Tags []string `yaml:"tags"`
}

// Settings are catalog-level defaults that CLI flags may override.
type Settings struct {
	Workers         int    `yaml:"workers"`
	ProbeTimeout    int    `yaml:"probe_timeout"` // seconds
	DownloadRetries int    `yaml:"download_retries"`
	CacheDir        string `yaml:"cache_dir"`
}

// ProbeTimeoutDuration returns ProbeTimeout as a duration, or zero when
// unset.
func (s Settings) ProbeTimeoutDuration() time.Duration {
	return time.Duration(s.ProbeTimeout) * time.Second
}

// ValidationError represents a catalog validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return "catalog validation failed for " + e.Field + ": " + e.Message
	}
	return "catalog validation failed: " + e.Message
}

// Validate checks the declarations that do not depend on the host.
func (f *File) Validate() error {
	if len(f.Tools) > MaxToolCount {
		return &ValidationError{
			Field:   "tools",
			Message: fmt.Sprintf("too many tools (%d), maximum is %d", len(f.Tools), MaxToolCount),
		}
	}
	if len(f.Envs) > MaxEnvCount {
		return &ValidationError{
			Field:   "envs",
			Message: fmt.Sprintf("too many environments (%d), maximum is %d", len(f.Envs), MaxEnvCount),
		}
	}

	for i, t := range f.Tools {
		field := fmt.Sprintf("tools[%d]", i)
		if strings.TrimSpace(t.Name) == "" {
			return &ValidationError{Field: field + ".name", Message: "name cannot be empty"}
		}
		if t.Path != "" && len(t.Links) > 0 {
			return &ValidationError{Field: field, Message: fmt.Sprintf("tool %q has both path and links", t.Name)}
		}
		for key, link := range t.Links {
			if !platform.Platform(key).IsKnown() {
				return &ValidationError{
					Field:   fmt.Sprintf("%s.links.%s", field, key),
					Message: fmt.Sprintf("unknown platform %q (expected one of %v)", key, platform.Known),
				}
			}
			if link.URL == "" {
				return &ValidationError{Field: fmt.Sprintf("%s.links.%s.url", field, key), Message: "url cannot be empty"}
			}
		}
	}

	for i, e := range f.Envs {
		if strings.TrimSpace(e.Name) == "" {
			return &ValidationError{Field: fmt.Sprintf("envs[%d].name", i), Message: "name cannot be empty"}
		}
	}

	if f.Settings.Workers < 0 {
		return &ValidationError{Field: "settings.workers", Message: "must not be negative"}
	}
	if f.Settings.ProbeTimeout < 0 {
		return &ValidationError{Field: "settings.probe_timeout", Message: "must not be negative"}
	}
	if f.Settings.DownloadRetries < 0 {
		return &ValidationError{Field: "settings.download_retries", Message: "must not be negative"}
	}
	return nil
}

// Catalog converts the declarations into a catalog for platform p, placing
// managed tools under toolsDir.
func (f *File) Catalog(toolsDir string, p platform.Platform) (*catalog.Catalog, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	tools := make([]*catalog.Tool, 0, len(f.Tools))
	for _, d := range f.Tools {
		t := &catalog.Tool{
			Name:    d.Name,
			Version: d.Version,
			Tags:    d.Tags,
		}
		if d.Path == "" {
			t.Managed = true
			t.Path = catalog.ManagedPath(toolsDir, d.Name, p)
			t.Links = make(map[platform.Platform]catalog.LinkSpec, len(d.Links))
			for key, link := range d.Links {
				t.Links[platform.Platform(key)] = link
			}
		} else {
			t.Path = f.resolvePath(d.Path)
		}
		tools = append(tools, t)
	}

	envs := make([]*catalog.Environment, 0, len(f.Envs))
	for _, d := range f.Envs {
		envs = append(envs, &catalog.Environment{Name: d.Name, Tags: d.Tags})
	}

	var defaultEnv catalog.DefaultEnvFunc
	if f.DefaultEnv != "" {
		name := f.DefaultEnv
		defaultEnv = func() (string, error) { return name, nil }
	}

	cat, err := catalog.New(tools, envs, defaultEnv)
	if err != nil {
		return nil, fmt.Errorf("build catalog: %w", err)
	}
	return cat, nil
}

// resolvePath expands a leading "~/" and anchors relative paths at f.Dir.
// Bare command names (no separator) are kept so they resolve through PATH.
func (f *File) resolvePath(p string) string {
	if strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, p[2:])
		}
	}
	if filepath.IsAbs(p) || !strings.ContainsAny(p, `/\`) || f.Dir == "" {
		return p
	}
	return filepath.Join(f.Dir, p)
}
