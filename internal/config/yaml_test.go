package config

import (
	"errors"
	"strings"
	"testing"
)

func TestParseYAML(t *testing.T) {
	data := []byte(`
tools:
  - name: jq
    version: "1.7.1"
    tags: [json]
    links:
      linux:
        url: https://example.com/jq.tar.xz
        member: jq/jq
        signature: https://example.com/jq.tar.xz.asc
        keyring: |
          -----BEGIN PGP PUBLIC KEY BLOCK-----
      macos:
        url: https://example.com/jq-macos
  - name: git
    tags: [all]
    path: git
envs:
  - name: dev
  - name: prod
    tags: [release]
default_env: dev
settings:
  workers: 2
  download_retries: 1
`)
	f, err := ParseYAML(data)
	if err != nil {
		t.Fatalf("ParseYAML() error = %v", err)
	}
	if len(f.Tools) != 2 || f.Tools[0].Name != "jq" || f.Tools[1].Path != "git" {
		t.Fatalf("Tools = %+v", f.Tools)
	}
	linux := f.Tools[0].Links["linux"]
	if linux.Member != "jq/jq" || linux.SignatureURL == "" || !strings.HasPrefix(linux.Keyring, "-----BEGIN") {
		t.Errorf("linux link = %+v", linux)
	}
	if !f.Tools[0].Links["macos"].IsRaw() {
		t.Error("macos link should be raw")
	}
	if f.DefaultEnv != "dev" || len(f.Envs) != 2 {
		t.Errorf("envs = %+v default = %q", f.Envs, f.DefaultEnv)
	}
	if f.Settings.Workers != 2 || f.Settings.DownloadRetries != 1 {
		t.Errorf("Settings = %+v", f.Settings)
	}
}

func TestParseYAML_Empty(t *testing.T) {
	f, err := ParseYAML(nil)
	if err != nil {
		t.Fatalf("ParseYAML(nil) error = %v", err)
	}
	if len(f.Tools) != 0 || len(f.Envs) != 0 {
		t.Errorf("File = %+v", f)
	}
}

func TestParseYAML_Errors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantMsg string
	}{
		{"syntax", "tools: [", "YAML error"},
		{"unknown field", "tool: []", "YAML error"},
		{"unknown link field", "tools:\n  - name: jq\n    links:\n      linux: {uri: x}", "YAML error"},
		{"missing url", "tools:\n  - name: jq\n    links:\n      linux: {member: x}", "url cannot be empty"},
		{"bad platform", "tools:\n  - name: jq\n    links:\n      freebsd: {url: x}", "unknown platform"},
		{"empty name", "envs:\n  - tags: [a]", "name cannot be empty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseYAML([]byte(tt.data))
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("error = %v, want *ParseError", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error = %v, want substring %q", err, tt.wantMsg)
			}
		})
	}
}
