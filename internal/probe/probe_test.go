package probe

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ZebulonRouseFrantzich/gearbox/internal/process"
)

// fakeRunner answers "<name> <arg>" lookups from a table.
type fakeRunner struct {
	mu      sync.Mutex
	results map[string]*process.Result
	errs    map[string]error
	calls   []string
}

func (f *fakeRunner) Run(ctx context.Context, dir, name string, args ...string) (*process.Result, error) {
	key := name
	for _, a := range args {
		key += " " + a
	}
	f.mu.Lock()
	f.calls = append(f.calls, key)
	f.mu.Unlock()
	if err, ok := f.errs[key]; ok {
		return nil, err
	}
	if res, ok := f.results[key]; ok {
		return res, nil
	}
	return &process.Result{ExitCode: 127, Stderr: name + ": command not found"}, nil
}

func TestCheck_NoVersion(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		err     error
		present bool
	}{
		{"found", "/usr/bin/git", nil, true},
		{"lookup error", "", errors.New("executable file not found in $PATH"), false},
		{"empty path", "", nil, false},
		{"not found text", "git not found", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{}
			p := New(runner, WithLookPath(func(string) (string, error) { return tt.path, tt.err }))
			res := p.Check(context.Background(), "git", "")
			if res.Present != tt.present {
				t.Errorf("Present = %v, want %v", res.Present, tt.present)
			}
			if !tt.present && res.Err == nil {
				t.Error("absent result should carry a cause")
			}
			if len(runner.calls) != 0 {
				t.Errorf("no-version probe ran %v", runner.calls)
			}
		})
	}
}

func TestCheck_Version(t *testing.T) {
	tests := []struct {
		name      string
		program   string
		results   map[string]*process.Result
		version   string
		present   bool
		wantCalls int
	}{
		{
			name:      "--version on stdout",
			program:   "jq",
			results:   map[string]*process.Result{"jq --version": {Stdout: "jq-1.7.1\n"}},
			version:   "1.7.1",
			present:   true,
			wantCalls: 1,
		},
		{
			name:      "--version on stderr",
			program:   "jq",
			results:   map[string]*process.Result{"jq --version": {Stderr: "jq version 1.7.1"}},
			version:   "1.7.1",
			present:   true,
			wantCalls: 1,
		},
		{
			name:    "falls back to version subcommand",
			program: "kubectl",
			results: map[string]*process.Result{
				"kubectl --version": {Stderr: "unknown flag: --version", ExitCode: 1},
				"kubectl version":   {Stdout: "Client Version: v1.31.0\nKustomize Version: v5.4.2"},
			},
			version:   "v1.31.0",
			present:   true,
			wantCalls: 2,
		},
		{
			name:      "wrong version",
			program:   "jq",
			results:   map[string]*process.Result{"jq --version": {Stdout: "jq-1.6"}},
			version:   "1.7.1",
			present:   false,
			wantCalls: 2,
		},
		{
			name:      "glob in version",
			program:   "jq",
			results:   map[string]*process.Result{"jq --version": {Stdout: "jq-1.7.1"}},
			version:   "1.7.?",
			present:   true,
			wantCalls: 1,
		},
		{
			name:      "star spans newlines and slashes",
			program:   "tool",
			results:   map[string]*process.Result{"tool --version": {Stdout: "tool\nbuilt from a/b\n2.0.0"}},
			version:   "2.0.0",
			present:   true,
			wantCalls: 1,
		},
		{
			name:      "invalid pattern matches literally",
			program:   "tool",
			results:   map[string]*process.Result{"tool --version": {Stdout: "tool [z-a] edition"}},
			version:   "[z-a]",
			present:   true,
			wantCalls: 1,
		},
		{
			name:    "version printed but exit status non-zero",
			program: "tool",
			results: map[string]*process.Result{
				"tool --version": {Stdout: "tool 1.2.3: broken install, missing libfoo", ExitCode: 1},
				"tool version":   {Stdout: "tool 1.2.3", ExitCode: 2},
			},
			version:   "1.2.3",
			present:   false,
			wantCalls: 2,
		},
		{
			name:      "missing program",
			program:   "ghost",
			version:   "1.0",
			present:   false,
			wantCalls: 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{results: tt.results}
			res := New(runner).Check(context.Background(), tt.program, tt.version)
			if res.Present != tt.present {
				t.Errorf("Present = %v, want %v (err %v)", res.Present, tt.present, res.Err)
			}
			if len(runner.calls) != tt.wantCalls {
				t.Errorf("calls = %v, want %d", runner.calls, tt.wantCalls)
			}
		})
	}
}

func TestCheck_VersionMismatchError(t *testing.T) {
	runner := &fakeRunner{results: map[string]*process.Result{
		"jq --version": {Stdout: "jq-1.6"},
		"jq version":   {Stdout: "jq-1.6"},
	}}
	res := New(runner).Check(context.Background(), "jq", "1.7")
	if !errors.Is(res.Err, ErrVersionMismatch) {
		t.Errorf("Err = %v, want ErrVersionMismatch", res.Err)
	}
	if res.Output != "jq-1.6" {
		t.Errorf("Output = %q", res.Output)
	}
}

func TestCheck_NonZeroExitDiscardsOutput(t *testing.T) {
	runner := &fakeRunner{results: map[string]*process.Result{
		"tool --version": {Stdout: "tool 1.2.3", ExitCode: 1},
		"tool version":   {Stdout: "tool 1.2.3", ExitCode: 2},
	}}
	res := New(runner).Check(context.Background(), "tool", "1.2.3")
	if res.Present {
		t.Fatal("non-zero exit must read as absent")
	}
	if res.Output != "" {
		t.Errorf("Output = %q, want empty", res.Output)
	}
	if res.Err == nil || !strings.Contains(res.Err.Error(), "exit 2") {
		t.Errorf("Err = %v, want exit status", res.Err)
	}
}

func TestCheck_RunnerErrorIsAbsent(t *testing.T) {
	boom := errors.New("exec format error")
	runner := &fakeRunner{errs: map[string]error{"jq --version": boom, "jq version": boom}}
	res := New(runner).Check(context.Background(), "jq", "1.7")
	if res.Present {
		t.Error("runner failure must read as absent")
	}
	if !errors.Is(res.Err, boom) {
		t.Errorf("Err = %v, want %v", res.Err, boom)
	}
}

// deadlineRunner records the deadline it was given.
type deadlineRunner struct{ deadline time.Duration }

func (d *deadlineRunner) Run(ctx context.Context, dir, name string, args ...string) (*process.Result, error) {
	if dl, ok := ctx.Deadline(); ok {
		d.deadline = time.Until(dl)
	}
	return &process.Result{Stdout: "1.0"}, nil
}

func TestCheck_Timeout(t *testing.T) {
	r := &deadlineRunner{}
	if !New(r, WithTimeout(2*time.Second)).IsPresent(context.Background(), "x", "1.0") {
		t.Fatal("expected present")
	}
	if r.deadline <= 0 || r.deadline > 2*time.Second {
		t.Errorf("deadline = %v, want within 2s", r.deadline)
	}
}
