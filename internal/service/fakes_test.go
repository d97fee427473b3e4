package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/ZebulonRouseFrantzich/gearbox/internal/binary"
	"github.com/ZebulonRouseFrantzich/gearbox/internal/catalog"
	"github.com/ZebulonRouseFrantzich/gearbox/internal/probe"
)

// fakeConsole records output and answers prompts from a queue.
type fakeConsole struct {
	mu      sync.Mutex
	lines   []string
	answers []bool
	prompts int
	tables  [][][]string
}

func (c *fakeConsole) add(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, line)
}

func (c *fakeConsole) Print(msg string) { c.add(msg) }
func (c *fakeConsole) Info(msg string)  { c.add("INFO: " + msg) }
func (c *fakeConsole) Warn(msg string)  { c.add("WARN: " + msg) }
func (c *fakeConsole) Fail(msg string)  { c.add("FAIL: " + msg) }
func (c *fakeConsole) Exit(msg string)  { c.add("EXIT: " + msg) }

func (c *fakeConsole) Accent(s string) string { return s }
func (c *fakeConsole) Good(s string) string   { return s }
func (c *fakeConsole) Bad(s string) string    { return s }

func (c *fakeConsole) Table(headers []string, rows [][]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tables = append(c.tables, rows)
}

func (c *fakeConsole) Confirm(ctx context.Context, prompt string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompts++
	if len(c.answers) == 0 {
		return false, errors.New("unexpected prompt")
	}
	a := c.answers[0]
	c.answers = c.answers[1:]
	return a, nil
}

func (c *fakeConsole) has(line string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, l := range c.lines {
		if l == line {
			return true
		}
	}
	return false
}

func (c *fakeConsole) output() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return strings.Join(c.lines, "\n")
}

// fileProber treats a program as present when its file exists and, if a
// version is expected, the file contains it.
type fileProber struct{}

func (fileProber) Check(_ context.Context, program, version string) probe.Result {
	if version == "" {
		if _, err := os.Stat(program); err != nil {
			return probe.Result{Err: err}
		}
		return probe.Result{Present: true}
	}
	data, err := os.ReadFile(program)
	if err != nil {
		return probe.Result{Err: err}
	}
	if !strings.Contains(string(data), version) {
		return probe.Result{Output: string(data), Err: probe.ErrVersionMismatch}
	}
	return probe.Result{Present: true, Output: string(data)}
}

// fakeInstaller writes the body registered for a link URL to dest.
type fakeInstaller struct {
	mu     sync.Mutex
	bodies map[string]string
	fail   map[string]error
	calls  []string
	dirs   []string
	// before runs at the start of every Install.
	before func()
}

func (f *fakeInstaller) Install(_ context.Context, link catalog.LinkSpec, dest, workDir string) (*binary.InstallResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, link.URL)
	f.dirs = append(f.dirs, workDir)
	err := f.fail[link.URL]
	body := f.bodies[link.URL]
	before := f.before
	f.mu.Unlock()

	if before != nil {
		before()
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(dest, []byte(body), 0o755); err != nil {
		return nil, err
	}
	return &binary.InstallResult{Path: dest, Verified: []binary.VerificationMethod{binary.VerificationNone}}, nil
}

func (f *fakeInstaller) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// warnLogger records Warn messages.
type warnLogger struct {
	mu    sync.Mutex
	warns []string
}

func (l *warnLogger) Debug(string, ...any) {}
func (l *warnLogger) Info(string, ...any)  {}
func (l *warnLogger) Error(string, ...any) {}

func (l *warnLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

func (l *warnLogger) warned(msg string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Contains(l.warns, msg)
}

type fakeExecutor struct {
	name string
	args []string
	code int
}

func (e *fakeExecutor) Exec(_ context.Context, name string, args ...string) (int, error) {
	e.name = name
	e.args = args
	return e.code, nil
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
		t.Fatal(err)
	}
}
