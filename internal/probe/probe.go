// Package probe decides whether a program is installed, optionally at an
// expected version.
package probe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/ZebulonRouseFrantzich/gearbox/internal/glob"
	"github.com/ZebulonRouseFrantzich/gearbox/internal/process"
)

// DefaultTimeout bounds each probe invocation.
const DefaultTimeout = 10 * time.Second

// versionArgs are tried in order until one reports a matching version.
var versionArgs = []string{"--version", "version"}

// Result is the outcome of a probe. Err keeps the low-level cause of a
// negative answer for diagnostics; it is never a reason to fail an
// operation.
type Result struct {
	Present bool
	Output  string
	Err     error
}

// ErrVersionMismatch is recorded in Result.Err when the program ran but did
// not report the expected version.
var ErrVersionMismatch = errors.New("version mismatch")

// Prober checks program presence.
type Prober struct {
	runner   process.Runner
	timeout  time.Duration
	lookPath func(string) (string, error)
	logger   *slog.Logger
}

// Option configures a Prober.
type Option func(*Prober)

// WithTimeout sets the per-invocation timeout.
func WithTimeout(d time.Duration) Option {
	return func(p *Prober) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithLogger sets the debug logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Prober) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithLookPath replaces exec.LookPath.
func WithLookPath(fn func(string) (string, error)) Option {
	return func(p *Prober) { p.lookPath = fn }
}

// New creates a Prober that runs programs through runner.
func New(runner process.Runner, opts ...Option) *Prober {
	p := &Prober{
		runner:   runner,
		timeout:  DefaultTimeout,
		lookPath: exec.LookPath,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Check reports whether program is present. Without a version, presence is
// an executable lookup. With a version, the program's --version output (then
// its version subcommand output) must contain it, glob style.
func (p *Prober) Check(ctx context.Context, program, version string) Result {
	var res Result
	if version == "" {
		res = p.lookup(program)
	} else {
		res = p.matchVersion(ctx, program, version)
	}
	p.logger.Debug("probe", "program", program, "version", version, "present", res.Present, "err", res.Err)
	return res
}

// IsPresent is Check without the diagnostics.
func (p *Prober) IsPresent(ctx context.Context, program, version string) bool {
	return p.Check(ctx, program, version).Present
}

func (p *Prober) lookup(program string) Result {
	path, err := p.lookPath(program)
	if err != nil {
		return Result{Err: err}
	}
	if path == "" || strings.Contains(path, "not found") {
		return Result{Output: path, Err: fmt.Errorf("%s: not found", program)}
	}
	return Result{Present: true, Output: path}
}

func (p *Prober) matchVersion(ctx context.Context, program, version string) Result {
	match := versionMatcher(version)

	var last Result
	for _, arg := range versionArgs {
		out, err := p.run(ctx, program, arg)
		if err != nil {
			last = Result{Output: out, Err: err}
			continue
		}
		if match(out) {
			return Result{Present: true, Output: out}
		}
		last = Result{Output: out, Err: fmt.Errorf("%w: want %s, got %q", ErrVersionMismatch, version, firstLine(out))}
	}
	return last
}

func (p *Prober) run(ctx context.Context, program, arg string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	res, err := p.runner.Run(ctx, "", program, arg)
	if err != nil {
		if res != nil {
			return res.Output(), err
		}
		return "", err
	}
	if res.ExitCode != 0 {
		return "", fmt.Errorf("%s %s: exit %d", program, arg, res.ExitCode)
	}
	return res.Output(), nil
}

// versionMatcher returns a predicate for "*<version>*". A version that is
// not a valid pattern is matched as a plain substring.
func versionMatcher(version string) func(string) bool {
	pattern, err := glob.Compile("*" + version + "*")
	if err != nil {
		return func(out string) bool { return strings.Contains(out, version) }
	}
	return pattern.Match
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
