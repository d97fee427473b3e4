// Package service provides the gearbox operations behind the CLI: listing,
// installing, removing and running catalog tools, and listing and switching
// environments.
package service

import (
	"errors"
	"fmt"

	"github.com/ZebulonRouseFrantzich/gearbox/internal/platform"
)

// ErrDeclined is returned when the user answers no at a confirmation prompt.
// It is a neutral outcome, not a failure.
var ErrDeclined = errors.New("operation declined")

// NoLinkError reports a managed tool without an artifact link for the
// current platform. It aborts the whole batch before any download.
type NoLinkError struct {
	Tool     string
	Platform platform.Platform
}

func (e *NoLinkError) Error() string {
	return fmt.Sprintf("no link set for %s in platform %s", e.Tool, e.Platform)
}

// ToolError is a per-tool failure inside a batch. Other tools of the batch
// still run.
type ToolError struct {
	Tool string
	Op   string
	Err  error
}

func (e *ToolError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("cannot %s %s", e.Op, e.Tool)
	}
	return fmt.Sprintf("cannot %s %s: %v", e.Op, e.Tool, e.Err)
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// Logger provides structured diagnostics. *slog.Logger satisfies it.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(msg string, keysAndValues ...any) {}
func (noopLogger) Info(msg string, keysAndValues ...any)  {}
func (noopLogger) Warn(msg string, keysAndValues ...any)  {}
func (noopLogger) Error(msg string, keysAndValues ...any) {}
