// Package console is the user-facing output of gearbox: prefixed status
// lines, confirmation prompts and tables, styled with lipgloss.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// ErrNoAnswer is returned by Confirm when input ends before an answer.
var ErrNoAnswer = errors.New("no answer: input closed")

// Console is what services use to talk to the user. Implementations must be
// safe for concurrent use.
type Console interface {
	Print(msg string)
	Info(msg string)
	Warn(msg string)
	Fail(msg string)
	Exit(msg string)
	Confirm(ctx context.Context, prompt string) (bool, error)
	Table(headers []string, rows [][]string)

	// Accent, Good and Bad style inline fragments.
	Accent(s string) string
	Good(s string) string
	Bad(s string) string
}

type styles struct {
	info   lipgloss.Style
	warn   lipgloss.Style
	fail   lipgloss.Style
	exit   lipgloss.Style
	accent lipgloss.Style
	good   lipgloss.Style
	bad    lipgloss.Style
	header lipgloss.Style
	cell   lipgloss.Style
	dim    lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		info:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("6")),
		warn:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("3")),
		fail:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("1")),
		exit:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("6")),
		accent: r.NewStyle().Foreground(lipgloss.Color("6")).Inline(true),
		good:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("2")).Inline(true),
		bad:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("1")).Inline(true),
		header: r.NewStyle().Bold(true).PaddingRight(2),
		cell:   r.NewStyle().PaddingRight(2),
		dim:    r.NewStyle().Faint(true).PaddingRight(2),
	}
}

// Terminal is a Console over a reader and a writer.
type Terminal struct {
	mu     sync.Mutex
	out    io.Writer
	in     *bufio.Reader
	styles styles

	// pending carries the result of a read abandoned by a cancelled Confirm.
	pending chan answer
}

type answer struct {
	line string
	err  error
}

// New creates a console writing to out and reading answers from in. Colors
// are only emitted when out is a terminal.
func New(out io.Writer, in io.Reader) *Terminal {
	return &Terminal{
		out:    out,
		in:     bufio.NewReader(in),
		styles: newStyles(lipgloss.NewRenderer(out)),
	}
}

// Std returns a console on the process's stdout and stdin.
func Std() *Terminal {
	return New(os.Stdout, os.Stdin)
}

func (t *Terminal) println(s string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.out, s)
}

func (t *Terminal) Print(msg string) { t.println(msg) }

func (t *Terminal) Info(msg string) { t.println(t.styles.info.Render("INFO:") + " " + msg) }

func (t *Terminal) Warn(msg string) { t.println(t.styles.warn.Render("WARN:") + " " + msg) }

// Fail reports a fatal error. Exiting the process is left to the caller.
func (t *Terminal) Fail(msg string) { t.println(t.styles.fail.Render("FAIL:") + " " + msg) }

// Exit reports a neutral early termination. Exiting the process is left to
// the caller.
func (t *Terminal) Exit(msg string) { t.println(t.styles.exit.Render("EXIT:") + " " + msg) }

func (t *Terminal) Accent(s string) string { return t.styles.accent.Render(s) }

func (t *Terminal) Good(s string) string { return t.styles.good.Render(s) }

func (t *Terminal) Bad(s string) string { return t.styles.bad.Render(s) }

// Confirm shows prompt and reads one line. An empty answer or y/Y means yes;
// anything else means no. Cancelling ctx abandons the wait and returns
// ctx.Err(); the line typed afterwards goes to the next Confirm.
func (t *Terminal) Confirm(ctx context.Context, prompt string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	fmt.Fprint(t.out, prompt)
	ch := t.pending
	t.pending = nil
	if ch == nil {
		ch = make(chan answer, 1)
		go func() {
			line, err := t.in.ReadString('\n')
			ch <- answer{line: line, err: err}
		}()
	}

	var a answer
	select {
	case a = <-ch:
	case <-ctx.Done():
		t.pending = ch
		fmt.Fprintln(t.out)
		return false, ctx.Err()
	}

	if a.err != nil && (!errors.Is(a.err, io.EOF) || a.line == "") {
		fmt.Fprintln(t.out)
		if errors.Is(a.err, io.EOF) {
			return false, ErrNoAnswer
		}
		return false, fmt.Errorf("read answer: %w", a.err)
	}
	return IsYes(a.line), nil
}

// IsYes interprets a confirmation answer.
func IsYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "", "y":
		return true
	default:
		return false
	}
}

// Table renders rows under bold headers. The last column is dimmed.
func (t *Terminal) Table(headers []string, rows [][]string) {
	last := len(headers) - 1
	tbl := table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderColumn(false).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return t.styles.header
			case col == last && last > 0:
				return t.styles.dim
			default:
				return t.styles.cell
			}
		})
	t.println(tbl.String())
}
