// Package glob implements shell-style wildcard matching over whole strings.
//
// Patterns support '*' (any run of characters, including '/' and newlines),
// '?' (any single character) and bracket classes such as [abc], [a-z] and
// [!0-9]. Matching is case-sensitive. An unterminated '[' matches itself.
package glob

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// ErrBadPattern is returned when a pattern cannot be compiled.
var ErrBadPattern = errors.New("invalid glob pattern")

// Pattern is a compiled glob pattern.
type Pattern struct {
	raw string
	re  *regexp.Regexp
}

// Compile translates a glob pattern into a matcher.
func Compile(pattern string) (*Pattern, error) {
	re, err := regexp.Compile(translate(pattern))
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrBadPattern, pattern, err)
	}
	return &Pattern{raw: pattern, re: re}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(pattern string) *Pattern {
	p, err := Compile(pattern)
	if err != nil {
		panic(err)
	}
	return p
}

// Match reports whether s matches the whole pattern.
func (p *Pattern) Match(s string) bool {
	return p.re.MatchString(s)
}

// String returns the source pattern.
func (p *Pattern) String() string {
	return p.raw
}

// Match compiles pattern and matches it against s.
func Match(pattern, s string) (bool, error) {
	p, err := Compile(pattern)
	if err != nil {
		return false, err
	}
	return p.Match(s), nil
}

// HasMeta reports whether s contains any glob metacharacters.
func HasMeta(s string) bool {
	return strings.ContainsAny(s, "*?[")
}

func translate(pattern string) string {
	var sb strings.Builder
	sb.WriteString(`^(?s:`)

	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch c {
		case '*':
			sb.WriteString(`.*`)
		case '?':
			sb.WriteString(`.`)
		case '[':
			end := classEnd(pattern, i)
			if end < 0 {
				sb.WriteString(`\[`)
				continue
			}
			sb.WriteString(translateClass(pattern[i+1 : end]))
			i = end
		default:
			_, size := utf8.DecodeRuneInString(pattern[i:])
			sb.WriteString(regexp.QuoteMeta(pattern[i : i+size]))
			i += size - 1
		}
	}

	sb.WriteString(`)$`)
	return sb.String()
}

// classEnd returns the index of the ']' closing the class opened at start,
// or -1 if the class is unterminated. A ']' directly after '[' or '[!' is
// part of the class.
func classEnd(pattern string, start int) int {
	j := start + 1
	if j < len(pattern) && pattern[j] == '!' {
		j++
	}
	if j < len(pattern) && pattern[j] == ']' {
		j++
	}
	for ; j < len(pattern); j++ {
		if pattern[j] == ']' {
			return j
		}
	}
	return -1
}

func translateClass(body string) string {
	var sb strings.Builder
	sb.WriteByte('[')
	if strings.HasPrefix(body, "!") {
		sb.WriteByte('^')
		body = body[1:]
	}
	for i := 0; i < len(body); i++ {
		c := body[i]
		switch c {
		case '\\', '[', ']', '^':
			sb.WriteByte('\\')
			sb.WriteByte(c)
		default:
			sb.WriteByte(c)
		}
	}
	sb.WriteByte(']')
	return sb.String()
}
