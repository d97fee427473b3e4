package catalog

import (
	"errors"
	"fmt"

	"github.com/ZebulonRouseFrantzich/gearbox/internal/glob"
)

// ErrDuplicateName is returned when two registry entries share a name.
var ErrDuplicateName = errors.New("duplicate name")

// ErrEmptyName is returned when a registry entry has no name.
var ErrEmptyName = errors.New("empty name")

// Registry is an immutable, declaration-ordered collection of named, tagged
// entries. It is safe for concurrent reads.
type Registry[T comparable] struct {
	entries []T
	index   map[string]int
	nameOf  func(T) string
	tagsOf  func(T) []string
}

// NewRegistry builds a registry from entries in declaration order. Names must
// be non-empty and unique.
func NewRegistry[T comparable](entries []T, nameOf func(T) string, tagsOf func(T) []string) (*Registry[T], error) {
	r := &Registry[T]{
		entries: make([]T, 0, len(entries)),
		index:   make(map[string]int, len(entries)),
		nameOf:  nameOf,
		tagsOf:  tagsOf,
	}
	for i, e := range entries {
		name := nameOf(e)
		if name == "" {
			return nil, fmt.Errorf("entry %d: %w", i, ErrEmptyName)
		}
		if _, ok := r.index[name]; ok {
			return nil, fmt.Errorf("%q: %w", name, ErrDuplicateName)
		}
		r.index[name] = len(r.entries)
		r.entries = append(r.entries, e)
	}
	return r, nil
}

// NewToolRegistry builds a registry of tools.
func NewToolRegistry(tools []*Tool) (*Registry[*Tool], error) {
	return NewRegistry(tools,
		func(t *Tool) string { return t.Name },
		func(t *Tool) []string { return t.Tags })
}

// NewEnvRegistry builds a registry of environments.
func NewEnvRegistry(envs []*Environment) (*Registry[*Environment], error) {
	return NewRegistry(envs,
		func(e *Environment) string { return e.Name },
		func(e *Environment) []string { return e.Tags })
}

// All returns every entry in declaration order.
func (r *Registry[T]) All() []T {
	out := make([]T, len(r.entries))
	copy(out, r.entries)
	return out
}

// Len returns the number of entries.
func (r *Registry[T]) Len() int {
	return len(r.entries)
}

// Get returns the entry named exactly name.
func (r *Registry[T]) Get(name string) (T, bool) {
	i, ok := r.index[name]
	if !ok {
		var zero T
		return zero, false
	}
	return r.entries[i], true
}

// ByName returns the entries whose names match pattern.
func (r *Registry[T]) ByName(pattern string) ([]T, error) {
	p, err := glob.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("name selector %q: %w", pattern, err)
	}
	return r.collect(func(e T) bool { return p.Match(r.nameOf(e)) }), nil
}

// ByTag returns the entries carrying at least one tag that matches pattern,
// plus every entry tagged "all".
func (r *Registry[T]) ByTag(pattern string) ([]T, error) {
	p, err := glob.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("tag selector %q: %w", pattern, err)
	}
	return r.collect(func(e T) bool { return r.tagMatch(p, e) }), nil
}

func (r *Registry[T]) tagMatch(p *glob.Pattern, e T) bool {
	for _, tag := range r.tagsOf(e) {
		if tag == TagAll || p.Match(tag) {
			return true
		}
	}
	return false
}

func (r *Registry[T]) collect(keep func(T) bool) []T {
	var out []T
	for _, e := range r.entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}
