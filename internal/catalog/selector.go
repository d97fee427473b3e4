package catalog

import (
	"fmt"
	"strings"

	"github.com/ZebulonRouseFrantzich/gearbox/internal/glob"
)

// Resolve splits selector on commas and returns the union of ByName and
// ByTag for every non-empty atom. An empty selector resolves to nothing.
func (r *Registry[T]) Resolve(selector string) ([]T, error) {
	atoms := SplitSelector(selector)
	if len(atoms) == 0 {
		return nil, nil
	}
	patterns := make([]*glob.Pattern, 0, len(atoms))
	for _, atom := range atoms {
		p, err := glob.Compile(atom)
		if err != nil {
			return nil, fmt.Errorf("selector %q: %w", atom, err)
		}
		patterns = append(patterns, p)
	}
	return r.collect(func(e T) bool {
		name := r.nameOf(e)
		for _, p := range patterns {
			if p.Match(name) || r.tagMatch(p, e) {
				return true
			}
		}
		return false
	}), nil
}

// Select returns Resolve(include) minus Resolve(exclude).
func (r *Registry[T]) Select(include, exclude string) ([]T, error) {
	in, err := r.Resolve(include)
	if err != nil {
		return nil, err
	}
	out, err := r.Resolve(exclude)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return in, nil
	}
	drop := make(map[T]struct{}, len(out))
	for _, e := range out {
		drop[e] = struct{}{}
	}
	kept := in[:0:0]
	for _, e := range in {
		if _, ok := drop[e]; !ok {
			kept = append(kept, e)
		}
	}
	return kept, nil
}

// SplitSelector splits a comma separated selector into trimmed, non-empty
// atoms.
func SplitSelector(selector string) []string {
	var atoms []string
	for _, atom := range strings.Split(selector, ",") {
		if atom = strings.TrimSpace(atom); atom != "" {
			atoms = append(atoms, atom)
		}
	}
	return atoms
}
