package query

import (
	"sort"

	"opkg/internal/types"
)

// Depends returns the forward dependency atoms (Depends + Pre-Depends)
// declared by the first solvable named name in pool order (the first
// entry Info returns), flattening alternations into their constituent
// atoms for display.
func (f Facade) Depends(name string) ([]types.Constraint, error) {
	svs, err := f.Info(name)
	if err != nil {
		return nil, err
	}
	sv := svs[0]
	var out []types.Constraint
	for _, alt := range append(append([]types.Alternation{}, sv.PreDepends...), sv.Depends...) {
		out = append(out, alt.Options...)
	}
	return out, nil
}

// selector extracts the list of constraint atoms a field relation
// contributes for a given solvable; used to parameterize the reverse
// lookups below over each of Conflicts/Replaces/Recommends/Suggests.
type selector func(types.Solvable) []types.Constraint

func dependsSelector(sv types.Solvable) []types.Constraint {
	var out []types.Constraint
	for _, alt := range append(append([]types.Alternation{}, sv.PreDepends...), sv.Depends...) {
		out = append(out, alt.Options...)
	}
	return out
}

func recommendsSelector(sv types.Solvable) []types.Constraint {
	var out []types.Constraint
	for _, alt := range sv.Recommends {
		out = append(out, alt.Options...)
	}
	return out
}

func suggestsSelector(sv types.Solvable) []types.Constraint {
	var out []types.Constraint
	for _, alt := range sv.Suggests {
		out = append(out, alt.Options...)
	}
	return out
}

func conflictsSelector(sv types.Solvable) []types.Constraint { return sv.Conflicts }
func replacesSelector(sv types.Solvable) []types.Constraint  { return sv.Replaces }

// reverseLookup returns every solvable in the pool whose sel(sv)
// includes an atom naming target, sorted by name.
func (f Facade) reverseLookup(target string, sel selector) []types.Solvable {
	var out []types.Solvable
	for _, id := range f.Pool.AllIDs() {
		sv, ok := f.Pool.Solvable(id)
		if !ok {
			continue
		}
		for _, atom := range sel(sv) {
			if atom.Name == target {
				out = append(out, sv)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// WhatDepends returns every solvable that depends (directly, or
// transitively when recursive is set) on name.
func (f Facade) WhatDepends(name string, recursive bool) []types.Solvable {
	return f.saturate(name, dependsSelector, recursive)
}

// WhatRecommends returns every solvable recommending name.
func (f Facade) WhatRecommends(name string) []types.Solvable {
	return f.reverseLookup(name, recommendsSelector)
}

// WhatSuggests returns every solvable suggesting name.
func (f Facade) WhatSuggests(name string) []types.Solvable {
	return f.reverseLookup(name, suggestsSelector)
}

// WhatConflicts returns every solvable conflicting with name.
func (f Facade) WhatConflicts(name string) []types.Solvable {
	return f.reverseLookup(name, conflictsSelector)
}

// WhatReplaces returns every solvable that replaces name.
func (f Facade) WhatReplaces(name string) []types.Solvable {
	return f.reverseLookup(name, replacesSelector)
}

// WhatProvides returns every solvable providing name, via the pool's
// what-provides index (an unversioned atom matches any provider).
func (f Facade) WhatProvides(name string) ([]types.Solvable, error) {
	ids, err := f.Pool.WhatProvides(types.Constraint{Name: name})
	if err != nil {
		return nil, err
	}
	out := make([]types.Solvable, 0, len(ids))
	for _, id := range ids {
		if sv, ok := f.Pool.Solvable(id); ok {
			out = append(out, sv)
		}
	}
	return out, nil
}

// saturate computes the reverse closure of sel starting from name:
// every solvable that depends on name, then every solvable that
// depends on one of those, and so on until no new solvable is added.
// When recursive is false it stops after one hop.
func (f Facade) saturate(name string, sel selector, recursive bool) []types.Solvable {
	seen := map[string]types.Solvable{}
	frontier := []string{name}
	for len(frontier) > 0 {
		var next []string
		for _, n := range frontier {
			for _, sv := range f.reverseLookup(n, sel) {
				if _, ok := seen[sv.Name]; ok {
					continue
				}
				seen[sv.Name] = sv
				next = append(next, sv.Name)
			}
		}
		if !recursive {
			break
		}
		frontier = next
	}
	out := make([]types.Solvable, 0, len(seen))
	for _, sv := range seen {
		out = append(out, sv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
