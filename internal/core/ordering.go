package core

import (
	"sort"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"opkg/internal/types"
)

// edgeKind distinguishes a Pre-Depends edge (the dependency must be
// fully configured first) from a plain Depends edge (the dependency
// only needs to be unpacked first). A cycle is broken on a Depends edge
// when it has one; a Pre-Depends edge is broken only when no Depends
// edge remains in the cycle.
type edgeKind int

const (
	edgeDepends edgeKind = iota
	edgePreDepends
)

type edge struct {
	from, to int // from depends on to; to must be ordered first
	kind     edgeKind
}

// OrderInstalls topologically sorts a set of solvable IDs selected for
// installation so that every dependency precedes its dependents.
// Pre-Depends edges take priority over Depends edges when a cycle must
// be broken: Depends edges are cut first, Pre-Depends only as a last
// resort (and a DEBUG line records the break). Ties among ready nodes
// are broken by package name for deterministic output.
func OrderInstalls(p *Pool, ids []int) ([]int, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	inSet := make(map[int]bool, len(ids))
	for _, id := range ids {
		inSet[id] = true
	}

	var edges []edge
	for _, id := range ids {
		sv, ok := p.Solvable(id)
		if !ok {
			continue
		}
		for _, alt := range sv.PreDepends {
			addAlternationEdges(p, id, alt, inSet, edgePreDepends, &edges)
		}
		for _, alt := range sv.Depends {
			addAlternationEdges(p, id, alt, inSet, edgeDepends, &edges)
		}
	}

	return topoSort(p, ids, edges)
}

func addAlternationEdges(p *Pool, from int, alt types.Alternation, inSet map[int]bool, kind edgeKind, edges *[]edge) {
	for _, opt := range alt.Options {
		matches, err := p.WhatProvides(opt)
		if err != nil {
			continue
		}
		for _, to := range matches {
			if to == from || !inSet[to] {
				continue
			}
			*edges = append(*edges, edge{from: from, to: to, kind: kind})
		}
	}
}

func topoSort(p *Pool, ids []int, edges []edge) ([]int, error) {
	indegree := make(map[int]int, len(ids))
	for _, id := range ids {
		indegree[id] = 0
	}
	dependents := make(map[int][]edge) // keyed by "to": edges whose target is this node
	for _, e := range edges {
		indegree[e.from]++
		dependents[e.to] = append(dependents[e.to], e)
	}

	ready := make([]int, 0, len(ids))
	for _, id := range ids {
		if indegree[id] == 0 {
			ready = append(ready, id)
		}
	}

	ordered := make([]int, 0, len(ids))
	remaining := make(map[int]bool, len(ids))
	for _, id := range ids {
		remaining[id] = true
	}

	for len(ordered) < len(ids) {
		if len(ready) == 0 {
			broken, err := breakCycle(p, remaining, edges)
			if err != nil {
				return nil, err
			}
			for _, e := range edges {
				if e == broken {
					indegree[e.from]--
				}
			}
			edges = removeEdge(edges, broken)
			for id := range remaining {
				if indegree[id] == 0 {
					ready = append(ready, id)
				}
			}
			continue
		}
		sort.Slice(ready, func(i, j int) bool {
			a, _ := p.Solvable(ready[i])
			b, _ := p.Solvable(ready[j])
			return a.Name < b.Name
		})
		next := ready[0]
		ready = ready[1:]
		if !remaining[next] {
			continue
		}
		ordered = append(ordered, next)
		delete(remaining, next)
		for _, e := range dependents[next] {
			if !remaining[e.from] {
				continue
			}
			indegree[e.from]--
			if indegree[e.from] == 0 {
				ready = append(ready, e.from)
			}
		}
	}
	return ordered, nil
}

func removeEdge(edges []edge, target edge) []edge {
	out := edges[:0]
	removed := false
	for _, e := range edges {
		if !removed && e == target {
			removed = true
			continue
		}
		out = append(out, e)
	}
	return out
}

// breakCycle picks the weakest edge still inside a dependency cycle
// (a Depends edge in preference to a Pre-Depends edge) among the
// still-unordered nodes and returns it for removal.
func breakCycle(p *Pool, remaining map[int]bool, edges []edge) (edge, error) {
	var weakest, fallback edge
	haveWeakest, haveFallback := false, false
	for _, e := range edges {
		if !remaining[e.from] || !remaining[e.to] {
			continue
		}
		if e.kind == edgeDepends && !haveWeakest {
			weakest = e
			haveWeakest = true
		}
		if !haveFallback {
			fallback = e
			haveFallback = true
		}
	}
	if haveWeakest {
		logCycleBreak(p, weakest)
		return weakest, nil
	}
	if haveFallback {
		logCycleBreak(p, fallback)
		return fallback, nil
	}
	return edge{}, errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg("dependency cycle detected with no breakable edge")
}

func logCycleBreak(p *Pool, e edge) {
	from, _ := p.Solvable(e.from)
	to, _ := p.Solvable(e.to)
	log.Debug().Str("from", from.Name).Str("to", to.Name).Msg("breaking dependency cycle")
}
