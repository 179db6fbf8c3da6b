package core

import (
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"opkg/internal/types"
)

// InstalledRepoName is the reserved name of the distinguished repo
// holding the currently-installed set.
const InstalledRepoName = "installed"

// Repo is a named subset of the pool sourced from a single origin: an
// index file or the installed database. Priority breaks ties between
// repos that both satisfy a dependency atom; higher wins.
type Repo struct {
	Name       string
	ID         int
	Priority   int
	Frozen     bool
	SolvableID []int
}

// BitSet is a small set-of-ints used to restrict the pool's universe
// (the "considered" restriction that implements the exclude list).
type BitSet map[int]struct{}

// Add marks id as a member of the set.
func (b BitSet) Add(id int) { b[id] = struct{}{} }

// Has reports whether id is a member of the set.
func (b BitSet) Has(id int) bool {
	_, ok := b[id]
	return ok
}

// Pool is the unified store of solvables across all repositories plus
// the installed repository, with an interning table for O(1) identity
// comparison and a what-provides index built on demand.
type Pool struct {
	interner *Interner
	archs    types.ArchTable

	solvables []types.Solvable // index 0 unused; solvable IDs are 1-based
	repos     map[string]*Repo
	repoOrder []string

	installedRepo string

	provideIndex map[string][]int // interned name -> provider solvable IDs
	indexFresh   bool

	// Considered restricts the universe when non-nil; a solvable not in
	// the set is treated as not-considered (the exclude list).
	Considered BitSet
}

// NewPool creates an empty pool bound to the given architecture table.
func NewPool(archs types.ArchTable) *Pool {
	return &Pool{
		interner:      NewInterner(),
		archs:         archs,
		solvables:     make([]types.Solvable, 1),
		repos:         map[string]*Repo{},
		installedRepo: InstalledRepoName,
	}
}

// Intern returns the stable ID for s.
func (p *Pool) Intern(s string) int { return p.interner.Intern(s) }

// Archs returns the pool's configured architecture table.
func (p *Pool) Archs() types.ArchTable { return p.archs }

// EnsureRepo returns the named repo, creating it with the given
// priority if it does not yet exist.
func (p *Pool) EnsureRepo(name string, priority int) *Repo {
	if r, ok := p.repos[name]; ok {
		return r
	}
	r := &Repo{Name: name, ID: len(p.repoOrder) + 1, Priority: priority}
	p.repos[name] = r
	p.repoOrder = append(p.repoOrder, name)
	return r
}

// AddSolvable registers a solvable in the named repo, failing if the
// repo has already been internalized (frozen). For the installed repo,
// a duplicate (name, arch) keeps the later entry and reports dedup=true
// so the caller (the status store) can mark its destination dirty.
func (p *Pool) AddSolvable(repoName string, sv types.Solvable) (id int, dedup bool, err error) {
	r, ok := p.repos[repoName]
	if !ok {
		return 0, false, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("unknown repo: " + repoName)
	}
	// The installed repo stays mutable even once internalized: Internalize
	// on it only marks the point after which the what-provides index must
	// be rebuilt on next query, not a frozen snapshot. A real install run
	// adds to it long after the status file load internalized it.
	if r.Frozen && repoName != p.installedRepo {
		return 0, false, errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg("repo is frozen: " + repoName)
	}
	if repoName == p.installedRepo {
		if existingID, found := p.findInstalled(sv.Name, sv.Arch); found {
			p.solvables[existingID] = sv
			p.solvables[existingID].ID = existingID
			p.solvables[existingID].RepoID = r.ID
			log.Debug().Str("name", sv.Name).Str("arch", sv.Arch).Msg("duplicate installed entry, keeping last")
			p.indexFresh = false
			return existingID, true, nil
		}
	}
	sv.RepoID = r.ID
	id = len(p.solvables)
	sv.ID = id
	p.solvables = append(p.solvables, sv)
	r.SolvableID = append(r.SolvableID, id)
	p.indexFresh = false
	return id, false, nil
}

func (p *Pool) findInstalled(name, arch string) (int, bool) {
	r, ok := p.repos[p.installedRepo]
	if !ok {
		return 0, false
	}
	for _, id := range r.SolvableID {
		sv := p.solvables[id]
		if sv.Name == name && sv.Arch == arch {
			return id, true
		}
	}
	return 0, false
}

// Internalize freezes a repo and invalidates the what-provides index so
// the next query rebuilds it. Queries against a non-internalized repo
// are disallowed by convention, not enforced here (mirrors the
// reference implementation, which treats this as a caller contract).
func (p *Pool) Internalize(repoName string) error {
	r, ok := p.repos[repoName]
	if !ok {
		return errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("unknown repo: " + repoName)
	}
	r.Frozen = true
	p.indexFresh = false
	return nil
}

// Solvable returns the solvable for id, or false if out of range.
func (p *Pool) Solvable(id int) (types.Solvable, bool) {
	if id <= 0 || id >= len(p.solvables) {
		return types.Solvable{}, false
	}
	return p.solvables[id], true
}

// AllIDs returns every solvable ID currently registered in the pool,
// including ones shadowed by Considered restrictions.
func (p *Pool) AllIDs() []int {
	ids := make([]int, 0, len(p.solvables)-1)
	for i := 1; i < len(p.solvables); i++ {
		ids = append(ids, i)
	}
	return ids
}

// RepoOf returns the repo a solvable belongs to.
func (p *Pool) RepoOf(sv types.Solvable) (*Repo, bool) {
	for _, name := range p.repoOrder {
		r := p.repos[name]
		if r.ID == sv.RepoID {
			return r, true
		}
	}
	return nil, false
}

func (p *Pool) isConsidered(id int) bool {
	if p.Considered == nil {
		return true
	}
	return p.Considered.Has(id)
}

// CreateWhatProvides (re)builds the global provides index: for every
// solvable, every name it provides (its own identity plus every
// Provides: atom) is indexed to that solvable's ID.
func (p *Pool) CreateWhatProvides() {
	idx := map[string][]int{}
	for i := 1; i < len(p.solvables); i++ {
		sv := p.solvables[i]
		idx[sv.Name] = append(idx[sv.Name], i)
		for _, provide := range sv.Provides {
			idx[provide.Name] = append(idx[provide.Name], i)
		}
	}
	p.provideIndex = idx
	p.indexFresh = true
}

// WhatProvides returns every solvable satisfying atom, ordered:
// installed first, then by repo priority (descending), then by
// architecture priority (highest first), then by version (highest
// first).
func (p *Pool) WhatProvides(atom types.Constraint) ([]int, error) {
	if !p.indexFresh {
		p.CreateWhatProvides()
	}
	candidateIDs := p.provideIndex[atom.Name]
	var matches []int
	cache := newVersionCache()
	for _, id := range candidateIDs {
		if !p.isConsidered(id) {
			continue
		}
		sv := p.solvables[id]
		ok, err := p.provideMatches(sv, atom, cache)
		if err != nil {
			return nil, err
		}
		if ok {
			matches = append(matches, id)
		}
	}
	p.orderMatches(matches)
	return matches, nil
}

// provideMatches reports whether one of sv's provides (including its
// own identity) satisfies atom.
func (p *Pool) provideMatches(sv types.Solvable, atom types.Constraint, cache *versionCache) (bool, error) {
	if sv.Name == atom.Name {
		ok, err := satisfiesOp(cache, sv.Version(), atom.Op, atom.Version)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	for _, provide := range sv.Provides {
		if provide.Name != atom.Name {
			continue
		}
		if provide.Op == types.ConstraintOpNone {
			// A bare provide matches only unversioned "=" atoms with no
			// requirement, i.e. a bare name reference.
			if atom.Op == types.ConstraintOpNone {
				return true, nil
			}
			continue
		}
		ok, err := satisfiesOp(cache, provide.Version, atom.Op, atom.Version)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (p *Pool) orderMatches(ids []int) {
	sort.SliceStable(ids, func(i, j int) bool {
		a, b := p.solvables[ids[i]], p.solvables[ids[j]]
		aInstalled := p.repoName(a.RepoID) == p.installedRepo
		bInstalled := p.repoName(b.RepoID) == p.installedRepo
		if aInstalled != bInstalled {
			return aInstalled
		}
		aPriority, bPriority := p.repoPriority(a.RepoID), p.repoPriority(b.RepoID)
		if aPriority != bPriority {
			return aPriority > bPriority
		}
		aArch, bArch := p.archs.PriorityOf(a.Arch), p.archs.PriorityOf(b.Arch)
		if aArch != bArch {
			return aArch > bArch
		}
		cmp, err := Compare(a.Version(), b.Version())
		if err != nil {
			return strings.Compare(a.Version(), b.Version()) > 0
		}
		return cmp > 0
	})
}

func (p *Pool) repoName(repoID int) string {
	for _, name := range p.repoOrder {
		if p.repos[name].ID == repoID {
			return name
		}
	}
	return ""
}

func (p *Pool) repoPriority(repoID int) int {
	for _, name := range p.repoOrder {
		if r := p.repos[name]; r.ID == repoID {
			return r.Priority
		}
	}
	return 0
}

// BestProvider applies the deterministic single-provider tie-break
// (installed > higher repo priority > higher arch priority > larger
// repo name lexicographically) to collapse WhatProvides' ordered list
// to the one canonical provider, used when exactly one winner is
// required (e.g. resolving a plain package-name job selector).
func (p *Pool) BestProvider(atom types.Constraint) (int, bool, error) {
	matches, err := p.WhatProvides(atom)
	if err != nil {
		return 0, false, err
	}
	if len(matches) == 0 {
		return 0, false, nil
	}
	// orderMatches already yields this candidate first; break any
	// remaining tie by repo name for full determinism.
	best := matches[0]
	for _, id := range matches[1:] {
		if p.sameRank(best, id) && p.repoName(p.solvables[id].RepoID) > p.repoName(p.solvables[best].RepoID) {
			best = id
		}
	}
	return best, true, nil
}

func (p *Pool) sameRank(a, b int) bool {
	sa, sb := p.solvables[a], p.solvables[b]
	if (p.repoName(sa.RepoID) == p.installedRepo) != (p.repoName(sb.RepoID) == p.installedRepo) {
		return false
	}
	if p.repoPriority(sa.RepoID) != p.repoPriority(sb.RepoID) {
		return false
	}
	if p.archs.PriorityOf(sa.Arch) != p.archs.PriorityOf(sb.Arch) {
		return false
	}
	cmp, err := Compare(sa.Version(), sb.Version())
	return err == nil && cmp == 0
}

// InstalledByName returns the installed solvable for name, regardless
// of architecture, for callers that address packages by name alone
// (job selectors, query commands).
func (p *Pool) InstalledByName(name string) (int, bool) {
	r, ok := p.repos[p.installedRepo]
	if !ok {
		return 0, false
	}
	for _, id := range r.SolvableID {
		if p.solvables[id].Name == name {
			return id, true
		}
	}
	return 0, false
}

// InstalledIDs returns the solvable IDs currently in the installed repo.
func (p *Pool) InstalledIDs() []int {
	r, ok := p.repos[p.installedRepo]
	if !ok {
		return nil
	}
	return append([]int(nil), r.SolvableID...)
}

// RemoveInstalled drops id from the installed repo (used by the
// executor's erase step).
func (p *Pool) RemoveInstalled(id int) {
	r, ok := p.repos[p.installedRepo]
	if !ok {
		return
	}
	for i, existing := range r.SolvableID {
		if existing == id {
			r.SolvableID = append(r.SolvableID[:i], r.SolvableID[i+1:]...)
			break
		}
	}
	p.indexFresh = false
}
