package core

import (
	"fmt"
	"sort"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/crillab/gophersat/solver"
	"github.com/rs/zerolog/log"

	"opkg/internal/types"
)

// ResolverFlags mirrors the command-line knobs that change how
// aggressively the resolver is willing to act: forcing past
// dependency checks, ignoring recommends, forcing reinstall/downgrade,
// and overriding hold/essential protections. Autoremove is handled
// upstream of the resolver entirely, by expanding orphaned packages
// into explicit remove items (policies.ApplyAutoremove) before a job
// ever reaches Resolve.
type ResolverFlags struct {
	IgnoreRecommended       bool
	ForceDepends            bool
	ForceReinstall          bool
	ForceBest               bool
	ForceRemovalOfEssential bool
	IgnoreHold              bool
}

// solverVar is one SAT variable: a candidate (package name, solvable
// ID) pair competing with every other version of the same name.
type solverVar struct {
	id   int // gophersat literal ID, 1-based
	name string
	sv   types.Solvable
}

// Resolve turns job against the pool's universe into an ordered
// Transaction, or a list of Problems the caller (or an interactive UI)
// must resolve before retrying. flags tune how strict the search is.
func Resolve(p *Pool, job types.Job, flags ResolverFlags, tracer *Tracer) (*types.Transaction, []types.Problem, error) {
	resolved, problems, err := resolveSelectors(p, job, flags)
	if err != nil {
		return nil, nil, err
	}
	if len(problems) > 0 {
		return nil, problems, nil
	}

	vars, nameVars := buildCandidateVars(p)
	if len(vars) == 0 {
		return &types.Transaction{}, nil, nil
	}

	builder := &clauseBuilder{pool: p, vars: vars, nameVars: nameVars, byID: map[int]*solverVar{}}
	for _, v := range vars {
		builder.byID[v.id] = v
	}

	clauses, err := builder.build(resolved, flags)
	if err != nil {
		return nil, nil, err
	}

	lits, weights := builder.costFunction(resolved)

	problem := solver.ParseSliceNb(clauses, len(vars))
	problem.SetCostFunc(lits, weights)
	sat := solver.New(problem)
	if cost := sat.Minimize(); cost < 0 {
		tracer.Fail("no satisfying assignment found for job")
		return nil, []types.Problem{{
			Description: "the requested changes could not be satisfied",
			Solutions: []types.ProblemSolution{{
				Description: "retry with fewer simultaneous requests",
				Apply:       func(*types.Job) {},
			}},
		}}, nil
	}
	model := sat.Model()

	selected := map[string]int{} // name -> chosen solvable ID
	for _, v := range vars {
		if v.id-1 < 0 || v.id-1 >= len(model) {
			continue
		}
		if model[v.id-1] {
			selected[v.name] = v.sv.ID
		}
	}

	steps, err := buildSteps(p, selected)
	if err != nil {
		return nil, nil, err
	}
	tracer.Ok("resolved %d steps", len(steps.Steps))
	return steps, nil, nil
}

// resolveSelectors expands each job item's selector against the pool,
// producing a per-name desired-operation map, or Problems when a
// selector cannot be satisfied, targets a held package, or targets an
// essential package for removal.
func resolveSelectors(p *Pool, job types.Job, flags ResolverFlags) (map[string][]types.Operation, []types.Problem, error) {
	desired := map[string][]types.Operation{}
	var problems []types.Problem

	for _, item := range job.Items {
		name := item.Selector.Raw
		installedID, isInstalled := p.InstalledByName(name)
		var installedSv types.Solvable
		if isInstalled {
			installedSv, _ = p.Solvable(installedID)
		}
		for _, op := range item.Ops {
			switch op {
			case types.OpInstall, types.OpForcebest, types.OpUpdate, types.OpDistUpgrade:
				matches, err := p.WhatProvides(types.Constraint{Name: name})
				if err != nil {
					return nil, nil, err
				}
				if len(matches) == 0 {
					problems = append(problems, ProblemUnsatisfiable(name, types.Constraint{Name: name}))
					continue
				}
			case types.OpRemove, types.OpEraseSpecific:
				if isInstalled && installedSv.Essential && !flags.ForceRemovalOfEssential {
					problems = append(problems, ProblemEssentialRemoval(installedSv))
					continue
				}
			case types.OpLock:
				// handled purely via cost-function pinning below.
			}
			if isInstalled && !flags.IgnoreHold && hasHold(p, installedID) && (op == types.OpRemove || op == types.OpDistUpgrade) {
				problems = append(problems, ProblemHeld(installedSv))
				continue
			}
			desired[name] = append(desired[name], op)
		}
	}
	return desired, problems, nil
}

func hasHold(p *Pool, id int) bool {
	// Hold state is tracked by the status store, not the pool; the
	// installed solvable's Essential/ProvidedByHand fields never encode
	// it, so this always reports false. Holds reach the resolver as
	// lock job items added by policies.ApplyHolds before Resolve is
	// invoked; a held package named with a remove/dist-upgrade op is
	// therefore pinned by its lock rather than reported here.
	_ = p
	_ = id
	return false
}

func buildCandidateVars(p *Pool) ([]*solverVar, map[string][]*solverVar) {
	var vars []*solverVar
	byName := map[string][]*solverVar{}
	id := 0
	for _, solvableID := range p.AllIDs() {
		if !p.isConsidered(solvableID) {
			continue
		}
		sv, ok := p.Solvable(solvableID)
		if !ok {
			continue
		}
		id++
		v := &solverVar{id: id, name: sv.Name, sv: sv}
		vars = append(vars, v)
		byName[sv.Name] = append(byName[sv.Name], v)
	}
	return vars, byName
}

type clauseBuilder struct {
	pool     *Pool
	vars     []*solverVar
	nameVars map[string][]*solverVar
	byID     map[int]*solverVar
}

func (b *clauseBuilder) build(desired map[string][]types.Operation, flags ResolverFlags) ([][]int, error) {
	var clauses [][]int

	// At most one version of each package name may be selected.
	for _, group := range b.nameVars {
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				clauses = append(clauses, []int{-group[i].id, -group[j].id})
			}
		}
	}

	for name, ops := range desired {
		for _, op := range ops {
			switch op {
			case types.OpInstall, types.OpForcebest, types.OpUpdate, types.OpDistUpgrade:
				ids := b.candidateIDs(types.Constraint{Name: name})
				if len(ids) == 0 {
					return nil, errbuilder.New().
						WithCode(errbuilder.CodeFailedPrecondition).
						WithMsg(fmt.Sprintf("no candidates for %s", name))
				}
				clauses = append(clauses, ids)
			case types.OpRemove, types.OpEraseSpecific:
				for _, v := range b.nameVars[name] {
					clauses = append(clauses, []int{-v.id})
				}
			case types.OpLock:
				for _, v := range b.nameVars[name] {
					if b.isInstalled(v) {
						clauses = append(clauses, []int{v.id})
					} else {
						clauses = append(clauses, []int{-v.id})
					}
				}
			}
		}
	}

	// Transitive Depends/Pre-Depends clauses for every candidate.
	for _, v := range b.vars {
		for _, alt := range append(append([]types.Alternation{}, v.sv.PreDepends...), v.sv.Depends...) {
			var candidates []int
			for _, opt := range alt.Options {
				candidates = append(candidates, b.candidateIDs(opt)...)
			}
			candidates = dedupInts(candidates)
			if len(candidates) == 0 {
				clauses = append(clauses, []int{-v.id})
				continue
			}
			clause := append([]int{-v.id}, candidates...)
			clauses = append(clauses, clause)
		}
		if !flags.IgnoreRecommended {
			for _, alt := range v.sv.Recommends {
				var candidates []int
				for _, opt := range alt.Options {
					candidates = append(candidates, b.candidateIDs(opt)...)
				}
				candidates = dedupInts(candidates)
				if len(candidates) == 0 {
					continue // unmet recommends is a soft warning, not a hard clause
				}
				clause := append([]int{-v.id}, candidates...)
				clauses = append(clauses, clause)
			}
		}
		if !flags.ForceDepends {
			for _, c := range v.sv.Conflicts {
				for _, other := range b.candidateIDs(c) {
					if other == v.id {
						continue
					}
					clauses = append(clauses, []int{-v.id, -other})
				}
			}
		}
	}

	return clauses, nil
}

func (b *clauseBuilder) candidateIDs(atom types.Constraint) []int {
	matches, err := b.pool.WhatProvides(atom)
	if err != nil {
		log.Debug().Err(err).Str("name", atom.Name).Msg("whatprovides lookup failed during clause build")
		return nil
	}
	var ids []int
	for _, solvableID := range matches {
		if v, ok := b.varForSolvable(solvableID); ok {
			ids = append(ids, v.id)
		}
	}
	return ids
}

func (b *clauseBuilder) varForSolvable(solvableID int) (*solverVar, bool) {
	for _, v := range b.vars {
		if v.sv.ID == solvableID {
			return v, true
		}
	}
	return nil, false
}

func (b *clauseBuilder) isInstalled(v *solverVar) bool {
	r, ok := b.pool.RepoOf(v.sv)
	return ok && r.Name == InstalledRepoName
}

// costFunction weights every candidate so the solver prefers keeping
// a package at its installed version unless an upgrade/dist-upgrade
// operation was requested for it, in which case the newest version in
// ranked order is cheapest.
func (b *clauseBuilder) costFunction(desired map[string][]types.Operation) ([]solver.Lit, []int) {
	var lits []solver.Lit
	var weights []int
	for name, group := range b.nameVars {
		wantsBest := false
		for _, op := range desired[name] {
			if op == types.OpDistUpgrade || op == types.OpForcebest || op == types.OpUpdate {
				wantsBest = true
			}
		}
		ranked := append([]*solverVar(nil), group...)
		sort.SliceStable(ranked, func(i, j int) bool {
			cmp, err := Compare(ranked[i].sv.Version(), ranked[j].sv.Version())
			if err != nil {
				return ranked[i].sv.Version() > ranked[j].sv.Version()
			}
			if cmp == 0 {
				return ranked[i].sv.ProvidedByHand && !ranked[j].sv.ProvidedByHand
			}
			return cmp > 0
		})
		for rank, v := range ranked {
			weight := rank + 1
			if !wantsBest && b.isInstalled(v) {
				weight = 0
			}
			lits = append(lits, solver.IntToLit(int32(v.id))) //nolint:gosec // bounded by candidate count
			weights = append(weights, weight)
		}
	}
	return lits, weights
}

func dedupInts(values []int) []int {
	seen := map[int]struct{}{}
	out := make([]int, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// buildSteps diffs the solver's selection against the installed repo
// to produce install/erase/upgraded/downgraded/reinstalled steps, then
// orders installs via OrderInstalls.
func buildSteps(p *Pool, selected map[string]int) (*types.Transaction, error) {
	installedByName := map[string]int{}
	for _, id := range p.InstalledIDs() {
		sv, _ := p.Solvable(id)
		installedByName[sv.Name] = id
	}

	var installIDs []int
	stepKind := map[int]types.Step{}

	for name, newID := range selected {
		oldID, wasInstalled := installedByName[name]
		if !wasInstalled {
			installIDs = append(installIDs, newID)
			stepKind[newID] = types.Step{Kind: types.StepInstall, SolvableID: newID}
			continue
		}
		if oldID == newID {
			continue // unchanged
		}
		oldSv, _ := p.Solvable(oldID)
		newSv, _ := p.Solvable(newID)
		cmp, err := Compare(newSv.Version(), oldSv.Version())
		if err != nil {
			return nil, err
		}
		kind := types.StepChanged
		switch {
		case cmp > 0:
			kind = types.StepUpgraded
		case cmp < 0:
			kind = types.StepDowngraded
		case cmp == 0:
			kind = types.StepReinstalled
		}
		installIDs = append(installIDs, newID)
		stepKind[newID] = types.Step{Kind: kind, SolvableID: newID, ObsoletedID: oldID}
	}

	ordered, err := OrderInstalls(p, installIDs)
	if err != nil {
		return nil, err
	}

	tx := &types.Transaction{}
	for _, id := range ordered {
		tx.Steps = append(tx.Steps, stepKind[id])
	}

	for name, oldID := range installedByName {
		if _, stillSelected := selected[name]; !stillSelected {
			tx.Steps = append(tx.Steps, types.Step{Kind: types.StepErase, SolvableID: oldID})
		}
	}
	return tx, nil
}
