package policies

import (
	"opkg/internal/core"
	"opkg/internal/types"
)

// CLIFlags is the raw set of command-line switches that influence job
// rewriting and the resolver's aggressiveness, bound directly from
// cobra flags by the CLI layer.
type CLIFlags struct {
	NoDepends        bool // force_depends
	Autoremove       bool
	ForceReinstall   bool
	ForceDowngrade   bool
	ForceBest        bool // forcebest: ignore pinned "best" candidate caching
	ForceRemoveEssential bool
	IgnoreHold       bool
	NoRecommends     bool
}

// ToResolverFlags maps the CLI's raw switches onto the solver-facing
// ResolverFlags, so the CLI layer never has to import core's internal
// naming directly.
func (f CLIFlags) ToResolverFlags() core.ResolverFlags {
	return core.ResolverFlags{
		IgnoreRecommended:       f.NoRecommends,
		ForceDepends:            f.NoDepends,
		ForceReinstall:          f.ForceReinstall || f.ForceDowngrade,
		ForceBest:               f.ForceBest,
		ForceRemovalOfEssential: f.ForceRemoveEssential,
		IgnoreHold:              f.IgnoreHold,
	}
}

// PinInstalled appends an implicit lock job item for every name in
// installedNames not already referenced elsewhere in job. Without
// this, the resolver has no reason to keep an installed package
// selected once the job's own items and their transitive dependencies
// are satisfied (spec §4.6: an install/remove job only ever changes
// the packages it names and their dependency closure).
func PinInstalled(job *types.Job, installedNames []string) {
	referenced := map[string]bool{}
	for _, item := range job.Items {
		referenced[item.Selector.Raw] = true
	}
	for _, name := range installedNames {
		if referenced[name] {
			continue
		}
		job.Add(types.OpLock, name)
	}
}

// RewriteJob applies the mechanical job transformations the reference
// implementation performs before handing a job to the resolver:
// autoremove implies cleandeps on every remove item, and a forcebest
// flag upgrades every plain install item to the forcebest operation so
// the cost function always prefers the newest candidate.
func RewriteJob(job *types.Job, flags CLIFlags) {
	for i, item := range job.Items {
		var ops []types.Operation
		for _, op := range item.Ops {
			switch {
			case op == types.OpRemove && flags.Autoremove:
				ops = append(ops, types.OpRemove, types.OpCleandeps)
			case op == types.OpInstall && flags.ForceBest:
				ops = append(ops, types.OpForcebest)
			default:
				ops = append(ops, op)
			}
		}
		job.Items[i].Ops = ops
	}
}

// RewriteUpdates applies spec §4.6's update-with-no-newer-candidate
// rule: an update item whose best available candidate is not strictly
// newer than the installed version (or that names a package nothing is
// installed for) is rewritten to a plain install, so it resolves to
// "keep what's there" instead of leaving the resolver to chase an
// upgrade that doesn't exist.
func RewriteUpdates(job *types.Job, pool *core.Pool) error {
	for i, item := range job.Items {
		var ops []types.Operation
		for _, op := range item.Ops {
			if op != types.OpUpdate {
				ops = append(ops, op)
				continue
			}
			newer, err := hasNewerCandidate(pool, item.Selector.Raw)
			if err != nil {
				return err
			}
			if newer {
				ops = append(ops, types.OpUpdate)
			} else {
				ops = append(ops, types.OpInstall)
			}
		}
		job.Items[i].Ops = ops
	}
	return nil
}

// ApplyAutoremove expands every OpCleandeps-tagged remove item (added
// by RewriteJob when --autoremove is set) into the full orphan
// closure: any installed, non-user, non-held package left with no
// remaining dependent once the named removals take effect is itself
// added to job as a remove, and so on until no further orphan is
// found. Without this, OpCleandeps reaches the resolver as a no-op —
// the resolver has no notion of "installed only as a dependency".
func ApplyAutoremove(job *types.Job, pool *core.Pool, states map[string]types.PackageState) {
	removing := map[string]bool{}
	cleandeps := false
	for _, item := range job.Items {
		for _, op := range item.Ops {
			switch op {
			case types.OpRemove, types.OpEraseSpecific:
				removing[item.Selector.Raw] = true
			case types.OpCleandeps:
				cleandeps = true
			}
		}
	}
	if !cleandeps {
		return
	}

	dependsOn := map[string]map[string]bool{}
	for _, id := range pool.InstalledIDs() {
		sv, ok := pool.Solvable(id)
		if !ok {
			continue
		}
		deps := map[string]bool{}
		for _, alt := range append(append([]types.Alternation{}, sv.PreDepends...), sv.Depends...) {
			for _, opt := range alt.Options {
				deps[opt.Name] = true
			}
		}
		dependsOn[sv.Name] = deps
	}

	remaining := map[string]bool{}
	for name := range dependsOn {
		if !removing[name] {
			remaining[name] = true
		}
	}

	for {
		depended := map[string]bool{}
		for name := range remaining {
			for dep := range dependsOn[name] {
				depended[dep] = true
			}
		}
		progressed := false
		for name := range remaining {
			if depended[name] {
				continue
			}
			state := states[name]
			if state.Flag.Has(types.FlagUser) || state.Flag.Has(types.FlagHold) {
				continue
			}
			removing[name] = true
			delete(remaining, name)
			job.Add(types.OpRemove, name)
			progressed = true
		}
		if !progressed {
			break
		}
	}
}

func hasNewerCandidate(pool *core.Pool, name string) (bool, error) {
	installedID, isInstalled := pool.InstalledByName(name)
	if !isInstalled {
		return false, nil
	}
	installedSv, _ := pool.Solvable(installedID)
	matches, err := pool.WhatProvides(types.Constraint{Name: name})
	if err != nil {
		return false, err
	}
	for _, id := range matches {
		sv, ok := pool.Solvable(id)
		if !ok || id == installedID || sv.Name != name {
			continue
		}
		cmp, err := core.Compare(sv.Version(), installedSv.Version())
		if err != nil {
			return false, err
		}
		if cmp > 0 {
			return true, nil
		}
	}
	return false, nil
}
