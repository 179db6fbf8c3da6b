package app

import (
	"opkg/internal/core"
	"opkg/internal/policies"
)

// applyExcludePolicy builds the pool's Considered bitset from the
// configured exclude patterns (spec §4.6 preprocessing step 4):
// every solvable whose name is excluded is left out, restricting the
// universe the resolver and whatprovides index operate over.
func applyExcludePolicy(pool *core.Pool, patterns []string) {
	policy := policies.NewExcludePolicy(patterns)
	if len(patterns) == 0 {
		pool.Considered = nil
		return
	}
	considered := core.BitSet{}
	for _, id := range pool.AllIDs() {
		sv, ok := pool.Solvable(id)
		if !ok {
			continue
		}
		if policy.Excluded(sv.Name) {
			continue
		}
		considered.Add(id)
	}
	pool.Considered = considered
}
