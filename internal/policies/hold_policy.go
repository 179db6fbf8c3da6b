package policies

import "opkg/internal/types"

// HeldNames returns the installed package names carrying the Hold
// flag, used to convert implicit holds into explicit lock job items
// before the resolver runs so a dist-upgrade or autoremove never
// silently touches them.
func HeldNames(installed map[string]types.PackageState) []string {
	var held []string
	for name, state := range installed {
		if state.Flag.Has(types.FlagHold) {
			held = append(held, name)
		}
	}
	return held
}

// ApplyHolds appends a lock job item for every held package, including
// one the job already names, so the resolver pins it to its current
// installed state: an upgrade or dist-upgrade leaves it at its
// installed version, and a remove of it cannot be satisfied.
func ApplyHolds(job *types.Job, installed map[string]types.PackageState) {
	for _, name := range HeldNames(installed) {
		job.Add(types.OpLock, name)
	}
}
