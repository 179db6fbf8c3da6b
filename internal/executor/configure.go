package executor

import (
	"context"

	"opkg/internal/intercept"
	"opkg/internal/types"
)

// configure runs postinst configure for a freshly-unpacked package and
// advances its state from unpacked to installed on success. A
// non-zero exit leaves the package half-configured and Status
// accordingly (spec §7: a failed postinst is reported, not retried
// automatically).
func (e *Executor) configure(ctx context.Context, sv types.Solvable, states map[string]types.PackageState, runner *intercept.Runner) error {
	state := states[sv.Name]
	if state.Status != types.StatusUnpacked {
		return nil
	}

	scriptPaths := e.installedScriptPaths(sv.Name)
	err := e.runMaintainerScript(scriptPaths, "postinst", []string{"configure"}, runner)
	if err != nil {
		state.Status = types.StatusHalfConfigured
		state.Flag = state.Flag.With(types.FlagReinstreq)
		states[sv.Name] = state
		return err
	}

	state.Status = types.StatusInstalled
	states[sv.Name] = state
	return nil
}
