// Package executor implements the transaction executor (spec §4.7):
// download, confirm, apply, configure and persist a Transaction the
// resolver produced, against a Pool and a single Dest.
package executor

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"

	"opkg/internal/core"
	"opkg/internal/intercept"
	"opkg/internal/ports"
	"opkg/internal/types"
)

// Executor owns everything needed to carry a Transaction from
// resolved plan to committed on-disk state.
type Executor struct {
	Pool    *core.Pool
	Dest    types.Dest
	Cache   ports.DownloadCachePort
	Archive ports.ArchiveReader
	Scripts ports.ScriptRunner
	Status  ports.StatusStorePort
	UI      ports.UI

	InterceptBaseDir string
	MaxDownloads     int
	DownloadOnly     bool
	Interactive      bool
	Offline          bool // offline_root set: skip fsync-equivalent sync step
}

// StepFailure records one apply-phase step that failed without
// aborting its siblings.
type StepFailure struct {
	Step types.Step
	Err  error
}

// Result summarizes one Apply call.
type Result struct {
	Configured []string // package names whose postinst configure ran successfully
	Failures   []StepFailure
}

// Apply downloads, confirms, applies, configures and persists tx.
// states is the installed destination's want/flag/status map; Apply
// mutates it in place and always attempts to persist it on the way
// out, even when an apply-phase step failed or ctx was cancelled
// mid-transaction (spec §7: "status file writes are always attempted
// on exit, including on interrupt").
func (e *Executor) Apply(ctx context.Context, tx *types.Transaction, states map[string]types.PackageState) (Result, error) {
	if tx == nil || len(tx.Steps) == 0 {
		return Result{}, nil
	}

	paths, err := e.downloadPhase(ctx, tx)
	if err != nil {
		return Result{}, err
	}
	if e.DownloadOnly {
		return Result{}, nil
	}

	if e.Interactive {
		e.printSummary(tx)
		ok, err := e.UI.Confirm("proceed with the above transaction?", true)
		if err != nil {
			return Result{}, err
		}
		if !ok {
			return Result{}, nil
		}
	}

	result := Result{}
	var unpacked []int // solvable IDs that need a configure pass

	runner, err := intercept.New(e.InterceptBaseDir, e.Scripts)
	if err != nil {
		return result, err
	}

	for _, step := range tx.Steps {
		if ctx.Err() != nil {
			log.Warn().Msg("transaction interrupted between steps, stopping before next step")
			break
		}
		switch step.Kind {
		case types.StepInstall, types.StepMultiInstall:
			if err := e.install(step, paths[step.SolvableID], states, runner); err != nil {
				result.Failures = append(result.Failures, StepFailure{Step: step, Err: err})
				continue
			}
			unpacked = append(unpacked, step.SolvableID)
		case types.StepUpgraded, types.StepDowngraded, types.StepReinstalled, types.StepChanged:
			if err := e.replace(step, paths[step.SolvableID], states, runner); err != nil {
				result.Failures = append(result.Failures, StepFailure{Step: step, Err: err})
				continue
			}
			unpacked = append(unpacked, step.SolvableID)
		case types.StepErase:
			if err := e.erase(step, states, runner); err != nil {
				result.Failures = append(result.Failures, StepFailure{Step: step, Err: err})
				continue
			}
		}
	}

	for _, id := range unpacked {
		sv, ok := e.Pool.Solvable(id)
		if !ok {
			continue
		}
		if err := e.configure(ctx, sv, states, runner); err != nil {
			result.Failures = append(result.Failures, StepFailure{
				Step: types.Step{Kind: types.StepInstall, SolvableID: id},
				Err:  err,
			})
			continue
		}
		result.Configured = append(result.Configured, sv.Name)
	}

	finalizeErr := runner.Finalize(ctx)
	if finalizeErr != nil {
		log.Warn().Err(finalizeErr).Msg("intercept finalize reported a failure")
	}

	persistErr := e.Status.Save(e.Dest, e.Pool, states)

	if persistErr != nil {
		return result, persistErr
	}
	if len(result.Failures) > 0 {
		return result, fmt.Errorf("transaction completed with %d failed step(s)", len(result.Failures))
	}
	return result, nil
}

func (e *Executor) printSummary(tx *types.Transaction) {
	e.UI.Printf("Transaction summary:\n")
	for _, step := range tx.Steps {
		sv, _ := e.Pool.Solvable(step.SolvableID)
		e.UI.Printf("  %s\n", colorizeStep(step.Kind, sv.Name, sv.Version()))
	}
}

func colorizeStep(kind types.StepKind, name, version string) string {
	line := fmt.Sprintf("%-12s %s (%s)", kind, name, version)
	switch kind {
	case types.StepInstall, types.StepMultiInstall:
		return color.GreenString(line)
	case types.StepUpgraded:
		return color.CyanString(line)
	case types.StepDowngraded:
		return color.YellowString(line)
	case types.StepErase:
		return color.RedString(line)
	default:
		return line
	}
}
