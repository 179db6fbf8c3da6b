package app

import (
	"context"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"opkg/internal/core"
	"opkg/internal/executor"
	"opkg/internal/policies"
	"opkg/internal/types"
)

// TransactionOptions carries the CLI-level knobs that shape job
// rewriting, resolver aggressiveness and the executor's run mode.
type TransactionOptions struct {
	policies.CLIFlags
	DownloadOnly bool
	Interactive  bool
	Offline      bool
}

// Plan resolves job into a Transaction, running the interactive
// problem-solution loop (spec §4.6) when ctx.UI supports it and opts
// is interactive; in batch mode a non-empty problem list is reported
// as a DependencyError without mutating job further.
func (c *Context) Plan(job types.Job, opts TransactionOptions) (*types.Transaction, error) {
	policies.RewriteJob(&job, opts.CLIFlags)
	if err := policies.RewriteUpdates(&job, c.Pool); err != nil {
		return nil, err
	}
	policies.ApplyAutoremove(&job, c.Pool, c.States)
	policies.PinInstalled(&job, c.InstalledNames())
	if !opts.IgnoreHold {
		policies.ApplyHolds(&job, c.States)
	}

	flags := opts.CLIFlags.ToResolverFlags()
	tracer := core.NewTracer()

	for {
		tx, problems, err := core.Resolve(c.Pool, job, flags, tracer)
		if err != nil {
			return nil, err
		}
		if len(problems) == 0 {
			return tx, nil
		}
		if !opts.Interactive {
			return nil, dependencyError(problems)
		}
		resolved, err := c.resolveInteractively(&job, problems)
		if err != nil {
			return nil, err
		}
		if !resolved {
			return nil, dependencyError(problems)
		}
	}
}

// resolveInteractively walks every unresolved problem through the UI,
// applying the chosen solution to job in place. It returns false if
// the user skipped every problem (the caller should report failure
// rather than loop forever).
func (c *Context) resolveInteractively(job *types.Job, problems []types.Problem) (bool, error) {
	appliedAny := false
	for _, problem := range problems {
		solution, err := c.UI.ChooseSolution(problem)
		if err != nil {
			return false, err
		}
		if solution.Description == "skipped" {
			continue
		}
		solution.Apply(job)
		appliedAny = true
	}
	return appliedAny, nil
}

func dependencyError(problems []types.Problem) error {
	msg := "the requested changes could not be satisfied"
	if len(problems) > 0 {
		msg = problems[0].Description
	}
	return errbuilder.New().
		WithCode(errbuilder.CodeFailedPrecondition).
		WithMsg(msg)
}

// Execute plans job and, unless it resolves to an empty transaction,
// carries it through the executor's download/confirm/apply/configure/
// persist phases (spec §4.7).
func (c *Context) Execute(ctx context.Context, job types.Job, opts TransactionOptions) (executor.Result, error) {
	tx, err := c.Plan(job, opts)
	if err != nil {
		return executor.Result{}, err
	}
	if tx == nil || len(tx.Steps) == 0 {
		log.Info().Msg("nothing to do")
		return executor.Result{}, nil
	}

	exec := &executor.Executor{
		Pool:             c.Pool,
		Dest:             c.Dest,
		Cache:            c.Cache,
		Archive:          c.Archive,
		Scripts:          c.Scripts,
		Status:           c.Status,
		UI:               c.UI,
		InterceptBaseDir: c.Config.TmpDir,
		MaxDownloads:     c.Config.MaxDownloads,
		DownloadOnly:     opts.DownloadOnly,
		Interactive:      opts.Interactive,
		Offline:          opts.Offline,
	}
	return exec.Apply(ctx, tx, c.States)
}
