package app

import (
	"context"

	"opkg/internal/executor"
	"opkg/internal/types"
)

// Install resolves and applies an install job for the given package
// names, globs, local file paths or remote URLs (spec §6 "install").
func (c *Context) Install(ctx context.Context, names []string, opts TransactionOptions) (executor.Result, error) {
	expanded, err := c.ExpandSelectors(ctx, names)
	if err != nil {
		return executor.Result{}, err
	}
	var job types.Job
	for _, name := range expanded {
		job.Add(types.OpInstall, name)
	}
	result, err := c.Execute(ctx, job, opts)
	if err != nil || opts.DownloadOnly {
		return result, err
	}
	for _, name := range expanded {
		if state, ok := c.States[name]; ok {
			state.Flag = state.Flag.With(types.FlagUser)
			c.States[name] = state
		}
	}
	return result, c.Status.Save(c.Dest, c.Pool, c.States)
}

// Remove resolves and applies a remove job for the given package
// names (spec §6 "remove").
func (c *Context) Remove(ctx context.Context, names []string, opts TransactionOptions) (executor.Result, error) {
	var job types.Job
	for _, name := range names {
		job.Add(types.OpRemove, name)
	}
	return c.Execute(ctx, job, opts)
}

// Upgrade resolves and applies an update job, either for the named
// packages or (when names is empty) for every installed package with
// a newer candidate (spec §6 "upgrade").
func (c *Context) Upgrade(ctx context.Context, names []string, opts TransactionOptions) (executor.Result, error) {
	var job types.Job
	if len(names) == 0 {
		for _, name := range c.InstalledNames() {
			job.Add(types.OpUpdate, name)
		}
	} else {
		for _, name := range names {
			job.Add(types.OpUpdate, name)
		}
	}
	return c.Execute(ctx, job, opts)
}

// DistUpgrade resolves and applies a dist-upgrade job over every
// installed package, letting the resolver drop or replace packages
// whose dependencies changed shape across the upgrade, not just bump
// versions in place (spec §6 "dist-upgrade").
func (c *Context) DistUpgrade(ctx context.Context, opts TransactionOptions) (executor.Result, error) {
	var job types.Job
	for _, name := range c.InstalledNames() {
		job.Add(types.OpDistUpgrade, name)
	}
	return c.Execute(ctx, job, opts)
}

// Download resolves an install job for names but stops after the
// download phase, leaving installed state untouched (spec §6
// "download").
func (c *Context) Download(ctx context.Context, names []string, opts TransactionOptions) (executor.Result, error) {
	opts.DownloadOnly = true
	return c.Install(ctx, names, opts)
}
