package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/viper"

	"opkg/internal/app"
	"opkg/internal/executor"
)

// interactive reports whether the run should prompt a human for
// confirmations and problem resolution rather than always taking the
// batch default (spec §4.6/§4.7).
func interactive() bool {
	return viper.GetBool("interactive")
}

// withMutatingContext acquires the destination's advisory lock (spec
// §5: a second instance must not proceed), loads the pool, runs fn,
// and always releases the lock afterward, whether fn succeeded or not.
func withMutatingContext(ctx context.Context, fn func(*app.Context) error) error {
	c, err := newContext(interactive())
	if err != nil {
		return err
	}
	lock, err := c.AcquireLock()
	if err != nil {
		return err
	}
	defer lock.Release()

	if err := c.LoadPool(ctx); err != nil {
		return err
	}
	return fn(c)
}

// withQueryContext loads the pool without taking the lock (spec §7
// "query commands propagate immediately"). The query itself does not
// change installed state; LoadPool still rewrites the status file when
// it found duplicate entries.
func withQueryContext(ctx context.Context, fn func(*app.Context) error) error {
	c, err := newContext(false)
	if err != nil {
		return err
	}
	if err := c.LoadPool(ctx); err != nil {
		return err
	}
	return fn(c)
}

// printResult reports an executor.Result's configured packages and
// any per-step failures, matching the teacher's colorized summary
// style (internal/executor's own colorizeStep).
func printResult(result executor.Result) {
	for _, name := range result.Configured {
		fmt.Println(color.GreenString("Configured %s", name))
	}
	for _, failure := range result.Failures {
		fmt.Println(color.RedString("Failed: %s (%v)", failure.Step.Kind, failure.Err))
	}
}
