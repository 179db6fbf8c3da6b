// Package intercept implements the maintainer-script sandbox: a
// per-transaction scratch directory that scripts can drop trigger
// files into (instead of acting immediately), which is then drained
// once after every package in the transaction has run its scripts.
package intercept

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"opkg/internal/ports"
)

// EnvKey is the environment variable maintainer scripts read to find
// the intercept directory for the current transaction.
const EnvKey = "OPKG_INTERCEPT_DIR"

// Runner owns one transaction's intercept scratch directory.
type Runner struct {
	baseDir string
	stateDir string
	scripts ports.ScriptRunner
}

// New creates a fresh, uniquely-named intercept directory under
// baseDir for one transaction.
func New(baseDir string, scripts ports.ScriptRunner) (*Runner, error) {
	stateDir := filepath.Join(baseDir, uuid.NewString())
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create intercept state directory").
			WithCause(err)
	}
	return &Runner{baseDir: baseDir, stateDir: stateDir, scripts: scripts}, nil
}

// Env returns the environment additions a maintainer script should run
// with: the intercept state directory is prepended to PATH (or becomes
// PATH when baseEnv has none), and
// OPKG_INTERCEPT_DIR points scripts at the scratch directory so they
// can queue a trigger instead of running immediately.
func (r *Runner) Env(baseEnv []string) []string {
	env := append([]string(nil), baseEnv...)
	env = append(env, EnvKey+"="+r.stateDir)
	for i, kv := range env {
		if strings.HasPrefix(kv, "PATH=") {
			env[i] = "PATH=" + r.stateDir + ":" + strings.TrimPrefix(kv, "PATH=")
			return env
		}
	}
	env = append(env, "PATH="+r.stateDir)
	return env
}

// Finalize drains every queued intercept entry in directory order,
// running each through the script runner. Dotfiles are skipped. A
// single entry's failure is logged and does not stop the remaining
// entries from running. The state directory is removed once draining
// completes, regardless of whether any entry failed.
func (r *Runner) Finalize(ctx context.Context) error {
	defer os.RemoveAll(r.stateDir)

	entries, err := os.ReadDir(r.stateDir)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to list intercept state directory").
			WithCause(err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		path := filepath.Join(r.stateDir, name)
		if _, err := r.scripts.Run(ctx, path, nil, nil); err != nil {
			log.Warn().Err(err).Str("intercept", name).Msg("intercept entry failed, continuing with remaining entries")
		}
	}
	return nil
}
