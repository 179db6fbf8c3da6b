package adapters

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"opkg/internal/ports"
	"opkg/internal/shared"
)

// ExecScriptRunner runs a maintainer script as a child process,
// capturing combined output for diagnostics on failure.
type ExecScriptRunner struct{}

// NewExecScriptRunner returns a ScriptRunner that shells out to the
// local filesystem, the only sensible implementation on a real
// device: maintainer scripts are untrusted-but-necessary executables
// shipped inside the package.
func NewExecScriptRunner() ExecScriptRunner { return ExecScriptRunner{} }

// Run executes scriptPath with args under env, returning its exit
// code. A non-zero exit is not itself a Go error; callers decide how
// to react to the exit code (spec §4.7/§7 ScriptError handling).
func (ExecScriptRunner) Run(ctx context.Context, scriptPath string, args []string, env []string) (int, error) {
	cmd := exec.CommandContext(ctx, scriptPath, args...)
	cmd.Env = env
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		log.Warn().Str("script", scriptPath).Str("output", out.String()).Int("exit", exitErr.ExitCode()).Msg("maintainer script exited non-zero")
		return exitErr.ExitCode(), nil
	}
	return -1, errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg("failed to execute maintainer script: " + scriptPath).
		WithCause(shared.CommandError(out.Bytes(), err))
}

// BaseEnv returns the minimal environment every maintainer script
// runs under: PATH preserved from the parent process, plus PKG_ROOT
// pointing at the destination root (spec §6's produced-env list).
func BaseEnv(pkgRoot string) []string {
	env := []string{"PKG_ROOT=" + pkgRoot}
	if path := os.Getenv("PATH"); path != "" {
		env = append(env, "PATH="+path)
	}
	if tmp := os.Getenv("TMPDIR"); tmp != "" {
		env = append(env, "TMPDIR="+tmp)
	}
	return env
}

var _ ports.ScriptRunner = ExecScriptRunner{}
