package ports

import "context"

// ScriptRunner executes a single maintainer script (preinst, postinst,
// prerm, postrm) with a sandboxed PATH and the intercept directory
// exported, returning its exit code.
type ScriptRunner interface {
	Run(ctx context.Context, scriptPath string, args []string, env []string) (exitCode int, err error)
}
