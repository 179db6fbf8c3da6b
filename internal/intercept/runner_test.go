package intercept

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingScripts struct {
	ran []string
	failName string
}

func (r *recordingScripts) Run(_ context.Context, scriptPath string, _ []string, _ []string) (int, error) {
	name := filepath.Base(scriptPath)
	r.ran = append(r.ran, name)
	if name == r.failName {
		return 1, assert.AnError
	}
	return 0, nil
}

func TestRunnerEnvExportsInterceptDir(t *testing.T) {
	scripts := &recordingScripts{}
	r, err := New(t.TempDir(), scripts)
	require.NoError(t, err)

	env := r.Env([]string{"PATH=/usr/bin"})
	assert.Contains(t, env, EnvKey+"="+r.stateDir)
	found := false
	for _, kv := range env {
		if kv == "PATH="+r.stateDir+":/usr/bin" {
			found = true
		}
	}
	assert.True(t, found, "PATH should be prefixed with the intercept dir: %v", env)
}

func TestFinalizeRunsEntriesInOrderSkippingDotfiles(t *testing.T) {
	scripts := &recordingScripts{}
	r, err := New(t.TempDir(), scripts)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(r.stateDir, "b-trigger"), nil, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(r.stateDir, "a-trigger"), nil, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(r.stateDir, ".hidden"), nil, 0o755))

	require.NoError(t, r.Finalize(context.Background()))
	assert.Equal(t, []string{"a-trigger", "b-trigger"}, scripts.ran)

	_, err = os.Stat(r.stateDir)
	assert.True(t, os.IsNotExist(err), "state directory should be removed after Finalize")
}

func TestFinalizeContinuesAfterEntryFailure(t *testing.T) {
	scripts := &recordingScripts{failName: "a-trigger"}
	r, err := New(t.TempDir(), scripts)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(r.stateDir, "a-trigger"), nil, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(r.stateDir, "b-trigger"), nil, 0o755))

	require.NoError(t, r.Finalize(context.Background()))
	assert.Equal(t, []string{"a-trigger", "b-trigger"}, scripts.ran)
}
