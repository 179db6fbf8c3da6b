package executor

import (
	"archive/tar"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opkg/internal/core"
	"opkg/internal/statusstore"
	"opkg/internal/types"
)

func archTable() types.ArchTable {
	return types.ArchTable{{Name: "all", Priority: 1}}
}

// fakeCache hands back a pre-built archive path for every fetch.
type fakeCache struct{ path string }

func (f fakeCache) Fetch(ctx context.Context, sv types.Solvable) (string, error) { return f.path, nil }
func (f fakeCache) Clean() error                                                 { return nil }

// fakeArchive pretends to unpack an "archive" that is really just the
// control files and a fixed set of data files passed in at construction.
type fakeArchive struct {
	control map[string]string
	data    map[string]string // path -> contents
}

func (f fakeArchive) ExtractControl(archivePath string) (map[string]string, error) {
	return f.control, nil
}

func (f fakeArchive) ExtractData(archivePath, destRoot string) ([]string, error) {
	var paths []string
	for p, contents := range f.data {
		paths = append(paths, p)
		if destRoot == "" {
			continue
		}
		full := filepath.Join(destRoot, p)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return nil, err
		}
		if err := os.WriteFile(full, []byte(contents), 0o644); err != nil {
			return nil, err
		}
	}
	return paths, nil
}

// fakeScripts records every invocation and always exits 0.
type fakeScripts struct {
	ran []string
}

func (f *fakeScripts) Run(ctx context.Context, scriptPath string, args []string, env []string) (int, error) {
	f.ran = append(f.ran, filepath.Base(scriptPath))
	return 0, nil
}

type fakeUI struct{}

func (fakeUI) Confirm(string, bool) (bool, error)                 { return true, nil }
func (fakeUI) ChooseSolution(types.Problem) (types.ProblemSolution, error) {
	return types.ProblemSolution{}, nil
}
func (fakeUI) Printf(string, ...any) {}
func (fakeUI) Warnf(string, ...any)  {}

func newTestExecutor(t *testing.T, archive fakeArchive, scripts *fakeScripts) (*Executor, *core.Pool, types.Dest) {
	t.Helper()
	root := t.TempDir()
	dest := types.Dest{
		Name:           "root",
		RootDir:        filepath.Join(root, "target"),
		InfoDir:        filepath.Join(root, "info"),
		StatusFileName: "status",
	}
	require.NoError(t, os.MkdirAll(dest.RootDir, 0o755))
	require.NoError(t, os.MkdirAll(dest.InfoDir, 0o755))

	pool := core.NewPool(archTable())
	pool.EnsureRepo(core.InstalledRepoName, 0)
	require.NoError(t, pool.Internalize(core.InstalledRepoName))

	e := &Executor{
		Pool:             pool,
		Dest:             dest,
		Cache:            fakeCache{path: "/dev/null"},
		Archive:          archive,
		Scripts:          scripts,
		Status:           statusstore.New(),
		UI:               fakeUI{},
		InterceptBaseDir: filepath.Join(root, "intercept"),
		MaxDownloads:     2,
	}
	return e, pool, dest
}

func TestApplyInstallWritesListAndControlAndMarksInstalled(t *testing.T) {
	archive := fakeArchive{
		control: map[string]string{"postinst": "#!/bin/sh\nexit 0\n"},
		data:    map[string]string{"/etc/demo.conf": "hello\n"},
	}
	scripts := &fakeScripts{}
	e, pool, dest := newTestExecutor(t, archive, scripts)

	sv := types.Solvable{Name: "demo", Upstream: "1.0", Arch: "all"}
	pool.EnsureRepo("candidates", 10)
	id, _, err := pool.AddSolvable("candidates", sv)
	require.NoError(t, err)
	require.NoError(t, pool.Internalize("candidates"))

	tx := &types.Transaction{Steps: []types.Step{{Kind: types.StepInstall, SolvableID: id}}}
	states := map[string]types.PackageState{}

	result, err := e.Apply(context.Background(), tx, states)
	require.NoError(t, err)
	assert.Contains(t, result.Configured, "demo")

	listContents, err := os.ReadFile(dest.ListPath("demo"))
	require.NoError(t, err)
	assert.Contains(t, string(listContents), "/etc/demo.conf")

	_, err = os.Stat(dest.ControlPath("demo"))
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dest.RootDir, "etc", "demo.conf"))
	require.NoError(t, err)

	assert.Equal(t, types.StatusInstalled, states["demo"].Status)
	assert.Contains(t, scripts.ran, "demo.postinst")

	_, installed := pool.InstalledByName("demo")
	assert.True(t, installed)
}

func TestApplyReplacePreservesLocallyModifiedConffile(t *testing.T) {
	archive := fakeArchive{
		control: map[string]string{},
		data:    map[string]string{"/etc/demo.conf": "pristine-new\n"},
	}
	scripts := &fakeScripts{}
	e, pool, dest := newTestExecutor(t, archive, scripts)

	oldSv := types.Solvable{
		Name: "demo", Upstream: "1.0", Arch: "all",
		Conffiles: []types.Conffile{{Path: "/etc/demo.conf", MD5: fileMD5([]byte("pristine-old\n"))}},
	}
	oldID, _, err := pool.AddSolvable(core.InstalledRepoName, oldSv)
	require.NoError(t, err)

	// Simulate local modification: on-disk content no longer matches the
	// declared pristine checksum.
	require.NoError(t, os.MkdirAll(filepath.Join(dest.RootDir, "etc"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dest.RootDir, "etc", "demo.conf"), []byte("user-edited\n"), 0o644))

	newSv := types.Solvable{Name: "demo", Upstream: "2.0", Arch: "all"}
	pool.EnsureRepo("candidates", 10)
	newID, _, err := pool.AddSolvable("candidates", newSv)
	require.NoError(t, err)
	require.NoError(t, pool.Internalize("candidates"))

	tx := &types.Transaction{Steps: []types.Step{{Kind: types.StepUpgraded, SolvableID: newID, ObsoletedID: oldID}}}
	states := map[string]types.PackageState{"demo": {Want: types.WantInstall, Flag: types.NewFlagSet(types.FlagOk), Status: types.StatusInstalled}}

	_, err = e.Apply(context.Background(), tx, states)
	require.NoError(t, err)

	contents, err := os.ReadFile(filepath.Join(dest.RootDir, "etc", "demo.conf"))
	require.NoError(t, err)
	assert.Equal(t, "user-edited\n", string(contents), "locally modified conffile must survive the upgrade")

	sibling, err := os.ReadFile(filepath.Join(dest.RootDir, "etc", "demo.conf-opkg"))
	require.NoError(t, err, "the new package's conffile must be preserved alongside the admin's copy")
	assert.Equal(t, "pristine-new\n", string(sibling))
}

func TestApplyEraseRemovesFilesAndKeepsConffilesByDefault(t *testing.T) {
	archive := fakeArchive{}
	scripts := &fakeScripts{}
	e, pool, dest := newTestExecutor(t, archive, scripts)

	sv := types.Solvable{
		Name: "demo", Upstream: "1.0", Arch: "all",
		Conffiles: []types.Conffile{{Path: "/etc/demo.conf", MD5: "x"}},
	}
	id, _, err := pool.AddSolvable(core.InstalledRepoName, sv)
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(filepath.Join(dest.RootDir, "etc"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dest.RootDir, "etc", "demo.conf"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dest.RootDir, "usr-bin-demo"), []byte("bin"), 0o644))
	require.NoError(t, os.WriteFile(dest.ListPath("demo"), []byte("/etc/demo.conf\n/usr-bin-demo\n"), 0o644))

	tx := &types.Transaction{Steps: []types.Step{{Kind: types.StepErase, SolvableID: id}}}
	states := map[string]types.PackageState{"demo": {Want: types.WantInstall, Flag: types.NewFlagSet(types.FlagOk), Status: types.StatusInstalled}}

	_, err = e.Apply(context.Background(), tx, states)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dest.RootDir, "usr-bin-demo"))
	assert.True(t, os.IsNotExist(err))

	_, err = os.Stat(filepath.Join(dest.RootDir, "etc", "demo.conf"))
	assert.NoError(t, err, "conffile must survive a non-purge erase")

	assert.Equal(t, types.StatusConfigFiles, states["demo"].Status)
	_, stillInstalled := pool.InstalledByName("demo")
	assert.False(t, stillInstalled)
}

func TestDownloadPhaseSkipsProvidedByHandSolvables(t *testing.T) {
	archive := fakeArchive{}
	scripts := &fakeScripts{}
	e, pool, _ := newTestExecutor(t, archive, scripts)

	sv := types.Solvable{Name: "local", Upstream: "1.0", Arch: "all", ProvidedByHand: true, LocalPath: "/tmp/local.ipk"}
	pool.EnsureRepo("candidates", 10)
	id, _, err := pool.AddSolvable("candidates", sv)
	require.NoError(t, err)

	tx := &types.Transaction{Steps: []types.Step{{Kind: types.StepInstall, SolvableID: id}}}
	paths, err := e.downloadPhase(context.Background(), tx)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/local.ipk", paths[id])
}

// buildFakeArTar is kept for documentation of the real archive's shape;
// not exercised directly since fakeArchive bypasses the on-disk format
// in these executor-level tests (the archive adapter has no tests of
// its own in this module).
func buildFakeArTar(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for name, contents := range files {
		hdr := &tar.Header{Name: name, Size: int64(len(contents)), Mode: 0o644}
		require.NoError(t, tw.WriteHeader(hdr))
		_, err := tw.Write([]byte(contents))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	return buf.Bytes()
}
