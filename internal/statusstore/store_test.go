package statusstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opkg/internal/core"
	"opkg/internal/types"
)

func testDest(t *testing.T) types.Dest {
	t.Helper()
	dir := t.TempDir()
	return types.Dest{
		Name:           "root",
		RootDir:        dir,
		InfoDir:        filepath.Join(dir, "info"),
		StatusFileName: "status",
	}
}

func TestLoadMissingStatusFileIsEmpty(t *testing.T) {
	dest := testDest(t)
	pool := core.NewPool(types.ArchTable{{Name: "arm", Priority: 1}})

	states, dirty, err := New().Load(dest, pool)
	require.NoError(t, err)
	assert.Empty(t, states)
	assert.False(t, dirty)
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	dest := testDest(t)
	pool := core.NewPool(types.ArchTable{{Name: "arm", Priority: 1}})
	pool.EnsureRepo(core.InstalledRepoName, 0)

	_, _, err := pool.AddSolvable(core.InstalledRepoName, types.Solvable{Name: "foo", Upstream: "1.0", Arch: "arm"})
	require.NoError(t, err)
	require.NoError(t, pool.Internalize(core.InstalledRepoName))

	states := map[string]types.PackageState{
		"foo": {Want: types.WantInstall, Flag: types.NewFlagSet(types.FlagOk), Status: types.StatusInstalled},
	}
	require.NoError(t, New().Save(dest, pool, states))

	pool2 := core.NewPool(types.ArchTable{{Name: "arm", Priority: 1}})
	loaded, dirty, err := New().Load(dest, pool2)
	require.NoError(t, err)
	assert.False(t, dirty)
	require.Contains(t, loaded, "foo")
	assert.Equal(t, types.WantInstall, loaded["foo"].Want)
	assert.Equal(t, types.StatusInstalled, loaded["foo"].Status)
}

func TestSaveOmitsWantUnknown(t *testing.T) {
	dest := testDest(t)
	pool := core.NewPool(types.ArchTable{{Name: "arm", Priority: 1}})
	pool.EnsureRepo(core.InstalledRepoName, 0)
	_, _, err := pool.AddSolvable(core.InstalledRepoName, types.Solvable{Name: "foo", Upstream: "1.0", Arch: "arm"})
	require.NoError(t, err)
	require.NoError(t, pool.Internalize(core.InstalledRepoName))

	require.NoError(t, New().Save(dest, pool, map[string]types.PackageState{}))

	pool2 := core.NewPool(types.ArchTable{{Name: "arm", Priority: 1}})
	loaded, _, err := New().Load(dest, pool2)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}
