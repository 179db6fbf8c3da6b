package query

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opkg/internal/core"
	"opkg/internal/types"
)

func testPool(t *testing.T) *core.Pool {
	t.Helper()
	p := core.NewPool(types.ArchTable{{Name: "arm", Priority: 10}})
	p.EnsureRepo(core.InstalledRepoName, 0)
	p.EnsureRepo("main", 10)
	_, _, err := p.AddSolvable(core.InstalledRepoName, types.Solvable{Name: "alpha", Upstream: "1.0", Arch: "arm"})
	require.NoError(t, err)
	_, _, err = p.AddSolvable("main", types.Solvable{Name: "alpha", Upstream: "2.0", Arch: "arm"})
	require.NoError(t, err)
	_, _, err = p.AddSolvable("main", types.Solvable{
		Name: "beta", Upstream: "1.0", Arch: "arm",
		Depends: []types.Alternation{{Options: []types.Constraint{{Name: "alpha"}}}},
	})
	require.NoError(t, err)
	require.NoError(t, p.Internalize(core.InstalledRepoName))
	require.NoError(t, p.Internalize("main"))
	return p
}

func TestListUpgradableReportsNewerCandidate(t *testing.T) {
	p := testPool(t)
	f := New(p, types.Dest{})
	ups, err := f.ListUpgradable()
	require.NoError(t, err)
	require.Len(t, ups, 1)
	assert.Equal(t, "alpha", ups[0].Name)
	assert.Equal(t, "1.0", ups[0].Installed)
	assert.Equal(t, "2.0", ups[0].Candidate)
}

func TestWhatDependsFindsReverseDependency(t *testing.T) {
	p := testPool(t)
	f := New(p, types.Dest{})
	out := f.WhatDepends("alpha", false)
	require.Len(t, out, 1)
	assert.Equal(t, "beta", out[0].Name)
}

func TestSearchMatchesInstalledFileList(t *testing.T) {
	dir := t.TempDir()
	infoDir := filepath.Join(dir, "info")
	require.NoError(t, os.MkdirAll(infoDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(infoDir, "alpha.list"), []byte("/usr/bin/alpha\n/etc/alpha.conf\n"), 0o644))

	p := core.NewPool(types.ArchTable{{Name: "arm", Priority: 10}})
	p.EnsureRepo(core.InstalledRepoName, 0)
	_, _, err := p.AddSolvable(core.InstalledRepoName, types.Solvable{Name: "alpha", Upstream: "1.0", Arch: "arm"})
	require.NoError(t, err)
	require.NoError(t, p.Internalize(core.InstalledRepoName))

	f := New(p, types.Dest{InfoDir: infoDir})
	matches, err := f.Search("etc/*.conf")
	require.NoError(t, err)
	assert.Equal(t, []string{"/etc/alpha.conf"}, matches["alpha"])
}

func TestListFiltersByGlob(t *testing.T) {
	p := testPool(t)
	f := New(p, types.Dest{})
	out, err := f.List("be*")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "beta", out[0].Name)
}
