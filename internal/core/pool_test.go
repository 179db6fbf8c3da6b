package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opkg/internal/types"
)

func archTable() types.ArchTable {
	return types.ArchTable{
		{Name: "all", Priority: 1},
		{Name: "arm", Priority: 5},
	}
}

func TestPoolAddSolvableDedupInstalled(t *testing.T) {
	p := NewPool(archTable())
	p.EnsureRepo(InstalledRepoName, 0)

	id1, dedup1, err := p.AddSolvable(InstalledRepoName, types.Solvable{Name: "foo", Upstream: "1.0", Arch: "arm"})
	require.NoError(t, err)
	assert.False(t, dedup1)

	id2, dedup2, err := p.AddSolvable(InstalledRepoName, types.Solvable{Name: "foo", Upstream: "2.0", Arch: "arm"})
	require.NoError(t, err)
	assert.True(t, dedup2)
	assert.Equal(t, id1, id2)

	sv, ok := p.Solvable(id1)
	require.True(t, ok)
	assert.Equal(t, "2.0", sv.Upstream)
}

func TestPoolAddSolvableFrozenRepoRejected(t *testing.T) {
	p := NewPool(archTable())
	p.EnsureRepo("main", 10)
	require.NoError(t, p.Internalize("main"))

	_, _, err := p.AddSolvable("main", types.Solvable{Name: "foo", Upstream: "1.0", Arch: "arm"})
	assert.Error(t, err)
}

func TestWhatProvidesOrdersInstalledFirst(t *testing.T) {
	p := NewPool(archTable())
	p.EnsureRepo(InstalledRepoName, 0)
	p.EnsureRepo("main", 10)

	_, _, err := p.AddSolvable(InstalledRepoName, types.Solvable{Name: "foo", Upstream: "1.0", Arch: "arm"})
	require.NoError(t, err)
	_, _, err = p.AddSolvable("main", types.Solvable{Name: "foo", Upstream: "2.0", Arch: "arm"})
	require.NoError(t, err)

	matches, err := p.WhatProvides(types.Constraint{Name: "foo"})
	require.NoError(t, err)
	require.Len(t, matches, 2)

	first, _ := p.Solvable(matches[0])
	assert.Equal(t, "1.0", first.Upstream, "installed candidate must sort first regardless of version")
}

func TestWhatProvidesMatchesVirtualProvides(t *testing.T) {
	p := NewPool(archTable())
	p.EnsureRepo("main", 10)
	_, _, err := p.AddSolvable("main", types.Solvable{
		Name: "foo", Upstream: "1.0", Arch: "arm",
		Provides: []types.Constraint{{Name: "virtual-foo"}},
	})
	require.NoError(t, err)

	matches, err := p.WhatProvides(types.Constraint{Name: "virtual-foo"})
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestConsideredRestrictsWhatProvides(t *testing.T) {
	p := NewPool(archTable())
	p.EnsureRepo("main", 10)
	id, _, err := p.AddSolvable("main", types.Solvable{Name: "foo", Upstream: "1.0", Arch: "arm"})
	require.NoError(t, err)

	p.Considered = BitSet{}
	matches, err := p.WhatProvides(types.Constraint{Name: "foo"})
	require.NoError(t, err)
	assert.Empty(t, matches)

	p.Considered.Add(id)
	matches, err = p.WhatProvides(types.Constraint{Name: "foo"})
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}
