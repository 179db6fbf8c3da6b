package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opkg/internal/types"
)

func mustAdd(t *testing.T, p *Pool, repo string, sv types.Solvable) int {
	t.Helper()
	id, _, err := p.AddSolvable(repo, sv)
	require.NoError(t, err)
	return id
}

func TestOrderInstallsRespectsDepends(t *testing.T) {
	p := NewPool(archTable())
	p.EnsureRepo("main", 10)

	libID := mustAdd(t, p, "main", types.Solvable{Name: "lib", Upstream: "1.0", Arch: "arm"})
	appID := mustAdd(t, p, "main", types.Solvable{
		Name: "app", Upstream: "1.0", Arch: "arm",
		Depends: []types.Alternation{{Options: []types.Constraint{{Name: "lib"}}}},
	})

	ordered, err := OrderInstalls(p, []int{appID, libID})
	require.NoError(t, err)
	require.Len(t, ordered, 2)
	assert.Equal(t, libID, ordered[0], "dependency must be ordered before dependent")
	assert.Equal(t, appID, ordered[1])
}

func TestOrderInstallsBreaksCycleOnDependsNotPreDepends(t *testing.T) {
	p := NewPool(archTable())
	p.EnsureRepo("main", 10)

	aID := mustAdd(t, p, "main", types.Solvable{Name: "a", Upstream: "1.0", Arch: "arm"})
	bID := mustAdd(t, p, "main", types.Solvable{Name: "b", Upstream: "1.0", Arch: "arm"})

	sa, _ := p.Solvable(aID)
	sa.PreDepends = []types.Alternation{{Options: []types.Constraint{{Name: "b"}}}}
	p.solvables[aID] = sa

	sb, _ := p.Solvable(bID)
	sb.Depends = []types.Alternation{{Options: []types.Constraint{{Name: "a"}}}}
	p.solvables[bID] = sb

	ordered, err := OrderInstalls(p, []int{aID, bID})
	require.NoError(t, err)
	assert.Len(t, ordered, 2)
	// The b->a Depends edge is the one broken, so a's Pre-Depends on b
	// still puts b first.
	assert.Equal(t, []int{bID, aID}, ordered)
}

func TestOrderInstallsTieBreaksByName(t *testing.T) {
	p := NewPool(archTable())
	p.EnsureRepo("main", 10)
	bID := mustAdd(t, p, "main", types.Solvable{Name: "bbb", Upstream: "1.0", Arch: "arm"})
	aID := mustAdd(t, p, "main", types.Solvable{Name: "aaa", Upstream: "1.0", Arch: "arm"})

	ordered, err := OrderInstalls(p, []int{bID, aID})
	require.NoError(t, err)
	assert.Equal(t, []int{aID, bID}, ordered)
}
