package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opkg/internal/types"
)

func TestResolveFreshInstallPullsTransitiveDependency(t *testing.T) {
	p := NewPool(archTable())
	p.EnsureRepo(InstalledRepoName, 0)
	p.EnsureRepo("main", 10)

	mustAdd(t, p, "main", types.Solvable{Name: "lib", Upstream: "1.0", Arch: "arm"})
	mustAdd(t, p, "main", types.Solvable{
		Name: "app", Upstream: "1.0", Arch: "arm",
		Depends: []types.Alternation{{Options: []types.Constraint{{Name: "lib"}}}},
	})

	job := types.Job{}
	job.Add(types.OpInstall, "app")

	tx, problems, err := Resolve(p, job, ResolverFlags{}, nil)
	require.NoError(t, err)
	require.Empty(t, problems)
	require.NotNil(t, tx)

	var names []string
	for _, step := range tx.Steps {
		sv, _ := p.Solvable(step.SolvableID)
		names = append(names, sv.Name)
		assert.Equal(t, types.StepInstall, step.Kind)
	}
	assert.ElementsMatch(t, []string{"app", "lib"}, names)
}

func TestResolveUnsatisfiableDependencyReturnsProblem(t *testing.T) {
	p := NewPool(archTable())
	p.EnsureRepo(InstalledRepoName, 0)
	p.EnsureRepo("main", 10)

	job := types.Job{}
	job.Add(types.OpInstall, "ghost")

	tx, problems, err := Resolve(p, job, ResolverFlags{}, nil)
	require.NoError(t, err)
	assert.Nil(t, tx)
	require.Len(t, problems, 1)
}

func TestResolveRemoveEssentialRequiresForce(t *testing.T) {
	p := NewPool(archTable())
	p.EnsureRepo(InstalledRepoName, 0)
	mustAdd(t, p, InstalledRepoName, types.Solvable{Name: "core", Upstream: "1.0", Arch: "arm", Essential: true})

	job := types.Job{}
	job.Add(types.OpRemove, "core")

	_, problems, err := Resolve(p, job, ResolverFlags{}, nil)
	require.NoError(t, err)
	require.Len(t, problems, 1)

	_, problems, err = Resolve(p, job, ResolverFlags{ForceRemovalOfEssential: true}, nil)
	require.NoError(t, err)
	assert.Empty(t, problems)
}

func TestResolveRemoveDropsInstalledPackage(t *testing.T) {
	p := NewPool(archTable())
	p.EnsureRepo(InstalledRepoName, 0)
	mustAdd(t, p, InstalledRepoName, types.Solvable{Name: "foo", Upstream: "1.0", Arch: "arm"})

	job := types.Job{}
	job.Add(types.OpRemove, "foo")

	tx, problems, err := Resolve(p, job, ResolverFlags{}, nil)
	require.NoError(t, err)
	require.Empty(t, problems)
	require.Len(t, tx.Steps, 1)
	assert.Equal(t, types.StepErase, tx.Steps[0].Kind)
}
