package policies

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opkg/internal/core"
	"opkg/internal/types"
)

func archTable() types.ArchTable {
	return types.ArchTable{{Name: "all", Priority: 1}, {Name: "arm", Priority: 5}}
}

func mustAdd(t *testing.T, p *core.Pool, repo string, sv types.Solvable) int {
	t.Helper()
	id, _, err := p.AddSolvable(repo, sv)
	require.NoError(t, err)
	return id
}

func TestRewriteUpdatesKeepsUpdateWhenNewerCandidateExists(t *testing.T) {
	p := core.NewPool(archTable())
	p.EnsureRepo(core.InstalledRepoName, 0)
	p.EnsureRepo("main", 10)
	mustAdd(t, p, core.InstalledRepoName, types.Solvable{Name: "foo", Upstream: "1.0", Arch: "arm"})
	mustAdd(t, p, "main", types.Solvable{Name: "foo", Upstream: "2.0", Arch: "arm"})
	require.NoError(t, p.Internalize(core.InstalledRepoName))
	require.NoError(t, p.Internalize("main"))
	p.CreateWhatProvides()

	job := types.Job{}
	job.Add(types.OpUpdate, "foo")

	require.NoError(t, RewriteUpdates(&job, p))
	assert.Equal(t, []types.Operation{types.OpUpdate}, job.Items[0].Ops)
}

func TestRewriteUpdatesFallsBackToInstallWhenNoNewerCandidate(t *testing.T) {
	p := core.NewPool(archTable())
	p.EnsureRepo(core.InstalledRepoName, 0)
	p.EnsureRepo("main", 10)
	mustAdd(t, p, core.InstalledRepoName, types.Solvable{Name: "foo", Upstream: "1.0", Arch: "arm"})
	mustAdd(t, p, "main", types.Solvable{Name: "foo", Upstream: "1.0", Arch: "arm"})
	require.NoError(t, p.Internalize(core.InstalledRepoName))
	require.NoError(t, p.Internalize("main"))
	p.CreateWhatProvides()

	job := types.Job{}
	job.Add(types.OpUpdate, "foo")

	require.NoError(t, RewriteUpdates(&job, p))
	assert.Equal(t, []types.Operation{types.OpInstall}, job.Items[0].Ops)
}

func TestApplyAutoremoveDropsOrphanedDependencyButKeepsUserInstalled(t *testing.T) {
	p := core.NewPool(archTable())
	p.EnsureRepo(core.InstalledRepoName, 0)
	mustAdd(t, p, core.InstalledRepoName, types.Solvable{Name: "app", Upstream: "1.0", Arch: "arm",
		Depends: []types.Alternation{{Options: []types.Constraint{{Name: "libapp"}}}},
	})
	mustAdd(t, p, core.InstalledRepoName, types.Solvable{Name: "libapp", Upstream: "1.0", Arch: "arm"})
	mustAdd(t, p, core.InstalledRepoName, types.Solvable{Name: "keepme", Upstream: "1.0", Arch: "arm"})
	require.NoError(t, p.Internalize(core.InstalledRepoName))

	states := map[string]types.PackageState{
		"app":     {Flag: types.NewFlagSet(types.FlagUser, types.FlagOk)},
		"libapp":  {Flag: types.NewFlagSet(types.FlagOk)},
		"keepme":  {Flag: types.NewFlagSet(types.FlagUser, types.FlagOk)},
	}

	job := types.Job{}
	job.Add(types.OpRemove, "app")
	job.Add(types.OpCleandeps, "app")

	ApplyAutoremove(&job, p, states)

	removed := map[string]bool{}
	for _, item := range job.Items {
		for _, op := range item.Ops {
			if op == types.OpRemove {
				removed[item.Selector.Raw] = true
			}
		}
	}
	assert.True(t, removed["app"])
	assert.True(t, removed["libapp"], "orphaned non-user dependency must be swept up by autoremove")
	assert.False(t, removed["keepme"], "user-installed package must never be autoremoved")
}

func TestApplyAutoremoveKeepsHeldOrphan(t *testing.T) {
	p := core.NewPool(archTable())
	p.EnsureRepo(core.InstalledRepoName, 0)
	mustAdd(t, p, core.InstalledRepoName, types.Solvable{Name: "app", Upstream: "1.0", Arch: "arm",
		Depends: []types.Alternation{{Options: []types.Constraint{{Name: "libapp"}}}},
	})
	mustAdd(t, p, core.InstalledRepoName, types.Solvable{Name: "libapp", Upstream: "1.0", Arch: "arm"})
	require.NoError(t, p.Internalize(core.InstalledRepoName))

	states := map[string]types.PackageState{
		"app":    {Flag: types.NewFlagSet(types.FlagUser)},
		"libapp": {Flag: types.NewFlagSet(types.FlagHold)},
	}

	job := types.Job{}
	job.Add(types.OpRemove, "app")
	job.Add(types.OpCleandeps, "app")

	ApplyAutoremove(&job, p, states)

	for _, item := range job.Items {
		for _, op := range item.Ops {
			if op == types.OpRemove {
				assert.NotEqual(t, "libapp", item.Selector.Raw, "held orphan must not be autoremoved")
			}
		}
	}
}
