package control

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opkg/internal/types"
)

func TestParseSolvable(t *testing.T) {
	s := NewStanza()
	s.Set("Package", "foo")
	s.Set("Version", "1:2.0-3")
	s.Set("Architecture", "arm")
	s.Set("Depends", "libbar (>= 1.0), libbaz")
	s.Set("Essential", "yes")
	s.Set("Installed-Size", "10")

	sv, err := ParseSolvable(s, "all")
	require.NoError(t, err)
	assert.Equal(t, "foo", sv.Name)
	assert.Equal(t, 1, sv.Epoch)
	assert.Equal(t, "2.0", sv.Upstream)
	assert.Equal(t, "3", sv.Revision)
	assert.Equal(t, "arm", sv.Arch)
	assert.True(t, sv.Essential)
	assert.Equal(t, int64(10*1024), sv.InstallSize)
	require.Len(t, sv.Depends, 2)
}

func TestParseSolvableMissingPackageFails(t *testing.T) {
	_, err := ParseSolvable(NewStanza(), "all")
	assert.Error(t, err)
}

func TestRenderSolvableStatusField(t *testing.T) {
	sv := types.Solvable{Name: "foo", Upstream: "1.0"}
	state := types.PackageState{
		Want:   types.WantInstall,
		Flag:   types.NewFlagSet(types.FlagOk),
		Status: types.StatusInstalled,
	}
	stanza := RenderSolvable(sv, state)
	assert.Equal(t, "install ok installed", stanza.Get("Status"))
}
