package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromRawRequiresArchitectures(t *testing.T) {
	_, err := FromRaw(Raw{})
	require.Error(t, err)
}

func TestFromRawRejectsVolatileCacheWithSignatureCheck(t *testing.T) {
	_, err := FromRaw(Raw{
		Architectures: []RawArch{{Name: "arm", Priority: 10}},
		VolatileCache: true,
		SignatureCheck: "gpg",
	})
	require.Error(t, err)
}

func TestFromRawAppliesDefaultsAndOverrides(t *testing.T) {
	cfg, err := FromRaw(Raw{
		OfflineRoot:   "/srv/device",
		Architectures: []RawArch{{Name: "arm", Priority: 10}, {Name: "all", Priority: 1}},
		Sources: []RawSource{
			{Name: "main", BaseURL: "http://example.test/repo", Distribution: "stable", Components: []string{"main"}},
		},
		MaxDownloads: 4,
	})
	require.NoError(t, err)
	assert.Equal(t, "/srv/device", cfg.OfflineRoot)
	assert.Equal(t, 4, cfg.MaxDownloads)
	require.Len(t, cfg.Dests, 1)
	assert.Equal(t, "/srv/device/usr/lib/opkg/status", cfg.Dests[0].StatusPath())
	require.Len(t, cfg.Sources, 1)
	assert.True(t, cfg.Sources[0].IsDistribution())
}
