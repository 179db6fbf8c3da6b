package repoload

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opkg/internal/core"
	"opkg/internal/types"
)

type noopDownloader struct{}

func (noopDownloader) Download(context.Context, string, string) (int64, error) { return 0, nil }

func TestLoadFlatSourceParsesPackages(t *testing.T) {
	dir := t.TempDir()
	content := "Package: foo\nVersion: 1.0-1\nArchitecture: arm\n\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main_Packages"), []byte(content), 0o644))

	loader := New(noopDownloader{}, dir, nil, 1)
	pool := core.NewPool(types.ArchTable{{Name: "arm", Priority: 1}})

	err := loader.Load(context.Background(), pool, []types.Src{{Name: "main", BaseURL: "https://example.invalid"}})
	require.NoError(t, err)

	matches, err := pool.WhatProvides(types.Constraint{Name: "foo"})
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestLoadMissingPackagesFileIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	loader := New(noopDownloader{}, dir, nil, 1)
	pool := core.NewPool(types.ArchTable{{Name: "arm", Priority: 1}})

	err := loader.Load(context.Background(), pool, []types.Src{{Name: "main", BaseURL: "https://example.invalid"}})
	require.NoError(t, err)
}
