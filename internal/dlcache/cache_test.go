package dlcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opkg/internal/types"
)

type fakeDownloader struct {
	content []byte
}

func (f fakeDownloader) Download(_ context.Context, _ string, destPath string) (int64, error) {
	if err := os.WriteFile(destPath, f.content, 0o644); err != nil {
		return 0, err
	}
	return int64(len(f.content)), nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func TestFetchDownloadsAndVerifiesChecksum(t *testing.T) {
	dir := t.TempDir()
	content := []byte("package contents")
	cache := New(dir, fakeDownloader{content: content}, nil, false)

	sv := types.Solvable{Name: "foo", URL: "https://example.invalid/foo.ipk", SHA256: sha256Hex(content)}
	path, err := cache.Fetch(context.Background(), sv)
	require.NoError(t, err)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestFetchRejectsChecksumMismatch(t *testing.T) {
	dir := t.TempDir()
	cache := New(dir, fakeDownloader{content: []byte("tampered")}, nil, false)

	sv := types.Solvable{Name: "foo", URL: "https://example.invalid/foo.ipk", SHA256: sha256Hex([]byte("original"))}
	_, err := cache.Fetch(context.Background(), sv)
	assert.Error(t, err)
}

func TestFetchReusesCacheHitWithoutRedownloading(t *testing.T) {
	dir := t.TempDir()
	content := []byte("stable contents")
	calls := 0
	downloader := countingDownloader{content: content, calls: &calls}
	cache := New(dir, downloader, nil, false)

	sv := types.Solvable{Name: "foo", URL: "https://example.invalid/foo.ipk", SHA256: sha256Hex(content)}
	_, err := cache.Fetch(context.Background(), sv)
	require.NoError(t, err)
	_, err = cache.Fetch(context.Background(), sv)
	require.NoError(t, err)

	assert.Equal(t, 1, calls, "second fetch should be served from cache")
}

type countingDownloader struct {
	content []byte
	calls   *int
}

func (d countingDownloader) Download(_ context.Context, _ string, destPath string) (int64, error) {
	*d.calls++
	return int64(len(d.content)), os.WriteFile(destPath, d.content, 0o644)
}

func TestCacheLocalFileHardlinksProvidedByHand(t *testing.T) {
	dir := t.TempDir()
	srcDir := t.TempDir()
	localPath := filepath.Join(srcDir, "local.ipk")
	require.NoError(t, os.WriteFile(localPath, []byte("local bits"), 0o644))

	cache := New(dir, fakeDownloader{}, nil, false)
	sv := types.Solvable{Name: "foo", ProvidedByHand: true, LocalPath: localPath}
	path, err := cache.Fetch(context.Background(), sv)
	require.NoError(t, err)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "local bits", string(got))
}

func TestCleanRemovesCachedFiles(t *testing.T) {
	dir := t.TempDir()
	content := []byte("x")
	cache := New(dir, fakeDownloader{content: content}, nil, false)
	sv := types.Solvable{Name: "foo", URL: "https://example.invalid/foo.ipk", SHA256: sha256Hex(content)}
	_, err := cache.Fetch(context.Background(), sv)
	require.NoError(t, err)

	require.NoError(t, cache.Clean())
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
