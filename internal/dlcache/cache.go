// Package dlcache implements the content-addressed download cache:
// every fetched package archive lands on disk keyed by its source URL,
// verified by checksum before the executor is allowed to unpack it.
// When a keyring is configured and a "<file>.sig" detached signature
// already sits beside the file, that signature is checked too; the
// cache never downloads a signature itself, and a file with no .sig
// beside it passes on its checksum alone.
package dlcache

import (
	"context"
	"crypto/md5"  //nolint:gosec // package checksums are MD5/SHA256 per the upstream archive format, not a security boundary
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"opkg/internal/control"
	"opkg/internal/ports"
	"opkg/internal/types"
)

// Cache resolves a Solvable to a verified local file, downloading on a
// miss and reusing the cached copy otherwise.
type Cache struct {
	Dir        string
	Downloader ports.Downloader
	Keyring    openpgp.EntityList // nil disables per-package signature checks
	Volatile   bool               // true: never trust a cache hit, always refetch
}

// New returns a Cache rooted at dir.
func New(dir string, downloader ports.Downloader, keyring openpgp.EntityList, volatile bool) *Cache {
	return &Cache{Dir: dir, Downloader: downloader, Keyring: keyring, Volatile: volatile}
}

// Fetch returns a verified local path for sv, downloading it first if
// necessary. Solvables loaded directly from a local file or URL
// (ProvidedByHand) are hard-linked (falling back to a copy across
// filesystems) into the cache rather than re-downloaded.
func (c *Cache) Fetch(ctx context.Context, sv types.Solvable) (string, error) {
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create download cache directory").
			WithCause(err)
	}

	if sv.ProvidedByHand {
		return c.cacheLocalFile(sv)
	}

	cachePath := c.pathFor(sv.URL)
	if !c.Volatile {
		if ok, _ := c.verify(cachePath, sv); ok {
			return cachePath, nil
		}
	}

	tmp := cachePath + ".part"
	if _, err := c.Downloader.Download(ctx, sv.URL, tmp); err != nil {
		return "", err
	}
	ok, err := c.verify(tmp, sv)
	if err != nil {
		os.Remove(tmp)
		return "", err
	}
	if !ok {
		os.Remove(tmp)
		return "", errbuilder.New().
			WithCode(errbuilder.CodeUnavailable).
			WithMsg("downloaded package failed checksum verification: " + sv.Name)
	}
	if err := os.Rename(tmp, cachePath); err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to move downloaded package into cache").
			WithCause(err)
	}
	return cachePath, nil
}

// Clean removes every cached file. Packages referenced by the
// installed repo are the executor's problem to re-fetch on demand;
// the cache itself carries no retention policy.
func (c *Cache) Clean() error {
	entries, err := os.ReadDir(c.Dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to list download cache directory").
			WithCause(err)
	}
	for _, entry := range entries {
		if err := os.Remove(filepath.Join(c.Dir, entry.Name())); err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to remove cached file: " + entry.Name()).
				WithCause(err)
		}
	}
	return nil
}

// pathFor derives the cache-local filename for a URL: every "/" is
// replaced with "_" so the whole URL collapses into one flat,
// collision-resistant filename inside the cache directory.
func (c *Cache) pathFor(url string) string {
	return filepath.Join(c.Dir, strings.ReplaceAll(url, "/", "_"))
}

func (c *Cache) cacheLocalFile(sv types.Solvable) (string, error) {
	dest := c.pathFor("local_" + filepath.Base(sv.LocalPath))
	if _, err := os.Stat(dest); err == nil {
		return dest, nil
	}
	if err := os.Link(sv.LocalPath, dest); err == nil {
		return dest, nil
	}
	// Cross-device link or unsupported filesystem: fall back to a copy.
	if err := copyFile(sv.LocalPath, dest); err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to stage local package into cache: " + sv.LocalPath).
			WithCause(err)
	}
	return dest, nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, in)
	return err
}

// verify reports whether path exists and matches sv's declared
// checksum, and, when a keyring is configured and path+".sig" exists,
// that detached signature. A missing .sig is skipped, not a failure.
func (c *Cache) verify(path string, sv types.Solvable) (bool, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to open cached file for verification").
			WithCause(err)
	}
	defer f.Close()

	ok, err := checksumMatches(f, sv)
	if err != nil || !ok {
		return false, err
	}

	if c.Keyring != nil && sv.URL != "" {
		sigPath := path + ".sig"
		sig, err := os.ReadFile(sigPath)
		if os.IsNotExist(err) {
			log.Debug().Str("package", sv.Name).Msg("no detached signature available, skipping signature check")
			return true, nil
		}
		if err != nil {
			return false, err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return false, err
		}
		if _, err := control.VerifyDetached(data, sig, c.Keyring); err != nil {
			return false, err
		}
	}
	return true, nil
}

func checksumMatches(f *os.File, sv types.Solvable) (bool, error) {
	switch {
	case sv.SHA256 != "":
		h := sha256.New()
		if _, err := io.Copy(h, f); err != nil {
			return false, err
		}
		return hex.EncodeToString(h.Sum(nil)) == sv.SHA256, nil
	case sv.MD5 != "":
		h := md5.New() //nolint:gosec // see import comment
		if _, err := io.Copy(h, f); err != nil {
			return false, err
		}
		return hex.EncodeToString(h.Sum(nil)) == sv.MD5, nil
	default:
		// No checksum declared for this solvable; presence is enough.
		return true, nil
	}
}

var _ ports.DownloadCachePort = (*Cache)(nil)
