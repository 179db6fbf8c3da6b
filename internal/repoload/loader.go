// Package repoload fetches repository metadata (flat Packages feeds
// or distribution Release+Packages trees) and loads it into a pool
// repo, verifying signatures along the way.
package repoload

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"opkg/internal/control"
	"opkg/internal/core"
	"opkg/internal/ports"
	"opkg/internal/types"
)

// Loader implements ports.RepoLoaderPort: it downloads each
// configured source's metadata into listsDir and loads the parsed
// solvables into the pool.
type Loader struct {
	Downloader ports.Downloader
	ListsDir   string
	Keyring    openpgp.EntityList // nil disables signature checking
	MaxWorkers int
}

// New returns a Loader. maxWorkers bounds the concurrent metadata
// fetches during Update; 0 means sequential.
func New(downloader ports.Downloader, listsDir string, keyring openpgp.EntityList, maxWorkers int) *Loader {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	return &Loader{Downloader: downloader, ListsDir: listsDir, Keyring: keyring, MaxWorkers: maxWorkers}
}

// Update fetches fresh metadata for every source into the lists
// directory, verifying signatures when a keyring is configured.
// Distribution sources expand into one Packages fetch per
// (component, architecture) pair listed in their Release manifest.
func (l *Loader) Update(ctx context.Context, sources []types.Src) error {
	flats, err := l.expand(ctx, sources)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.MaxWorkers)
	for _, flat := range flats {
		flat := flat
		g.Go(func() error {
			return l.fetchPackages(gctx, flat)
		})
	}
	return g.Wait()
}

// Load parses every previously-fetched Packages file into the pool,
// dropping entries whose architecture is not in the pool's arch table.
func (l *Loader) Load(ctx context.Context, pool *core.Pool, sources []types.Src) error {
	flats, err := l.expand(ctx, sources)
	if err != nil {
		return err
	}
	for _, flat := range flats {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		repo := pool.EnsureRepo(flat.Name, 500)
		if err := l.loadPackagesFile(pool, repo.Name, flat); err != nil {
			return err
		}
		if err := pool.Internalize(repo.Name); err != nil {
			return err
		}
	}
	return nil
}

// expand resolves each configured Src into its concrete flat fetch
// targets: a flat source is already concrete; a distribution source
// requires downloading and parsing its Release manifest first to
// learn its component/architecture matrix.
func (l *Loader) expand(ctx context.Context, sources []types.Src) ([]types.FlatSource, error) {
	var out []types.FlatSource
	for _, src := range sources {
		if !src.IsDistribution() {
			out = append(out, types.FlatSource{Name: src.Name, BaseURL: src.BaseURL})
			continue
		}
		rel, err := l.fetchRelease(ctx, src)
		if err != nil {
			return nil, err
		}
		components := src.Components
		if len(components) == 0 {
			components = rel.Components
		}
		for _, component := range components {
			for _, arch := range rel.Architectures {
				out = append(out, types.FlatSource{
					Name:      fmt.Sprintf("%s/%s/%s", src.Name, component, arch),
					BaseURL:   src.BaseURL + "/" + src.Distribution,
					Component: component,
					Arch:      arch,
				})
			}
		}
	}
	return out, nil
}

func (l *Loader) fetchRelease(ctx context.Context, src types.Src) (control.Release, error) {
	tmp := filepath.Join(l.ListsDir, sanitize(src.Name)+"_Release")
	url := src.BaseURL + "/" + src.Distribution + "/Release"
	if _, err := l.Downloader.Download(ctx, url, tmp); err != nil {
		return control.Release{}, err
	}
	data, err := os.ReadFile(tmp)
	if err != nil {
		return control.Release{}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to read downloaded Release file").
			WithCause(err)
	}
	if src.RequireSigning || l.Keyring != nil {
		payload, _, err := control.VerifyClearsigned(data, l.Keyring)
		if err != nil {
			// Release may be a plain (non-clearsigned) file with a
			// detached Release.gpg sibling; fall back to that.
			sigPath := filepath.Join(l.ListsDir, sanitize(src.Name)+"_Release.gpg")
			if _, dlErr := l.Downloader.Download(ctx, url+".gpg", sigPath); dlErr != nil {
				return control.Release{}, err
			}
			sig, readErr := os.ReadFile(sigPath)
			if readErr != nil {
				return control.Release{}, err
			}
			if _, vErr := control.VerifyDetached(data, sig, l.Keyring); vErr != nil {
				return control.Release{}, vErr
			}
		} else {
			data = payload
		}
	}
	stanza, err := control.NewReader(bytes.NewReader(data)).Next()
	if err != nil {
		return control.Release{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to parse Release manifest").
			WithCause(err)
	}
	return control.ParseRelease(stanza), nil
}

func (l *Loader) fetchPackages(ctx context.Context, flat types.FlatSource) error {
	dest := filepath.Join(l.ListsDir, sanitize(flat.Name)+"_Packages")
	url := flat.BaseURL
	if flat.Component != "" {
		url = fmt.Sprintf("%s/%s/binary-%s/Packages", flat.BaseURL, flat.Component, flat.Arch)
	}
	_, err := l.Downloader.Download(ctx, url, dest)
	return err
}

func (l *Loader) loadPackagesFile(pool *core.Pool, repoName string, flat types.FlatSource) error {
	path := filepath.Join(l.ListsDir, sanitize(flat.Name)+"_Packages")
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		log.Debug().Str("source", flat.Name).Msg("no Packages file fetched yet, skipping load")
		return nil
	}
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to open Packages file: " + path).
			WithCause(err)
	}
	defer f.Close()

	stanzas, err := control.NewReader(f).All()
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to parse Packages file: " + path).
			WithCause(err)
	}
	for _, stanza := range stanzas {
		sv, err := control.ParseSolvable(stanza, flat.Arch)
		if err != nil {
			log.Warn().Err(err).Str("source", flat.Name).Msg("skipping malformed package stanza")
			continue
		}
		if archs := pool.Archs(); len(archs) > 0 && sv.Arch != "all" && !archs.Contains(sv.Arch) {
			log.Debug().Str("package", sv.Name).Str("arch", sv.Arch).Msg("dropping package for unconfigured architecture")
			continue
		}
		if _, _, err := pool.AddSolvable(repoName, sv); err != nil {
			return err
		}
	}
	return nil
}

func sanitize(name string) string {
	out := make([]byte, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c == '/' || c == ':' {
			out[i] = '_'
		} else {
			out[i] = c
		}
	}
	return string(out)
}

var _ ports.RepoLoaderPort = (*Loader)(nil)
