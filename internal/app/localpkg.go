package app

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/google/uuid"

	"opkg/internal/control"
)

// localRepoName is the priority-zero repo local package arguments are
// loaded into, so the resolver can select them at all. A same-name-and-
// version candidate from a real repository never shadows one: the
// resolver's cost function ranks a ProvidedByHand candidate ahead of an
// equal version.
const localRepoName = "local-args"

// isLocalPackageArg reports whether raw names a local file or a
// directly-fetchable package URL rather than a package name/glob
// (spec §4.7 step 1 "packages marked provided by hand", supplying the
// original's pkg.c local-file loading path the spec's distillation
// only referenced in passing).
func isLocalPackageArg(raw string) bool {
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") || strings.HasPrefix(raw, "file://") {
		return true
	}
	return strings.ContainsRune(raw, '/') || strings.HasSuffix(raw, ".ipk") || strings.HasSuffix(raw, ".deb")
}

// loadLocalPackage opens a local .ipk/.deb archive (or a URL the
// download cache can fetch verbatim), parses its control stanza, and
// registers it in the pool as a one-off ProvidedByHand solvable. The
// returned name is what the caller should use as the job's selector.
func (c *Context) loadLocalPackage(ctx context.Context, path string) (string, error) {
	localPath := strings.TrimPrefix(path, "file://")
	if strings.Contains(path, "://") && !strings.HasPrefix(path, "file://") {
		// Remote package URL named directly on the command line: fetch it
		// once into a scratch file under tmp_dir rather than the content
		// cache, since the cache key is derived from URL (spec §4.5) and
		// this file is already fully identified by the path the user gave.
		tmp := filepath.Join(c.Config.TmpDir, "local-arg-"+uuid.NewString())
		if _, err := c.Downloader.Download(ctx, path, tmp); err != nil {
			return "", err
		}
		localPath = tmp
	}

	controlFiles, err := c.Archive.ExtractControl(localPath)
	if err != nil {
		return "", err
	}
	raw, ok := controlFiles["control"]
	if !ok {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("local package has no control stanza: " + path)
	}
	stanza, err := control.NewReader(strings.NewReader(raw)).Next()
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("malformed control stanza in local package: " + path).
			WithCause(err)
	}
	defaultArch := ""
	if len(c.Config.Archs) > 0 {
		defaultArch = c.Config.Archs[len(c.Config.Archs)-1].Name
	}
	sv, err := control.ParseSolvable(stanza, defaultArch)
	if err != nil {
		return "", err
	}
	sv.ProvidedByHand = true
	sv.LocalPath = localPath

	c.Pool.EnsureRepo(localRepoName, 0)
	if _, _, err := c.Pool.AddSolvable(localRepoName, sv); err != nil {
		return "", err
	}
	if err := c.Pool.Internalize(localRepoName); err != nil {
		return "", err
	}
	c.Pool.CreateWhatProvides()
	return sv.Name, nil
}

// ExpandSelectors resolves the CLI's raw argument list into job
// selectors, loading any local package arguments into the pool first
// so the resolver can see them.
func (c *Context) ExpandSelectors(ctx context.Context, raw []string) ([]string, error) {
	names := make([]string, 0, len(raw))
	for _, arg := range raw {
		if !isLocalPackageArg(arg) {
			names = append(names, arg)
			continue
		}
		name, err := c.loadLocalPackage(ctx, arg)
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}
