// Package query implements the read-only operations over a pool that
// back the CLI's list/info/files/search/whatprovides family of
// commands: nothing here mutates the pool or touches installed state.
package query

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/ZanzyTHEbar/errbuilder-go"

	"opkg/internal/core"
	"opkg/internal/ports"
	"opkg/internal/types"
)

// Facade answers query-command requests against a single pool and the
// destination whose file lists back the "files" and "search" queries.
type Facade struct {
	Pool *core.Pool
	Dest types.Dest
}

// New returns a Facade bound to pool and dest.
func New(pool *core.Pool, dest types.Dest) Facade {
	return Facade{Pool: pool, Dest: dest}
}

// Upgrade is one row of a list-upgradable report: an installed package
// with a strictly newer candidate available.
type Upgrade struct {
	Name      string
	Installed string
	Candidate string
}

// List returns every non-installed solvable whose name matches
// pattern (a doublestar glob; "" matches everything), sorted by name
// then version.
func (f Facade) List(pattern string) ([]types.Solvable, error) {
	return f.filterByRepo(pattern, false)
}

// ListInstalled returns every installed solvable whose name matches
// pattern, sorted by name.
func (f Facade) ListInstalled(pattern string) ([]types.Solvable, error) {
	return f.filterByRepo(pattern, true)
}

func (f Facade) filterByRepo(pattern string, installedOnly bool) ([]types.Solvable, error) {
	var out []types.Solvable
	ids := f.Pool.AllIDs()
	if installedOnly {
		ids = f.Pool.InstalledIDs()
	}
	for _, id := range ids {
		sv, ok := f.Pool.Solvable(id)
		if !ok {
			continue
		}
		if !installedOnly {
			repo, ok := f.Pool.RepoOf(sv)
			if ok && repo.Name == core.InstalledRepoName {
				continue
			}
		}
		matched, err := matchName(pattern, sv.Name)
		if err != nil {
			return nil, err
		}
		if matched {
			out = append(out, sv)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Version() < out[j].Version()
	})
	return out, nil
}

// ListUpgradable diffs every installed package's name against the
// newest non-installed solvable of the same name, reporting one row
// for each strictly newer candidate.
func (f Facade) ListUpgradable() ([]Upgrade, error) {
	var out []Upgrade
	for _, id := range f.Pool.InstalledIDs() {
		sv, ok := f.Pool.Solvable(id)
		if !ok {
			continue
		}
		matches, err := f.Pool.WhatProvides(types.Constraint{Name: sv.Name})
		if err != nil {
			return nil, err
		}
		candidate := sv
		for _, mid := range matches {
			m, ok := f.Pool.Solvable(mid)
			if !ok || mid == id || m.Name != sv.Name {
				continue
			}
			if cmp, err := core.Compare(m.Version(), candidate.Version()); err == nil && cmp > 0 {
				candidate = m
			}
		}
		if candidate.ID != sv.ID {
			out = append(out, Upgrade{Name: sv.Name, Installed: sv.Version(), Candidate: candidate.Version()})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Info returns every solvable (installed and available) named name,
// for the "info"/"status" commands to format.
func (f Facade) Info(name string) ([]types.Solvable, error) {
	var out []types.Solvable
	for _, id := range f.Pool.AllIDs() {
		sv, ok := f.Pool.Solvable(id)
		if ok && sv.Name == name {
			out = append(out, sv)
		}
	}
	if len(out) == 0 {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("unknown package: " + name)
	}
	return out, nil
}

// FormatInfo renders a solvable's control fields the way "opkg info"
// prints them: one "Field: value" line per populated field. No blank
// line is appended; the caller separates records.
func FormatInfo(sv types.Solvable) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Package: %s\n", sv.Name)
	fmt.Fprintf(&b, "Version: %s\n", sv.Version())
	if sv.Arch != "" {
		fmt.Fprintf(&b, "Architecture: %s\n", sv.Arch)
	}
	if sv.Maintainer != "" {
		fmt.Fprintf(&b, "Maintainer: %s\n", sv.Maintainer)
	}
	if len(sv.Depends) > 0 {
		fmt.Fprintf(&b, "Depends: %s\n", formatAlternations(sv.Depends))
	}
	fmt.Fprintf(&b, "Installed-Size: %d\n", sv.InstallSize)
	if sv.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", sv.Description)
	}
	return b.String()
}

func formatAlternations(alts []types.Alternation) string {
	groups := make([]string, 0, len(alts))
	for _, alt := range alts {
		names := make([]string, 0, len(alt.Options))
		for _, opt := range alt.Options {
			names = append(names, opt.Name)
		}
		groups = append(groups, strings.Join(names, " | "))
	}
	return strings.Join(groups, ", ")
}

// Files returns the installed file manifest for name. If name is not
// installed, it falls back to listing the data-archive contents of
// the best available candidate via cache+archive, for "opkg files" on
// a not-yet-installed package.
func (f Facade) Files(name string, cache ports.DownloadCachePort, archive ports.ArchiveReader) ([]string, error) {
	if _, installed := f.Pool.InstalledByName(name); installed {
		return readListFile(f.Dest.ListPath(name))
	}
	if cache == nil || archive == nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg("package not installed and no download backend configured: " + name)
	}
	id, found, err := f.Pool.BestProvider(types.Constraint{Name: name})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("unknown package: " + name)
	}
	sv, _ := f.Pool.Solvable(id)
	// NB: ctx.Background-equivalent fetch; archive listing is a
	// read-only query, not part of a transaction, so it has no
	// surrounding cancellation scope of its own.
	path, err := cache.Fetch(context.Background(), sv)
	if err != nil {
		return nil, err
	}
	return archive.ExtractData(path, "")
}

// Search matches pattern (a shell-style glob) against every installed
// package's file list, returning the matching paths keyed by owning
// package name.
func (f Facade) Search(pattern string) (map[string][]string, error) {
	out := map[string][]string{}
	for _, id := range f.Pool.InstalledIDs() {
		sv, ok := f.Pool.Solvable(id)
		if !ok {
			continue
		}
		paths, err := readListFile(f.Dest.ListPath(sv.Name))
		if err != nil {
			continue
		}
		for _, p := range paths {
			matched, err := doublestar.Match(pattern, strings.TrimPrefix(p, "/"))
			if err != nil {
				return nil, errbuilder.New().
					WithCode(errbuilder.CodeInvalidArgument).
					WithMsg("invalid search pattern: " + pattern).
					WithCause(err)
			}
			if matched {
				out[sv.Name] = append(out[sv.Name], p)
			}
		}
	}
	return out, nil
}

func matchName(pattern, name string) (bool, error) {
	if pattern == "" {
		return true, nil
	}
	matched, err := doublestar.Match(pattern, name)
	if err != nil {
		return false, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid glob pattern: " + pattern).
			WithCause(err)
	}
	return matched, nil
}
