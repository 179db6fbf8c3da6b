package control

import (
	"strconv"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"opkg/internal/core"
	"opkg/internal/types"
)

// ParseSolvable converts one Packages-index or status-file stanza
// into a Solvable. defaultArch is used when the stanza carries no
// explicit Architecture field (some minimal status entries omit it).
func ParseSolvable(s *Stanza, defaultArch string) (types.Solvable, error) {
	name := s.Get("Package")
	if name == "" {
		return types.Solvable{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("stanza missing Package field")
	}
	epoch, upstream, revision := splitVersion(s.Get("Version"))
	arch := s.Get("Architecture")
	if arch == "" {
		arch = defaultArch
	}

	sv := types.Solvable{
		Name:         name,
		Epoch:        epoch,
		Upstream:     upstream,
		Revision:     revision,
		Arch:         arch,
		Depends:      core.ParseAlternations(s.Get("Depends")),
		PreDepends:   core.ParseAlternations(s.Get("Pre-Depends")),
		Recommends:   core.ParseAlternations(s.Get("Recommends")),
		Suggests:     core.ParseAlternations(s.Get("Suggests")),
		Conflicts:    core.ParseAtoms(s.Get("Conflicts")),
		Replaces:     core.ParseAtoms(s.Get("Replaces")),
		Provides:     core.ParseAtoms(s.Get("Provides")),
		Obsoletes:    core.ParseAtoms(s.Get("Obsoletes")),
		MD5:          s.Get("MD5Sum"),
		SHA256:       s.Get("SHA256"),
		URL:          s.Get("Filename"),
		Description:  s.Get("Description"),
		Maintainer:   s.Get("Maintainer"),
		Essential:    strings.EqualFold(s.Get("Essential"), "yes"),
	}
	if v := s.Get("Size"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			sv.DownloadSize = n
		}
	}
	if v := s.Get("Installed-Size"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			sv.InstallSize = n * 1024
		}
	}
	if v := s.Get("Conffiles"); v != "" {
		for _, line := range strings.Split(v, "\n") {
			fields := strings.Fields(line)
			if len(fields) != 2 {
				continue
			}
			sv.Conffiles = append(sv.Conffiles, types.Conffile{Path: fields[0], MD5: fields[1]})
		}
	}
	return sv, nil
}

// splitVersion decomposes a Debian version string into its epoch,
// upstream, and revision segments without validating ordering
// semantics (that is core.Compare's job).
func splitVersion(raw string) (epoch int, upstream, revision string) {
	rest := raw
	if idx := strings.Index(rest, ":"); idx >= 0 {
		if n, err := strconv.Atoi(rest[:idx]); err == nil {
			epoch = n
			rest = rest[idx+1:]
		}
	}
	if idx := strings.LastIndex(rest, "-"); idx >= 0 {
		return epoch, rest[:idx], rest[idx+1:]
	}
	return epoch, rest, ""
}

// RenderSolvable renders a Solvable back into a status-file stanza,
// used by the status store's atomic rewrite.
func RenderSolvable(sv types.Solvable, state types.PackageState) *Stanza {
	s := NewStanza()
	s.Set("Package", sv.Name)
	s.Set("Version", sv.Version())
	if sv.Arch != "" {
		s.Set("Architecture", sv.Arch)
	}
	s.Set("Status", renderStatusField(state))
	if sv.Essential {
		s.Set("Essential", "yes")
	}
	if len(sv.Conffiles) > 0 {
		var b strings.Builder
		for i, c := range sv.Conffiles {
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString(c.Path + " " + c.MD5)
		}
		s.Set("Conffiles", b.String())
	}
	return s
}

func renderStatusField(state types.PackageState) string {
	flags := make([]string, 0, len(state.Flag))
	for f := range state.Flag {
		if f.Persistable() {
			flags = append(flags, string(f))
		}
	}
	flagWord := "ok"
	if len(flags) > 0 {
		flagWord = strings.Join(flags, " ")
	}
	return string(state.Want) + " " + flagWord + " " + string(state.Status)
}
