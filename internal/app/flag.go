package app

import (
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"opkg/internal/types"
)

// settableFlags are the flag/status words the "flag" CLI verb may set
// directly (spec §6 "flag <flag> <pkgs>"): a subset of the full
// bitset/status vocabulary that a user is expected to toggle by hand.
var settableFlags = map[string]func(types.PackageState) types.PackageState{
	"hold":    func(s types.PackageState) types.PackageState { s.Flag = s.Flag.With(types.FlagHold); return s },
	"noprune": func(s types.PackageState) types.PackageState { s.Flag = s.Flag.With(types.FlagNoprune); return s },
	"user":    func(s types.PackageState) types.PackageState { s.Flag = s.Flag.With(types.FlagUser); return s },
	"ok":      func(s types.PackageState) types.PackageState { s.Flag = s.Flag.With(types.FlagOk); return s },
	"installed": func(s types.PackageState) types.PackageState {
		s.Status = types.StatusInstalled
		return s
	},
	"unpacked": func(s types.PackageState) types.PackageState {
		s.Status = types.StatusUnpacked
		return s
	},
}

// Flag sets flagName on every named installed package and persists
// the destination's status file (spec §6 "flag"). An unknown flag word
// is a ConfigError (CodeInvalidArgument) and a package with no installed
// state is CodeNotFound; the command otherwise never touches the pool's
// candidate repos.
func (c *Context) Flag(flagName string, names []string) error {
	apply, ok := settableFlags[strings.ToLower(flagName)]
	if !ok {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("unknown flag: " + flagName + " (valid: hold, noprune, user, ok, installed, unpacked)")
	}
	for _, name := range names {
		state, ok := c.States[name]
		if !ok {
			return errbuilder.New().
				WithCode(errbuilder.CodeNotFound).
				WithMsg("package not installed: " + name)
		}
		c.States[name] = apply(state)
	}
	return c.Status.Save(c.Dest, c.Pool, c.States)
}
