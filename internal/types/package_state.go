package types

// FlagSet is a bitset of Flag values, stored as a set for simplicity of
// reasoning; the status file renders it as a space-separated word list.
type FlagSet map[Flag]struct{}

// NewFlagSet builds a FlagSet from the given flags.
func NewFlagSet(flags ...Flag) FlagSet {
	set := make(FlagSet, len(flags))
	for _, f := range flags {
		set[f] = struct{}{}
	}
	return set
}

// Has reports whether flag is set.
func (s FlagSet) Has(flag Flag) bool {
	_, ok := s[flag]
	return ok
}

// With returns a copy of s with flag added.
func (s FlagSet) With(flag Flag) FlagSet {
	out := make(FlagSet, len(s)+1)
	for f := range s {
		out[f] = struct{}{}
	}
	out[flag] = struct{}{}
	return out
}

// Without returns a copy of s with flag removed.
func (s FlagSet) Without(flag Flag) FlagSet {
	out := make(FlagSet, len(s))
	for f := range s {
		if f == flag {
			continue
		}
		out[f] = struct{}{}
	}
	return out
}

// Persistable reports whether the flag survives a status-file rewrite.
// filelist-changed and changed are volatile bookkeeping only meaningful
// within a single run.
func (f Flag) Persistable() bool {
	return f != FlagFilelistChanged && f != FlagChanged
}

// PackageState is the mutable per-installed-solvable state tracked
// alongside its identity in the installed repo.
type PackageState struct {
	Want   Want
	Flag   FlagSet
	Status Status
}
