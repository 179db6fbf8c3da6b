// Package statusstore loads and atomically persists the deb822-style
// status file that records every installed package's want/flag/status
// triple for one destination.
package statusstore

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"opkg/internal/control"
	"opkg/internal/core"
	"opkg/internal/ports"
	"opkg/internal/types"
)

// Store loads and saves a Dest's status file into a Pool's installed
// repo.
type Store struct{}

// New returns a Store. It carries no state of its own; every
// operation takes the Dest and Pool explicitly, per the "no global
// mutable state" design note.
func New() Store { return Store{} }

// Load parses dest's status file (if present; a missing file means an
// empty destination) into the pool's installed repo, applying the
// parse-time duplicate-entry rule: later stanzas win and mark dest
// dirty. It returns each installed package's want/flag/status triple
// keyed by name, since that state lives alongside the Solvable rather
// than inside it.
func (Store) Load(dest types.Dest, pool *core.Pool) (map[string]types.PackageState, bool, error) {
	pool.EnsureRepo(core.InstalledRepoName, 0)
	states := map[string]types.PackageState{}

	f, err := os.Open(dest.StatusPath())
	if os.IsNotExist(err) {
		if ierr := pool.Internalize(core.InstalledRepoName); ierr != nil {
			return nil, false, ierr
		}
		return states, false, nil
	}
	if err != nil {
		return nil, false, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to open status file: " + dest.StatusPath()).
			WithCause(err)
	}
	defer f.Close()

	stanzas, err := control.NewReader(f).All()
	if err != nil {
		return nil, false, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to parse status file: " + dest.StatusPath()).
			WithCause(err)
	}

	dirty := false
	for _, stanza := range stanzas {
		sv, err := control.ParseSolvable(stanza, "")
		if err != nil {
			log.Warn().Err(err).Msg("skipping malformed status stanza")
			continue
		}
		want, flags, status := parseStatusField(stanza.Get("Status"))
		_, deduped, err := pool.AddSolvable(core.InstalledRepoName, sv)
		if err != nil {
			return nil, false, err
		}
		if deduped {
			dirty = true
		}
		states[sv.Name] = types.PackageState{Want: want, Flag: flags, Status: status}
	}
	if err := pool.Internalize(core.InstalledRepoName); err != nil {
		return nil, false, err
	}
	return states, dirty, nil
}

// Save atomically rewrites dest's status file from the pool's
// installed repo: write to a sibling temp file, fsync it, then rename
// over the original so a crash mid-write never leaves a truncated or
// partially-written status file behind.
func (Store) Save(dest types.Dest, pool *core.Pool, states map[string]types.PackageState) error {
	ids := pool.InstalledIDs()
	sort.Slice(ids, func(i, j int) bool {
		a, _ := pool.Solvable(ids[i])
		b, _ := pool.Solvable(ids[j])
		return a.Name < b.Name
	})

	if err := os.MkdirAll(filepath.Dir(dest.StatusPath()), 0o755); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create status directory").
			WithCause(err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest.StatusPath()), ".status-*.tmp")
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create status temp file").
			WithCause(err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once the rename below succeeds

	for _, id := range ids {
		sv, _ := pool.Solvable(id)
		state := states[sv.Name]
		if shouldOmit(state) {
			continue
		}
		stanza := control.RenderSolvable(sv, state)
		if err := control.Write(tmp, stanza); err != nil {
			tmp.Close()
			return err
		}
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to fsync status temp file").
			WithCause(err)
	}
	if err := tmp.Close(); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to close status temp file").
			WithCause(err)
	}
	if err := os.Rename(tmpPath, dest.StatusPath()); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to rename status temp file into place").
			WithCause(err)
	}
	return nil
}

// shouldOmit reports whether a package's state is uninteresting enough
// to drop from a freshly-written status file: want=unknown (or no
// recorded want at all), or deinstall without a hold and without
// leftover config files.
func shouldOmit(state types.PackageState) bool {
	if state.Want == types.WantUnknown || state.Want == "" {
		return true
	}
	if state.Want == types.WantDeinstall && !state.Flag.Has(types.FlagHold) && state.Status != types.StatusConfigFiles {
		return true
	}
	return false
}

func parseStatusField(value string) (types.Want, types.FlagSet, types.Status) {
	fields := splitFields(value)
	if len(fields) == 0 {
		return types.WantUnknown, types.NewFlagSet(), types.StatusNotInstalled
	}
	want := types.Want(fields[0])
	status := types.StatusNotInstalled
	var flagTokens []string
	if len(fields) >= 2 {
		flagTokens = fields[1 : len(fields)-1]
		if len(fields) >= 3 {
			status = types.Status(fields[len(fields)-1])
		}
	}
	flags := make([]types.Flag, 0, len(flagTokens))
	for _, tok := range flagTokens {
		flags = append(flags, types.Flag(tok))
	}
	return want, types.NewFlagSet(flags...), status
}

var _ ports.StatusStorePort = Store{}

func splitFields(value string) []string {
	var fields []string
	start := -1
	for i, r := range value {
		if r == ' ' || r == '\t' {
			if start >= 0 {
				fields = append(fields, value[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		fields = append(fields, value[start:])
	}
	return fields
}
