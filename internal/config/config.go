// Package config produces the plain Config value the core treats as
// an external collaborator (spec §1): it never imports viper itself,
// only internal/cli does, keeping the loading mechanism ambient and
// the consumer a dependency-free struct.
package config

import (
	"path/filepath"

	"opkg/internal/types"
)

// SignatureMode selects how repository Release manifests and
// per-package signatures are verified.
type SignatureMode string

const (
	SignatureNone        SignatureMode = "none"
	SignatureDetached    SignatureMode = "gpg"     // binary ".sig" detached signature
	SignatureClearsigned SignatureMode = "gpg-asc" // armored ".asc" / InRelease-style
)

// Config is the fully-resolved configuration the transaction engine
// consumes: destinations, sources, the architecture table, and the
// knobs that tune downloading, caching and signature verification.
type Config struct {
	OfflineRoot string
	Dests       []types.Dest
	Sources     []types.Src
	Archs       types.ArchTable

	CacheDir string
	ListsDir string
	LockFile string
	TmpDir   string

	VolatileCache   bool
	CacheLocalFiles bool
	MaxDownloads    int

	SignatureCheck  SignatureMode
	SignatureKeyring string

	HTTPProxy  string
	HTTPSProxy string
	FTPProxy   string
	NoProxy    string

	Exclude []string
}

// PrimaryDest returns the first configured destination, the
// destination every single-root install targets. opkg's original
// multi-destination support is out of this engine's scope; one root
// is always present.
func (c Config) PrimaryDest() types.Dest {
	if len(c.Dests) == 0 {
		return types.Dest{}
	}
	return c.Dests[0]
}

// Default returns the conventional persisted-state layout rooted at
// offlineRoot (spec §6), with no sources and the feed architecture
// table empty — callers fill those in from the loaded config file.
func Default(offlineRoot string) Config {
	base := filepath.Join(offlineRoot, "usr", "lib", "opkg")
	return Config{
		OfflineRoot: offlineRoot,
		Dests: []types.Dest{{
			Name:           "root",
			RootDir:        offlineRoot,
			InfoDir:        filepath.Join(base, "info"),
			StatusFileName: filepath.Join("usr", "lib", "opkg", "status"),
		}},
		ListsDir:        filepath.Join(base, "lists"),
		LockFile:        filepath.Join(base, "lock"),
		CacheDir:        filepath.Join(offlineRoot, "var", "cache", "opkg"),
		TmpDir:          filepath.Join(offlineRoot, "tmp"),
		MaxDownloads:    1,
		CacheLocalFiles: true,
		SignatureCheck:  SignatureNone,
	}
}
