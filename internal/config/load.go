package config

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"opkg/internal/types"
)

// RawArch is one architecture-table row as it appears in the config
// file, decoded by the CLI's viper layer before being handed here.
type RawArch struct {
	Name     string `mapstructure:"name" yaml:"name"`
	Priority int    `mapstructure:"priority" yaml:"priority"`
}

// RawSource is one repository source as it appears in the config
// file.
type RawSource struct {
	Name           string   `mapstructure:"name" yaml:"name"`
	BaseURL        string   `mapstructure:"base_url" yaml:"base_url"`
	Distribution   string   `mapstructure:"distribution" yaml:"distribution"`
	Components     []string `mapstructure:"components" yaml:"components"`
	SignatureKey   string   `mapstructure:"signature_key" yaml:"signature_key"`
	RequireSigning bool     `mapstructure:"require_signing" yaml:"require_signing"`
}

// Raw is the plain decode target for the config file and environment,
// produced by the CLI's viper binding (loadConfig in internal/cli/root.go) and
// turned into a validated Config by FromRaw. Keeping this struct here
// (rather than requiring callers to pass viper.Viper around) is what
// lets this package stay free of any direct viper import.
type Raw struct {
	OfflineRoot      string       `mapstructure:"offline_root" yaml:"offline_root"`
	CacheDir         string       `mapstructure:"cache_dir" yaml:"cache_dir"`
	ListsDir         string       `mapstructure:"lists_dir" yaml:"lists_dir"`
	LockFile         string       `mapstructure:"lock_file" yaml:"lock_file"`
	TmpDir           string       `mapstructure:"tmp_dir" yaml:"tmp_dir"`
	VolatileCache    bool         `mapstructure:"volatile_cache" yaml:"volatile_cache"`
	CacheLocalFiles  bool         `mapstructure:"cache_local_files" yaml:"cache_local_files"`
	MaxDownloads     int          `mapstructure:"max_downloads" yaml:"max_downloads"`
	SignatureCheck   string       `mapstructure:"signature_check" yaml:"signature_check"`
	SignatureKeyring string       `mapstructure:"signature_keyring" yaml:"signature_keyring"`
	Exclude          []string     `mapstructure:"exclude" yaml:"exclude"`
	Architectures    []RawArch    `mapstructure:"architectures" yaml:"architectures"`
	Sources          []RawSource  `mapstructure:"sources" yaml:"sources"`
	HTTPProxy        string       `mapstructure:"http_proxy" yaml:"http_proxy"`
	HTTPSProxy       string       `mapstructure:"https_proxy" yaml:"https_proxy"`
	FTPProxy         string       `mapstructure:"ftp_proxy" yaml:"ftp_proxy"`
	NoProxy          string       `mapstructure:"no_proxy" yaml:"no_proxy"`
}

// FromRaw validates raw and produces the Config the engine runs with.
// An empty architecture table is a ConfigError (spec §7): every other
// field falls back to the conventional layout under offline_root.
func FromRaw(raw Raw) (Config, error) {
	if len(raw.Architectures) == 0 {
		return Config{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("configuration error: no architectures configured")
	}

	root := raw.OfflineRoot
	if root == "" {
		root = "/"
	}
	cfg := Default(root)

	if raw.CacheDir != "" {
		cfg.CacheDir = raw.CacheDir
	}
	if raw.ListsDir != "" {
		cfg.ListsDir = raw.ListsDir
	}
	if raw.LockFile != "" {
		cfg.LockFile = raw.LockFile
	}
	if raw.TmpDir != "" {
		cfg.TmpDir = raw.TmpDir
	}
	cfg.VolatileCache = raw.VolatileCache
	cfg.CacheLocalFiles = raw.CacheLocalFiles
	if raw.MaxDownloads > 0 {
		cfg.MaxDownloads = raw.MaxDownloads
	}
	cfg.Exclude = raw.Exclude
	cfg.HTTPProxy = raw.HTTPProxy
	cfg.HTTPSProxy = raw.HTTPSProxy
	cfg.FTPProxy = raw.FTPProxy
	cfg.NoProxy = raw.NoProxy

	mode := SignatureMode(strings.ToLower(strings.TrimSpace(raw.SignatureCheck)))
	switch mode {
	case "", SignatureNone:
		cfg.SignatureCheck = SignatureNone
	case SignatureDetached, SignatureClearsigned:
		cfg.SignatureCheck = mode
	default:
		return Config{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("configuration error: unknown signature_check mode: " + raw.SignatureCheck)
	}
	cfg.SignatureKeyring = raw.SignatureKeyring

	// §9 open question: volatile_cache + required signatures is
	// under-specified upstream. This rewrite rejects the combination
	// outright rather than silently fetching signatures to a temp path,
	// so a misconfiguration fails loudly at startup instead of at the
	// first verification attempt.
	if cfg.VolatileCache && cfg.SignatureCheck != SignatureNone {
		return Config{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("configuration error: volatile_cache is incompatible with signature_check; disable one")
	}

	for _, a := range raw.Architectures {
		cfg.Archs = append(cfg.Archs, types.ArchEntry{Name: a.Name, Priority: a.Priority})
	}
	sort.SliceStable(cfg.Archs, func(i, j int) bool { return cfg.Archs[i].Priority < cfg.Archs[j].Priority })
	for _, s := range raw.Sources {
		cfg.Sources = append(cfg.Sources, types.Src{
			Name:           s.Name,
			BaseURL:        s.BaseURL,
			Distribution:   s.Distribution,
			Components:     s.Components,
			SignatureKey:   s.SignatureKey,
			RequireSigning: s.RequireSigning,
		})
	}
	return cfg, nil
}

// ResolveKeyringPath returns the absolute path to the configured
// signature keyring, relative to offline_root when not already
// absolute.
func (c Config) ResolveKeyringPath() string {
	if c.SignatureKeyring == "" || filepath.IsAbs(c.SignatureKeyring) {
		return c.SignatureKeyring
	}
	return filepath.Join(c.OfflineRoot, c.SignatureKeyring)
}
