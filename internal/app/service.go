// Package app wires the ports and core packages into the use cases
// named by the CLI surface (spec §6): update, install, remove,
// upgrade, dist-upgrade, flag, download, clean and the query verbs.
// internal/cli stays a thin cobra binding over this package; nothing
// here imports cobra or viper.
package app

import (
	"context"
	"os"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"opkg/internal/adapters"
	"opkg/internal/config"
	"opkg/internal/core"
	"opkg/internal/dlcache"
	"opkg/internal/ports"
	"opkg/internal/repoload"
	"opkg/internal/statusstore"
	"opkg/internal/types"
)

// Context is the explicit, dependency-free bundle threaded through
// every operation (spec §9 design notes: no hidden process-wide
// opkg_config/pool/solv_pkgs singletons).
type Context struct {
	Config config.Config
	Pool   *core.Pool
	Dest   types.Dest

	RepoLoader ports.RepoLoaderPort
	Cache      ports.DownloadCachePort
	Downloader ports.Downloader
	Archive    ports.ArchiveReader
	Scripts    ports.ScriptRunner
	Status     ports.StatusStorePort
	UI         ports.UI

	// States holds the installed destination's want/flag/status map.
	// Populated by LoadPool and mutated in place by the executor.
	States map[string]types.PackageState
}

// NewContext builds a Context from cfg. interactive selects the UI
// adapter (survey prompts vs batch defaults) per spec §4.6/§4.7.
func NewContext(cfg config.Config, interactive bool) (*Context, error) {
	adapters.ExportProxyEnv(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.FTPProxy, cfg.NoProxy)

	keyring, err := loadKeyring(cfg)
	if err != nil {
		return nil, err
	}

	downloader := adapters.NewHTTPDownloader()
	ui := ports.UI(adapters.NewBatchUI())
	if interactive {
		ui = adapters.NewInteractiveUI()
	}

	return &Context{
		Config:     cfg,
		Pool:       core.NewPool(cfg.Archs),
		Dest:       cfg.PrimaryDest(),
		RepoLoader: repoload.New(downloader, cfg.ListsDir, keyring, cfg.MaxDownloads),
		Cache:      dlcache.New(cfg.CacheDir, downloader, keyring, cfg.VolatileCache),
		Downloader: downloader,
		Archive:    adapters.NewArAdapter(),
		Scripts:    adapters.NewExecScriptRunner(),
		Status:     statusstore.New(),
		UI:         ui,
	}, nil
}

// loadKeyring reads the configured keyring file when signature
// checking is enabled; nil disables signature verification
// throughout the repo loader and download cache (spec §4.3/§4.5).
func loadKeyring(cfg config.Config) (openpgp.EntityList, error) {
	if cfg.SignatureCheck == config.SignatureNone {
		return nil, nil
	}
	path := cfg.ResolveKeyringPath()
	f, err := os.Open(path)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("configuration error: cannot open signature keyring: " + path).
			WithCause(err)
	}
	defer f.Close()

	entities, err := openpgp.ReadArmoredKeyRing(f)
	if err == nil {
		return entities, nil
	}
	if _, serr := f.Seek(0, 0); serr != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to rewind keyring file: " + path).
			WithCause(serr)
	}
	entities, err = openpgp.ReadKeyRing(f)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to parse signature keyring: " + path).
			WithCause(err)
	}
	return entities, nil
}

// LoadPool ingests every configured repository index and the
// destination's installed database into ctx.Pool (spec §1 data flow),
// applies the exclude list, and builds the what-provides index.
// Mutating commands call it after acquiring the lock; query commands
// call it without the lock. When the status file held duplicate
// entries, LoadPool rewrites it with the de-duplicated state.
func (c *Context) LoadPool(ctx context.Context) error {
	if err := c.RepoLoader.Load(ctx, c.Pool, c.Config.Sources); err != nil {
		return err
	}
	states, dirty, err := c.Status.Load(c.Dest, c.Pool)
	if err != nil {
		return err
	}
	c.States = states

	applyExcludePolicy(c.Pool, c.Config.Exclude)
	c.Pool.CreateWhatProvides()

	if dirty {
		log.Debug().Str("dest", c.Dest.Name).Msg("status file had duplicate entries, persisting de-duplicated state")
		if err := c.Status.Save(c.Dest, c.Pool, c.States); err != nil {
			return err
		}
	}
	return nil
}

// InstalledNames returns the names of every currently-installed
// solvable, used to pin untouched packages in place during job
// resolution (policies.PinInstalled).
func (c *Context) InstalledNames() []string {
	ids := c.Pool.InstalledIDs()
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if sv, ok := c.Pool.Solvable(id); ok {
			names = append(names, sv.Name)
		}
	}
	return names
}
