package ports

import (
	"opkg/internal/core"
	"opkg/internal/types"
)

// StatusStorePort loads and atomically persists the installed-package
// database for one destination. Load returns each package's
// want/flag/status triple keyed by name, and whether a duplicate
// installed entry was collapsed (the caller should then re-Save to
// clear the destination's dirty bit).
type StatusStorePort interface {
	Load(dest types.Dest, pool *core.Pool) (states map[string]types.PackageState, dirty bool, err error)
	Save(dest types.Dest, pool *core.Pool, states map[string]types.PackageState) error
}
