package ports

import (
	"context"

	"opkg/internal/core"
	"opkg/internal/types"
)

// RepoLoaderPort fetches repository metadata (Release manifests and
// per-component Packages files) and loads the parsed solvables into a
// pool repo.
type RepoLoaderPort interface {
	Update(ctx context.Context, sources []types.Src) error
	Load(ctx context.Context, pool *core.Pool, sources []types.Src) error
}
