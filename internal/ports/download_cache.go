package ports

import (
	"context"

	"opkg/internal/types"
)

// DownloadCachePort resolves a solvable to a verified local file path,
// fetching and checksumming it on a cache miss.
type DownloadCachePort interface {
	Fetch(ctx context.Context, sv types.Solvable) (localPath string, err error)
	Clean() error
}
