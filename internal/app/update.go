package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"opkg/internal/types"
)

// Update refreshes every configured source's cached index (spec §6
// "update"). A failure fetching one source does not abort the
// others; the return value is the count of sources that failed, the
// CLI's exit code per spec §6's table.
func (c *Context) Update(ctx context.Context) (failed int, err error) {
	for _, src := range c.Config.Sources {
		if uerr := c.RepoLoader.Update(ctx, []types.Src{src}); uerr != nil {
			log.Warn().Err(uerr).Str("source", src.Name).Msg("failed to update source")
			failed++
		}
	}
	return failed, nil
}
