package executor

import (
	"context"

	"golang.org/x/sync/errgroup"

	"opkg/internal/types"
)

// downloadPhase fetches every non-local solvable a step touches before
// any mutation happens, bounded to MaxDownloads concurrent fetches
// (spec §5: "downloads happen up front, fully parallel within a
// configured bound, and a single failure aborts the whole operation
// before anything is unpacked"). Locally-provided solvables
// (ProvidedByHand) are resolved to their LocalPath without a fetch.
func (e *Executor) downloadPhase(ctx context.Context, tx *types.Transaction) (map[int]string, error) {
	paths := make(map[int]string, len(tx.Steps))
	var ids []int
	for _, step := range tx.Steps {
		if step.Kind == types.StepErase {
			continue
		}
		ids = append(ids, step.SolvableID)
	}
	if len(ids) == 0 {
		return paths, nil
	}

	type fetched struct {
		id   int
		path string
	}
	results := make(chan fetched, len(ids))

	limit := e.MaxDownloads
	if limit <= 0 {
		limit = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for _, id := range ids {
		id := id
		sv, ok := e.Pool.Solvable(id)
		if !ok {
			continue
		}
		if sv.ProvidedByHand {
			results <- fetched{id: id, path: sv.LocalPath}
			continue
		}
		g.Go(func() error {
			path, err := e.Cache.Fetch(gctx, sv)
			if err != nil {
				return err
			}
			results <- fetched{id: id, path: path}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	close(results)
	for r := range results {
		paths[r.id] = r.path
	}
	return paths, nil
}
