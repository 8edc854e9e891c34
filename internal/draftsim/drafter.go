package draftsim

import (
	"context"
	"errors"
	"sync/atomic"

	"golang.org/x/time/rate"

	"github.com/ckwame-jpg/fantasy-tool/internal/domain/model"
)

var errBoardExhausted = errors.New("no players left on the board")

// pickBest drafts the best available player, moving down the fetched window on conflicts
// and refetching once the whole window was taken by others.
func pickBest(ctx context.Context, c *client, cfg *Config, limiter *rate.Limiter,
	attempted, conflicts, fetches *atomic.Int64,
) (model.NormalizedPlayer, error) {
	for {
		view, err := c.available(ctx, cfg.DraftID, cfg.Window)
		if err != nil {
			return model.NormalizedPlayer{}, err
		}
		fetches.Add(1)
		if len(view.Players) == 0 {
			return model.NormalizedPlayer{}, errBoardExhausted
		}

		for _, cand := range view.Players {
			if err := limiter.Wait(ctx); err != nil {
				return model.NormalizedPlayer{}, err
			}
			attempted.Add(1)
			p, err := c.draft(ctx, cfg.DraftID, cand.ID)
			switch {
			case err == nil:
				return p, nil
			case errors.Is(err, errConflict):
				conflicts.Add(1)
			default:
				return model.NormalizedPlayer{}, err
			}
		}
	}
}
