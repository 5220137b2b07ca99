package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/heatmap-service/internal/domain"
)

// tileOutcome pairs a tile with the result of its dispatch.
type tileOutcome[T any] struct {
	tile  domain.Tile
	value T
	err   error
}

// runBatches dispatches fn over tiles in fixed-size batches. Tiles within a
// batch run in parallel; batches are separated by delay. Once ctx is done no
// further batch is dispatched, and the tiles never attempted are reported
// with ctx.Err(). Outcomes preserve the input tile order.
func runBatches[T any](
	ctx context.Context,
	tiles []domain.Tile,
	batchSize int,
	delay time.Duration,
	fn func(ctx context.Context, t domain.Tile) (T, error),
) []tileOutcome[T] {
	if batchSize < 1 {
		batchSize = 1
	}

	outcomes := make([]tileOutcome[T], len(tiles))
	for i, t := range tiles {
		outcomes[i].tile = t
	}

	for start := 0; start < len(tiles); start += batchSize {
		if err := ctx.Err(); err != nil {
			for i := start; i < len(tiles); i++ {
				outcomes[i].err = err
			}
			return outcomes
		}
		if start > 0 && delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				for i := start; i < len(tiles); i++ {
					outcomes[i].err = ctx.Err()
				}
				return outcomes
			}
		}

		end := start + batchSize
		if end > len(tiles) {
			end = len(tiles)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				outcomes[i].value, outcomes[i].err = fn(ctx, tiles[i])
			}(i)
		}
		wg.Wait()
	}

	return outcomes
}
