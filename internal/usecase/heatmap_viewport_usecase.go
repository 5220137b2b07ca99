package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/heatmap-service/internal/config"
	"github.com/heatmap-service/internal/domain"
	pkgerrors "github.com/heatmap-service/internal/pkg/errors"
	"github.com/heatmap-service/internal/pkg/geo"
	"github.com/heatmap-service/internal/usecase/dto"
)

// HeatmapViewportUseCase is the request coordinator for the heatmap
// pipeline: it covers the viewport with tiles, expands the cover with
// context tiles for prefetching, and fans the work out in throttled
// batches.
type HeatmapViewportUseCase struct {
	tiles  *HeatmapTileUseCase
	cfg    config.HeatmapConfig
	logger *zap.Logger
}

func NewHeatmapViewportUseCase(tiles *HeatmapTileUseCase, cfg config.HeatmapConfig, logger *zap.Logger) *HeatmapViewportUseCase {
	return &HeatmapViewportUseCase{
		tiles:  tiles,
		cfg:    cfg,
		logger: logger,
	}
}

// GetViewport computes the heatmap tiles covering bounds. Viewport tiles
// are dispatched before context tiles; context tiles only warm the cache
// and never appear in the response. Per-tile failures surface as markers so
// the client can render the tiles that did succeed.
func (uc *HeatmapViewportUseCase) GetViewport(
	ctx context.Context,
	bounds domain.Bounds,
	clientZoom int,
	factors []domain.Factor,
	params domain.ScoringParams,
	tileRadius int,
) (*dto.HeatmapViewportResponse, error) {
	if !bounds.Valid() {
		return nil, pkgerrors.ErrInvalidBounds
	}

	viewport := geo.BoundsToTiles(bounds, uc.tiles.TileZoom())
	if len(viewport) > uc.cfg.MaxViewportTiles {
		return nil, pkgerrors.ErrViewportTooLarge.WithDetails(map[string]interface{}{
			"observed": len(viewport),
			"max":      uc.cfg.MaxViewportTiles,
		})
	}

	// Shrink the prefetch radius until the total cover fits the budget. The
	// viewport itself always fits: it passed the check above and the budget
	// is at least as large.
	all := viewport
	for r := tileRadius; r >= 0; r-- {
		expanded := geo.ExpandByRadius(viewport, r)
		if len(expanded) <= uc.cfg.MaxTotalTiles {
			all = expanded
			break
		}
	}

	gridSize := geo.GridSizeForZoom(clientZoom)

	start := time.Now()
	outcomes := runBatches(ctx, all, uc.cfg.BatchSize, uc.cfg.BatchDelay,
		func(ctx context.Context, t domain.Tile) (*domain.TileResult, error) {
			return uc.tiles.GetTile(ctx, t, factors, params, gridSize)
		})

	resp := &dto.HeatmapViewportResponse{
		Tiles:   make([]dto.TileRef, 0, len(viewport)),
		Results: make([]dto.HeatmapTileResponse, 0, len(viewport)),
	}

	// Context tiles sit past the viewport prefix of the expanded cover.
	failed := 0
	for _, out := range outcomes[:len(viewport)] {
		if out.err != nil {
			failed++
			resp.Errors = append(resp.Errors, dto.TileError{
				Coords: dto.TileRefFromDomain(out.tile),
				Error:  out.err.Error(),
			})
			continue
		}
		resp.Tiles = append(resp.Tiles, dto.TileRefFromDomain(out.tile))
		resp.Results = append(resp.Results, dto.TileResponseFromDomain(out.value))
	}

	if failed == len(viewport) {
		// Nothing renderable; promote the first tile failure to the caller.
		first := outcomes[0].err
		uc.logger.Error("All viewport tiles failed",
			zap.Int("tiles", len(viewport)), zap.Error(first))
		return nil, first
	}

	uc.logger.Info("Viewport served",
		zap.Int("viewportTiles", len(viewport)),
		zap.Int("contextTiles", len(all)-len(viewport)),
		zap.Int("failed", failed),
		zap.Duration("took", time.Since(start)))

	return resp, nil
}
