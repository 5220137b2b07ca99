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

// PrewarmUseCase computes and caches the tile cover of an area ahead of
// user traffic. Admin-only; the prewarm budget is the total-tiles cap, not
// the viewport cap, so an operator can warm a whole district in one call.
type PrewarmUseCase struct {
	tiles  *HeatmapTileUseCase
	cfg    config.HeatmapConfig
	logger *zap.Logger
}

func NewPrewarmUseCase(tiles *HeatmapTileUseCase, cfg config.HeatmapConfig, logger *zap.Logger) *PrewarmUseCase {
	return &PrewarmUseCase{tiles: tiles, cfg: cfg, logger: logger}
}

// Prewarm builds every tile in the expanded cover of bounds. Per-tile
// failures are reported but do not abort the run.
func (uc *PrewarmUseCase) Prewarm(
	ctx context.Context,
	bounds domain.Bounds,
	factors []domain.Factor,
	params domain.ScoringParams,
	tileRadius int,
) (*dto.PrewarmResponse, error) {
	if !bounds.Valid() {
		return nil, pkgerrors.ErrInvalidBounds
	}

	cover := geo.BoundsToTiles(bounds, uc.tiles.TileZoom())
	if len(cover) > uc.cfg.MaxTotalTiles {
		return nil, pkgerrors.ErrViewportTooLarge.WithDetails(map[string]interface{}{
			"observed": len(cover),
			"max":      uc.cfg.MaxTotalTiles,
		})
	}

	all := cover
	for r := tileRadius; r >= 0; r-- {
		expanded := geo.ExpandByRadius(cover, r)
		if len(expanded) <= uc.cfg.MaxTotalTiles {
			all = expanded
			break
		}
	}

	gridSize := geo.GridSizeForZoom(uc.tiles.TileZoom())

	start := time.Now()
	outcomes := runBatches(ctx, all, uc.cfg.BatchSize, uc.cfg.BatchDelay,
		func(ctx context.Context, t domain.Tile) (*domain.TileResult, error) {
			return uc.tiles.GetTile(ctx, t, factors, params, gridSize)
		})

	resp := &dto.PrewarmResponse{Requested: len(all)}
	for _, out := range outcomes {
		if out.err != nil {
			resp.Errors = append(resp.Errors, dto.TileError{
				Coords: dto.TileRefFromDomain(out.tile),
				Error:  out.err.Error(),
			})
			continue
		}
		resp.Warmed++
	}

	uc.logger.Info("Prewarm finished",
		zap.Int("requested", resp.Requested),
		zap.Int("warmed", resp.Warmed),
		zap.Int("failed", len(resp.Errors)),
		zap.Duration("took", time.Since(start)))

	return resp, nil
}
