package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/heatmap-service/internal/domain"
	"github.com/heatmap-service/internal/domain/repository"
	"github.com/heatmap-service/internal/evaluator"
	pkgerrors "github.com/heatmap-service/internal/pkg/errors"
	"github.com/heatmap-service/internal/pkg/geo"
	"github.com/heatmap-service/internal/repository/tilecache"
	"github.com/heatmap-service/internal/scoring"
	"github.com/heatmap-service/internal/spatial"
)

// HeatmapTileUseCase is the tile builder: cover → POI fetch → indexes →
// parallel evaluation → normalization → cached TileResult.
type HeatmapTileUseCase struct {
	poiStore     repository.POIRepository
	cache        *tilecache.Cache[*domain.TileResult]
	eval         *evaluator.Evaluator
	logger       *zap.Logger
	tileZoom     int
	tileDeadline time.Duration
}

func NewHeatmapTileUseCase(
	poiStore repository.POIRepository,
	cache *tilecache.Cache[*domain.TileResult],
	eval *evaluator.Evaluator,
	logger *zap.Logger,
	tileZoom int,
	tileDeadline time.Duration,
) *HeatmapTileUseCase {
	return &HeatmapTileUseCase{
		poiStore:     poiStore,
		cache:        cache,
		eval:         eval,
		logger:       logger,
		tileZoom:     tileZoom,
		tileDeadline: tileDeadline,
	}
}

// TileZoom returns the fixed server-side zoom Z*.
func (uc *HeatmapTileUseCase) TileZoom() int {
	return uc.tileZoom
}

// GetTile returns the heatmap for one tile, from cache or computed. Errors
// are already translated to the service error model.
func (uc *HeatmapTileUseCase) GetTile(
	ctx context.Context,
	tile domain.Tile,
	factors []domain.Factor,
	params domain.ScoringParams,
	gridSize float64,
) (*domain.TileResult, error) {
	if tile.Z != uc.tileZoom {
		return nil, pkgerrors.ErrInvalidZoom.WithDetails(map[string]interface{}{
			"expected": uc.tileZoom,
			"got":      tile.Z,
		})
	}
	n := 1 << uint(tile.Z)
	if tile.X < 0 || tile.X >= n || tile.Y < 0 || tile.Y >= n {
		return nil, pkgerrors.ErrInvalidTileCoordinates
	}
	if err := scoring.ValidateInputs(factors, params); err != nil {
		return nil, pkgerrors.ErrInvalidInput.WithDetails(map[string]interface{}{
			"reason": err.Error(),
		})
	}
	if gridSize <= 0 {
		gridSize = geo.GridSizeForZoom(tile.Z)
	}

	fp := tilecache.HeatmapFingerprint(factors, params, gridSize, tile.Z)

	result, err := uc.cache.GetOrBuild(ctx, tile, fp, func(bctx context.Context) (*domain.TileResult, error) {
		return uc.buildTile(bctx, tile, factors, params, gridSize)
	})
	if err != nil {
		return nil, uc.translateError(tile, err)
	}
	return result, nil
}

// buildTile computes one tile under the per-tile deadline.
func (uc *HeatmapTileUseCase) buildTile(
	ctx context.Context,
	tile domain.Tile,
	factors []domain.Factor,
	params domain.ScoringParams,
	gridSize float64,
) (*domain.TileResult, error) {
	ctx, cancel := context.WithTimeout(ctx, uc.tileDeadline)
	defer cancel()

	start := time.Now()
	bounds := geo.TileToBounds(tile)

	// Pad the POI fetch so edge points see neighbors outside the tile.
	maxDist := 0.0
	for _, f := range factors {
		if f.Contributing() && f.MaxDistance > maxDist {
			maxDist = f.MaxDistance
		}
	}
	padLat := maxDist / geo.MetersPerDegreeLat
	padLng := padLat
	if m := geo.MetersPerDegreeLng(bounds.Center().Lat); m > 0 {
		padLng = maxDist / m
	}
	fetchBounds := bounds.Pad(padLat, padLng)

	indexes := make(map[string]*spatial.Index)
	for _, f := range factors {
		if !f.Contributing() {
			continue
		}
		pois, err := uc.poiStore.FetchPOIs(ctx, f.StoreTags(), fetchBounds)
		if err != nil {
			return nil, fmt.Errorf("load pois for factor %s: %w", f.ID, err)
		}
		indexes[f.ID] = spatial.NewIndex(pois)
	}

	points := buildGrid(bounds, gridSize)
	kernel := scoring.NewKernel(factors, indexes, params)

	values, err := uc.eval.Evaluate(ctx, kernel, points)
	if err != nil {
		return nil, err
	}

	if params.NormalizeToViewport {
		scoring.NormalizeValues(values)
	}

	heatPoints := make([]domain.HeatmapPoint, len(points))
	for i, p := range points {
		heatPoints[i] = domain.HeatmapPoint{Lat: p.Lat, Lng: p.Lng, Value: values[i]}
	}

	weights := make(map[string]int)
	for _, f := range factors {
		if f.Contributing() {
			weights[f.ID] = f.Weight
		}
	}

	uc.logger.Debug("Tile built",
		zap.String("tile", tile.String()),
		zap.Int("points", len(heatPoints)),
		zap.Duration("took", time.Since(start)))

	return &domain.TileResult{
		Coords:            tile,
		Points:            heatPoints,
		FactorWeights:     weights,
		GeneratedAt:       time.Now().UTC(),
		SourceFingerprint: tilecache.HeatmapFingerprintBytes(factors, params, gridSize, tile.Z),
	}, nil
}

// buildGrid samples the tile at cell centers in row-major order,
// south-to-north by row, west-to-east within a row. The physical cell is
// approximately gridSize meters at the tile-center latitude.
func buildGrid(bounds domain.Bounds, gridSize float64) []evaluator.GridPoint {
	center := bounds.Center()
	dLat := gridSize / geo.MetersPerDegreeLat
	dLng := dLat
	if m := geo.MetersPerDegreeLng(center.Lat); m > 0 {
		dLng = gridSize / m
	}

	rows := int(math.Ceil((bounds.North - bounds.South) / dLat))
	cols := int(math.Ceil((bounds.East - bounds.West) / dLng))
	if rows < 1 {
		rows = 1
	}
	if cols < 1 {
		cols = 1
	}

	points := make([]evaluator.GridPoint, 0, rows*cols)
	for r := 0; r < rows; r++ {
		lat := bounds.South + (float64(r)+0.5)*dLat
		for c := 0; c < cols; c++ {
			lng := bounds.West + (float64(c)+0.5)*dLng
			points = append(points, evaluator.GridPoint{Lat: lat, Lng: lng})
		}
	}
	return points
}

// translateError maps build failures onto the service error model.
func (uc *HeatmapTileUseCase) translateError(tile domain.Tile, err error) error {
	var appErr *pkgerrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		uc.logger.Warn("Tile build exceeded deadline", zap.String("tile", tile.String()))
		return pkgerrors.ErrTileDeadline.WithDetails(map[string]interface{}{
			"tile": tile.String(),
		})
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	uc.logger.Error("Tile build failed", zap.String("tile", tile.String()), zap.Error(err))
	return pkgerrors.ErrStoreUnavailable.WithDetails(map[string]interface{}{
		"tile": tile.String(),
	})
}
