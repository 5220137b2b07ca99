package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/heatmap-service/internal/domain"
	"github.com/heatmap-service/internal/domain/repository"
	pkgerrors "github.com/heatmap-service/internal/pkg/errors"
	"github.com/heatmap-service/internal/pkg/geo"
	"github.com/heatmap-service/internal/scoring"
	"github.com/heatmap-service/internal/spatial"
)

// BreakdownUseCase answers "why does this point score the way it does":
// the per-factor contributions behind a single location, for map popups.
// Popups are sparse and uncached; each call fetches a small neighborhood
// around the point.
type BreakdownUseCase struct {
	poiStore repository.POIRepository
	logger   *zap.Logger
}

func NewBreakdownUseCase(poiStore repository.POIRepository, logger *zap.Logger) *BreakdownUseCase {
	return &BreakdownUseCase{poiStore: poiStore, logger: logger}
}

// GetBreakdown computes the factor breakdown at one point.
func (uc *BreakdownUseCase) GetBreakdown(
	ctx context.Context,
	point domain.LatLng,
	factors []domain.Factor,
	params domain.ScoringParams,
) (domain.FactorBreakdown, error) {
	if !point.Valid() {
		return domain.FactorBreakdown{}, pkgerrors.ErrInvalidCoordinates
	}
	if err := scoring.ValidateInputs(factors, params); err != nil {
		return domain.FactorBreakdown{}, pkgerrors.ErrInvalidInput.WithDetails(map[string]interface{}{
			"reason": err.Error(),
		})
	}

	indexes := make(map[string]*spatial.Index)
	for _, f := range factors {
		if !f.Contributing() {
			continue
		}
		bounds := pointBounds(point, f.MaxDistance)
		pois, err := uc.poiStore.FetchPOIs(ctx, f.StoreTags(), bounds)
		if err != nil {
			uc.logger.Error("Breakdown POI fetch failed",
				zap.String("factor", f.ID), zap.Error(err))
			return domain.FactorBreakdown{}, pkgerrors.ErrStoreUnavailable.WithDetails(map[string]interface{}{
				"factor": f.ID,
			})
		}
		indexes[f.ID] = spatial.NewIndex(pois)
	}

	kernel := scoring.NewKernel(factors, indexes, params)
	return kernel.EvaluateBreakdown(point.Lat, point.Lng), nil
}

// pointBounds returns a bbox around the point wide enough to contain every
// POI within radius meters.
func pointBounds(p domain.LatLng, radius float64) domain.Bounds {
	dLat := radius / geo.MetersPerDegreeLat
	dLng := dLat
	if m := geo.MetersPerDegreeLng(p.Lat); m > 0 {
		dLng = radius / m
	}
	b := domain.Bounds{
		North: p.Lat + dLat,
		South: p.Lat - dLat,
		East:  p.Lng + dLng,
		West:  p.Lng - dLng,
	}
	if !b.Valid() {
		// Degenerate only for absurd radii near the poles; fall back to a
		// point box so the fetch still succeeds.
		b = domain.Bounds{North: p.Lat, South: p.Lat, East: p.Lng, West: p.Lng}
	}
	return b
}
