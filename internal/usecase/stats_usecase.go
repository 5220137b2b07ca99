package usecase

import (
	"context"

	"github.com/heatmap-service/internal/domain"
	"github.com/heatmap-service/internal/repository/poicache"
	"github.com/heatmap-service/internal/repository/tilecache"
)

// StatsUseCase aggregates service counters for the stats endpoint.
type StatsUseCase struct {
	heatmapCache  *tilecache.Cache[*domain.TileResult]
	propertyCache *tilecache.Cache[*domain.PropertyTileResult]
	poiStore      *poicache.Store
}

func NewStatsUseCase(
	heatmapCache *tilecache.Cache[*domain.TileResult],
	propertyCache *tilecache.Cache[*domain.PropertyTileResult],
	poiStore *poicache.Store,
) *StatsUseCase {
	return &StatsUseCase{
		heatmapCache:  heatmapCache,
		propertyCache: propertyCache,
		poiStore:      poiStore,
	}
}

func (uc *StatsUseCase) GetStatistics(_ context.Context) domain.Statistics {
	return domain.Statistics{
		HeatmapCache:  uc.heatmapCache.Stats(),
		PropertyCache: uc.propertyCache.Stats(),
		POIStore:      uc.poiStore.Stats(),
	}
}

// Health reports readiness of the POI store.
func (uc *StatsUseCase) Health(ctx context.Context) error {
	return uc.poiStore.Health(ctx)
}
