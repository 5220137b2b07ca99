package repository

import (
	"context"

	"github.com/heatmap-service/internal/domain"
)

// POIRepository provides access to the osm_pois table. Implementations must
// treat returned slices as immutable once handed out: they are shared by
// reference between the adapter cache, tile builders, and spatial indexes.
type POIRepository interface {
	// FetchPOIs returns all POIs whose factor_id is in factorTags and whose
	// geometry intersects bounds. Callers pass one factor's tag set per
	// call (Factor.StoreTags).
	FetchPOIs(ctx context.Context, factorTags []string, bounds domain.Bounds) ([]domain.POI, error)

	// Health checks the backing store.
	Health(ctx context.Context) error
}
