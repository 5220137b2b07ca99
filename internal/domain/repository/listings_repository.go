package repository

import (
	"context"

	"github.com/heatmap-service/internal/domain"
)

// ListingsRepository is the external real-estate listings contract consumed
// by the property tile pipeline.
type ListingsRepository interface {
	// FetchListings returns listings intersecting bounds for the given
	// filters and source set.
	FetchListings(ctx context.Context, bounds domain.Bounds, filters domain.PropertyFilters, sources []string) (*domain.ListingsPage, error)
}
