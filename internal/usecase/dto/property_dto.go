package dto

import (
	"time"

	"github.com/heatmap-service/internal/domain"
)

// PropertyFiltersInput - wire form of the listings filter set.
type PropertyFiltersInput struct {
	Transaction string   `json:"transaction,omitempty" validate:"omitempty,oneof=sale rent"`
	EstateTypes []string `json:"estateTypes,omitempty"`
	PriceMin    float64  `json:"priceMin,omitempty" validate:"omitempty,min=0"`
	PriceMax    float64  `json:"priceMax,omitempty" validate:"omitempty,min=0"`
	AreaMin     float64  `json:"areaMin,omitempty" validate:"omitempty,min=0"`
	AreaMax     float64  `json:"areaMax,omitempty" validate:"omitempty,min=0"`
	RoomsMin    int      `json:"roomsMin,omitempty" validate:"omitempty,min=0"`
	RoomsMax    int      `json:"roomsMax,omitempty" validate:"omitempty,min=0"`
}

func (f PropertyFiltersInput) ToDomain() domain.PropertyFilters {
	return domain.PropertyFilters{
		Transaction: domain.TransactionType(f.Transaction),
		EstateTypes: f.EstateTypes,
		PriceMin:    f.PriceMin,
		PriceMax:    f.PriceMax,
		AreaMin:     f.AreaMin,
		AreaMax:     f.AreaMax,
		RoomsMin:    f.RoomsMin,
		RoomsMax:    f.RoomsMax,
	}
}

// PropertyViewportRequest - POST /api/property-viewport body. Factors and
// scoring params are optional: when present, listings carry a
// price-vs-quality analysis computed against the local heatmap.
type PropertyViewportRequest struct {
	Bounds        BoundsInput          `json:"bounds"`
	Filters       PropertyFiltersInput `json:"filters"`
	Sources       []string             `json:"sources" validate:"required,min=1"`
	TileRadius    int                  `json:"tileRadius" validate:"min=0,max=5"`
	Factors       []FactorInput        `json:"factors,omitempty" validate:"omitempty,dive"`
	ScoringParams *ScoringParamsInput  `json:"scoringParams,omitempty"`
}

// PropertyTileResponse - one property tile on the wire.
type PropertyTileResponse struct {
	Coordinates TileRef                  `json:"coordinates"`
	Properties  []domain.EnrichedListing `json:"properties"`
	Clusters    []domain.ListingCluster  `json:"clusters,omitempty"`
	TotalCount  int                      `json:"totalCount"`
	GeneratedAt time.Time                `json:"generatedAt"`
}

// PropertyViewportResponse - the property batch result. Tiles is the
// manifest of succeeded viewport tiles.
type PropertyViewportResponse struct {
	Tiles   []TileRef              `json:"tiles"`
	Results []PropertyTileResponse `json:"results"`
	Errors  []TileError            `json:"errors,omitempty"`
}
