package dto

import (
	"time"

	"github.com/heatmap-service/internal/domain"
)

// TileRef - wire form of a tile address.
type TileRef struct {
	Z int `json:"z" validate:"min=0,max=18"`
	X int `json:"x" validate:"min=0"`
	Y int `json:"y" validate:"min=0"`
}

func (t TileRef) ToDomain() domain.Tile {
	return domain.Tile{Z: t.Z, X: t.X, Y: t.Y}
}

func TileRefFromDomain(t domain.Tile) TileRef {
	return TileRef{Z: t.Z, X: t.X, Y: t.Y}
}

// BoundsInput - wire form of a viewport rectangle.
type BoundsInput struct {
	North float64 `json:"north" validate:"min=-90,max=90"`
	South float64 `json:"south" validate:"min=-90,max=90"`
	East  float64 `json:"east" validate:"min=-180,max=180"`
	West  float64 `json:"west" validate:"min=-180,max=180"`
}

func (b BoundsInput) ToDomain() domain.Bounds {
	return domain.Bounds{North: b.North, South: b.South, East: b.East, West: b.West}
}

// FactorInput - wire form of a scoring factor.
type FactorInput struct {
	ID          string   `json:"id" validate:"required"`
	Weight      int      `json:"weight" validate:"min=-100,max=100"`
	MaxDistance float64  `json:"maxDistance" validate:"gt=0"`
	Enabled     bool     `json:"enabled"`
	OSMTags     []string `json:"osmTags,omitempty"`
}

func (f FactorInput) ToDomain() domain.Factor {
	return domain.Factor{
		ID:          f.ID,
		Weight:      f.Weight,
		MaxDistance: f.MaxDistance,
		Enabled:     f.Enabled,
		OSMTags:     f.OSMTags,
	}
}

// ScoringParamsInput - wire form of the kernel parameters. DistanceCurve is
// a string-tagged union; unknown tags are refused during conversion.
type ScoringParamsInput struct {
	DistanceCurve       string  `json:"distanceCurve" validate:"required"`
	Sensitivity         float64 `json:"sensitivity" validate:"min=0.1,max=10"`
	Lambda              float64 `json:"lambda"`
	NormalizeToViewport bool    `json:"normalizeToViewport"`
}

func (p ScoringParamsInput) ToDomain() (domain.ScoringParams, error) {
	curve, err := domain.ParseDistanceCurve(p.DistanceCurve)
	if err != nil {
		return domain.ScoringParams{}, err
	}
	return domain.ScoringParams{
		DistanceCurve:       curve,
		Sensitivity:         p.Sensitivity,
		Lambda:              p.Lambda,
		NormalizeToViewport: p.NormalizeToViewport,
	}, nil
}

// ConvertFactors maps factor inputs to domain factors.
func ConvertFactors(in []FactorInput) []domain.Factor {
	out := make([]domain.Factor, 0, len(in))
	for _, f := range in {
		out = append(out, f.ToDomain())
	}
	return out
}

// HeatmapTileRequest - POST /api/heatmap-tile body.
type HeatmapTileRequest struct {
	Tile                TileRef            `json:"tile"`
	Factors             []FactorInput      `json:"factors" validate:"required,min=1,dive"`
	ScoringParams       ScoringParamsInput `json:"scoringParams"`
	GridSize            *float64           `json:"gridSize,omitempty" validate:"omitempty,gt=0"`
	NormalizeToViewport *bool              `json:"normalizeToViewport,omitempty"`
}

// HeatmapTileResponse - one computed tile on the wire.
type HeatmapTileResponse struct {
	Coordinates   TileRef               `json:"coordinates"`
	Points        []domain.HeatmapPoint `json:"points"`
	FactorWeights map[string]int        `json:"factorWeights"`
	GeneratedAt   time.Time             `json:"generatedAt"`
}

func TileResponseFromDomain(r *domain.TileResult) HeatmapTileResponse {
	return HeatmapTileResponse{
		Coordinates:   TileRefFromDomain(r.Coords),
		Points:        r.Points,
		FactorWeights: r.FactorWeights,
		GeneratedAt:   r.GeneratedAt,
	}
}

// HeatmapViewportRequest - POST /api/heatmap-viewport body.
type HeatmapViewportRequest struct {
	Bounds        BoundsInput        `json:"bounds"`
	Zoom          int                `json:"zoom" validate:"min=0,max=18"`
	Factors       []FactorInput      `json:"factors" validate:"required,min=1,dive"`
	ScoringParams ScoringParamsInput `json:"scoringParams"`
	TileRadius    int                `json:"tileRadius" validate:"min=0,max=5"`
}

// TileError - per-tile failure marker inside a batch response.
type TileError struct {
	Coords TileRef `json:"coords"`
	Error  string  `json:"error"`
}

// HeatmapViewportResponse - the viewport batch result. Tiles is the
// manifest: it lists exactly the tiles whose points appear in Results, in
// the same order.
type HeatmapViewportResponse struct {
	Tiles   []TileRef             `json:"tiles"`
	Results []HeatmapTileResponse `json:"results"`
	Errors  []TileError           `json:"errors,omitempty"`
}
