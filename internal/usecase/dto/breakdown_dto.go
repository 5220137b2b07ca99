package dto

import "github.com/heatmap-service/internal/domain"

// PointInput - a single popup location.
type PointInput struct {
	Lat float64 `json:"lat" validate:"min=-90,max=90"`
	Lng float64 `json:"lng" validate:"min=-180,max=180"`
}

// FactorBreakdownRequest - POST /api/factor-breakdown body.
type FactorBreakdownRequest struct {
	Point         PointInput         `json:"point"`
	Factors       []FactorInput      `json:"factors" validate:"required,min=1,dive"`
	ScoringParams ScoringParamsInput `json:"scoringParams"`
}

// FactorBreakdownResponse - per-factor contributions at one point.
type FactorBreakdownResponse struct {
	Breakdown domain.FactorBreakdown `json:"breakdown"`
}
