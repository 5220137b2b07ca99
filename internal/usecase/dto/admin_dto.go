package dto

// PrewarmRequest - POST /api/admin/prewarm body. Computes and caches the
// tile cover of bounds ahead of user traffic.
type PrewarmRequest struct {
	Bounds        BoundsInput        `json:"bounds"`
	Factors       []FactorInput      `json:"factors" validate:"required,min=1,dive"`
	ScoringParams ScoringParamsInput `json:"scoringParams"`
	TileRadius    int                `json:"tileRadius" validate:"min=0,max=5"`
}

// PrewarmResponse reports how many tiles were warmed.
type PrewarmResponse struct {
	Requested int         `json:"requested"`
	Warmed    int         `json:"warmed"`
	Errors    []TileError `json:"errors,omitempty"`
}
