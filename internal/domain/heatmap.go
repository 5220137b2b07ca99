package domain

import (
	"fmt"
	"time"
)

// LatLng - geographic point in WGS84 degrees
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the point is inside the WGS84 domain.
func (p LatLng) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng > -180 && p.Lng <= 180
}

// Bounds - axis-aligned geographic rectangle. No antimeridian wrap:
// the deployed domain is Poland.
type Bounds struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

// Valid reports whether the rectangle is non-degenerate (south < north, west < east).
func (b Bounds) Valid() bool {
	return b.South < b.North && b.West < b.East
}

// Contains reports whether the point lies inside or on the boundary.
func (b Bounds) Contains(p LatLng) bool {
	return p.Lat >= b.South && p.Lat <= b.North && p.Lng >= b.West && p.Lng <= b.East
}

// Intersects reports whether two rectangles share any area or edge.
func (b Bounds) Intersects(o Bounds) bool {
	return b.South <= o.North && b.North >= o.South && b.West <= o.East && b.East >= o.West
}

// Center returns the geometric center of the rectangle.
func (b Bounds) Center() LatLng {
	return LatLng{
		Lat: (b.North + b.South) / 2,
		Lng: (b.East + b.West) / 2,
	}
}

// Pad grows the rectangle by the given margins in degrees.
func (b Bounds) Pad(latDeg, lngDeg float64) Bounds {
	return Bounds{
		North: b.North + latDeg,
		South: b.South - latDeg,
		East:  b.East + lngDeg,
		West:  b.West - lngDeg,
	}
}

// Tile - slippy-map tile address (web-Mercator XYZ scheme).
type Tile struct {
	Z int `json:"z"`
	X int `json:"x"`
	Y int `json:"y"`
}

func (t Tile) String() string {
	return fmt.Sprintf("%d/%d/%d", t.Z, t.X, t.Y)
}

// Factor - a named scoring criterion. Weight sign carries the polarity:
// positive weights reward proximity, negative weights penalize it.
// Weight 0 or Enabled=false excludes the factor from scoring.
type Factor struct {
	ID          string   `json:"id"`
	Weight      int      `json:"weight"`
	MaxDistance float64  `json:"maxDistance"` // meters, truncation horizon
	Enabled     bool     `json:"enabled"`
	OSMTags     []string `json:"osmTags,omitempty"`
}

// Contributing reports whether the factor participates in scoring.
func (f Factor) Contributing() bool {
	return f.Enabled && f.Weight != 0
}

// StoreTags returns the factor_id values this factor reads from the POI
// store: its OSM tags when configured, otherwise its own id. The extraction
// pipeline materializes one osm_pois row per matched tag, so a multi-tag
// factor is the union of its tags' rows.
func (f Factor) StoreTags() []string {
	if len(f.OSMTags) > 0 {
		return f.OSMTags
	}
	return []string{f.ID}
}

// POI - a point of interest materialized for one factor. The same OSM
// feature may appear once per factor it matches; duplicates are expected.
type POI struct {
	ID       int64   `json:"id"`
	FactorID string  `json:"factorId"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Name     string  `json:"name,omitempty"`
}

// DistanceCurve - tagged variant of the distance transform. Unknown tags
// are refused at the boundary.
type DistanceCurve string

const (
	CurveLinear DistanceCurve = "linear"
	CurveLog    DistanceCurve = "log"
	CurveExp    DistanceCurve = "exp"
	CurvePower  DistanceCurve = "power"
)

// ParseDistanceCurve validates a wire-format curve tag.
func ParseDistanceCurve(s string) (DistanceCurve, error) {
	switch DistanceCurve(s) {
	case CurveLinear, CurveLog, CurveExp, CurvePower:
		return DistanceCurve(s), nil
	}
	return "", fmt.Errorf("unknown distance curve %q", s)
}

// ScoringParams - kernel parameters shared by every point of a request.
type ScoringParams struct {
	DistanceCurve       DistanceCurve `json:"distanceCurve"`
	Sensitivity         float64       `json:"sensitivity"`
	Lambda              float64       `json:"lambda"`
	NormalizeToViewport bool          `json:"normalizeToViewport"`
}

// HeatmapPoint - one grid sample. Value is the aggregate K in [0,1],
// 0 best, 1 worst.
type HeatmapPoint struct {
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Value float64 `json:"value"`
}

// TileResult - computed heatmap for one tile. Points enumerate the grid in
// row-major order: south-to-north by row, west-to-east within a row.
type TileResult struct {
	Coords            Tile           `json:"coordinates"`
	Points            []HeatmapPoint `json:"points"`
	FactorWeights     map[string]int `json:"factorWeights"`
	GeneratedAt       time.Time      `json:"generatedAt"`
	SourceFingerprint []byte         `json:"-"`
}

// FactorScore - per-factor detail retained for popup breakdowns.
type FactorScore struct {
	FactorID          string  `json:"factorId"`
	Weight            int     `json:"weight"`
	Distance          float64 `json:"distance"`    // meters; +Inf encoded as -1 on the wire
	MaxDistance       float64 `json:"maxDistance"` // meters
	Score             float64 `json:"score"`       // per-factor value in [0,1]
	IsNegative        bool    `json:"isNegative"`
	Contribution      float64 `json:"contribution"` // |w|·v^p
	EffectiveExponent float64 `json:"effectiveExponent"`
	NoPOIs            bool    `json:"noPOIs"`
	NearbyCount       int     `json:"nearbyCount"`
}

// FactorBreakdown - aggregate K plus per-factor details at a single point,
// sorted by descending |contribution|.
type FactorBreakdown struct {
	Point   LatLng        `json:"point"`
	K       float64       `json:"k"`
	Factors []FactorScore `json:"factors"`
}
