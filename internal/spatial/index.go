// Package spatial implements a uniform-grid bucket index over the POIs of a
// single factor. Build once per evaluation, query many times; the index is
// immutable after construction and safe for concurrent readers.
package spatial

import (
	"math"

	"github.com/heatmap-service/internal/domain"
	"github.com/heatmap-service/internal/pkg/geo"
)

// DefaultCellSizeDeg - bucket edge in latitude degrees (~1.1 km).
const DefaultCellSizeDeg = 0.01

type cellKey struct {
	row int
	col int
}

// Index buckets POIs by (⌊lat/cell⌋, ⌊lng/cell⌋).
type Index struct {
	cellSize float64
	cells    map[cellKey][]domain.POI
	count    int
}

// NewIndex builds an index with the default cell size.
func NewIndex(pois []domain.POI) *Index {
	return NewIndexWithCellSize(pois, DefaultCellSizeDeg)
}

// NewIndexWithCellSize builds an index with an explicit cell size in
// latitude degrees.
func NewIndexWithCellSize(pois []domain.POI, cellSizeDeg float64) *Index {
	if cellSizeDeg <= 0 {
		cellSizeDeg = DefaultCellSizeDeg
	}
	idx := &Index{
		cellSize: cellSizeDeg,
		cells:    make(map[cellKey][]domain.POI),
		count:    len(pois),
	}
	for _, p := range pois {
		k := idx.keyFor(p.Lat, p.Lng)
		idx.cells[k] = append(idx.cells[k], p)
	}
	return idx
}

func (idx *Index) keyFor(lat, lng float64) cellKey {
	return cellKey{
		row: int(math.Floor(lat / idx.cellSize)),
		col: int(math.Floor(lng / idx.cellSize)),
	}
}

// Len returns the number of indexed POIs.
func (idx *Index) Len() int {
	return idx.count
}

// NearestDistance returns the haversine distance in meters from the point
// to the closest indexed POI, or +Inf if nothing lies within cap meters.
//
// The search expands in concentric rings of cells. A ring is only visited
// while its minimum possible distance can still beat both the best distance
// found so far and the cap. The ring floor uses the smaller per-axis cell
// extent: a cell spans fewer meters in longitude than in latitude
// (cos(lat) factor), so the latitude extent alone would overestimate the
// floor and cut off rings whose east/west cells still hold a closer POI.
func (idx *Index) NearestDistance(lat, lng, cap float64) float64 {
	best := math.Inf(1)
	if idx.count == 0 || cap <= 0 {
		return best
	}

	center := idx.keyFor(lat, lng)
	cellMeters := idx.cellSize * math.Min(geo.MetersPerDegreeLat, geo.MetersPerDegreeLng(lat))
	if cellMeters <= 0 {
		cellMeters = idx.cellSize * geo.MetersPerDegreeLat
	}
	maxRing := int(math.Ceil(cap/cellMeters)) + 1

	for ring := 0; ring <= maxRing; ring++ {
		// Lower bound on any distance reachable in this ring.
		ringFloor := float64(ring-1) * cellMeters
		if ring > 0 && (ringFloor > best || ringFloor > cap) {
			break
		}

		for dr := -ring; dr <= ring; dr++ {
			for dc := -ring; dc <= ring; dc++ {
				if max(abs(dr), abs(dc)) != ring {
					continue
				}
				pois := idx.cells[cellKey{row: center.row + dr, col: center.col + dc}]
				for _, p := range pois {
					d := geo.Haversine(lat, lng, p.Lat, p.Lng)
					if d <= cap && d < best {
						best = d
					}
				}
			}
		}
	}

	return best
}

// CountWithinRadius returns the number of indexed POIs within radius meters
// of the point. Candidate cells come from a bounding box; each candidate is
// haversine-filtered.
func (idx *Index) CountWithinRadius(lat, lng, radius float64) int {
	if idx.count == 0 || radius <= 0 {
		return 0
	}

	latMargin := radius / geo.MetersPerDegreeLat
	lngMeters := geo.MetersPerDegreeLng(lat)
	lngMargin := latMargin
	if lngMeters > 0 {
		lngMargin = radius / lngMeters
	}

	minKey := idx.keyFor(lat-latMargin, lng-lngMargin)
	maxKey := idx.keyFor(lat+latMargin, lng+lngMargin)

	count := 0
	for row := minKey.row; row <= maxKey.row; row++ {
		for col := minKey.col; col <= maxKey.col; col++ {
			for _, p := range idx.cells[cellKey{row: row, col: col}] {
				if geo.Haversine(lat, lng, p.Lat, p.Lng) <= radius {
					count++
				}
			}
		}
	}
	return count
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
