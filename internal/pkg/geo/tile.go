package geo

import (
	"math"

	"github.com/heatmap-service/internal/domain"
)

// MaxLatitude - web-Mercator latitude limit (~85.0511°).
const MaxLatitude = 85.05112878

// Grid sizing policy: the physical grid cell shrinks as the client zooms
// in, clamped to a sane range.
const (
	BaseGridMeters = 200.0
	GridZoomBase   = 10
	MinGridMeters  = 50.0
	MaxGridMeters  = 300.0
)

// TileToBounds returns the geographic bounds of an XYZ tile. The math is
// the standard slippy-map inverse so adjacent tiles stitch without gaps.
func TileToBounds(t domain.Tile) domain.Bounds {
	n := float64(int(1) << uint(t.Z))
	return domain.Bounds{
		West:  float64(t.X)/n*360.0 - 180.0,
		East:  float64(t.X+1)/n*360.0 - 180.0,
		North: tileYToLat(float64(t.Y), n),
		South: tileYToLat(float64(t.Y+1), n),
	}
}

func tileYToLat(y, n float64) float64 {
	latRad := math.Atan(math.Sinh(math.Pi * (1.0 - 2.0*y/n)))
	return latRad * 180.0 / math.Pi
}

// LatLngToTile returns the tile containing the point at the given zoom.
// Latitude is clamped to the Mercator domain.
func LatLngToTile(lat, lng float64, z int) domain.Tile {
	if lat > MaxLatitude {
		lat = MaxLatitude
	}
	if lat < -MaxLatitude {
		lat = -MaxLatitude
	}

	n := int(1) << uint(z)
	nf := float64(n)

	x := int(math.Floor((lng + 180.0) / 360.0 * nf))

	latRad := lat * math.Pi / 180.0
	merc := math.Log(math.Tan(latRad) + 1.0/math.Cos(latRad))
	y := int(math.Floor((1.0 - merc/math.Pi) / 2.0 * nf))

	// Clamp to the valid range; lng=180 and lat=-MaxLatitude land exactly on
	// the far edge.
	if x >= n {
		x = n - 1
	}
	if x < 0 {
		x = 0
	}
	if y >= n {
		y = n - 1
	}
	if y < 0 {
		y = 0
	}

	return domain.Tile{Z: z, X: x, Y: y}
}

// BoundsToTiles returns the rectangular tile cover of bounds at zoom z.
// Tiles touching the boundary are included. Order is row-major from the
// north-west corner.
func BoundsToTiles(b domain.Bounds, z int) []domain.Tile {
	nw := LatLngToTile(b.North, b.West, z)
	se := LatLngToTile(b.South, b.East, z)

	tiles := make([]domain.Tile, 0, (se.X-nw.X+1)*(se.Y-nw.Y+1))
	for y := nw.Y; y <= se.Y; y++ {
		for x := nw.X; x <= se.X; x++ {
			tiles = append(tiles, domain.Tile{Z: z, X: x, Y: y})
		}
	}
	return tiles
}

// ExpandByRadius returns tiles plus every tile within a Chebyshev distance
// of r. The input tiles come first, in their original order; added context
// tiles follow in deterministic ring order. r <= 0 returns the input as-is.
func ExpandByRadius(tiles []domain.Tile, r int) []domain.Tile {
	if r <= 0 || len(tiles) == 0 {
		return tiles
	}

	seen := make(map[domain.Tile]struct{}, len(tiles)*(2*r+1)*(2*r+1))
	out := make([]domain.Tile, 0, len(tiles)*(2*r+1)*(2*r+1))
	for _, t := range tiles {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}

	n := int(1) << uint(tiles[0].Z)
	for ring := 1; ring <= r; ring++ {
		for _, t := range tiles {
			for dy := -ring; dy <= ring; dy++ {
				for dx := -ring; dx <= ring; dx++ {
					if max(abs(dx), abs(dy)) != ring {
						continue
					}
					nb := domain.Tile{Z: t.Z, X: t.X + dx, Y: t.Y + dy}
					if nb.X < 0 || nb.X >= n || nb.Y < 0 || nb.Y >= n {
						continue
					}
					if _, ok := seen[nb]; ok {
						continue
					}
					seen[nb] = struct{}{}
					out = append(out, nb)
				}
			}
		}
	}
	return out
}

// GridSizeForZoom returns the heatmap cell size in meters for a client
// zoom level.
func GridSizeForZoom(z int) float64 {
	size := BaseGridMeters / math.Pow(2, float64(z-GridZoomBase))
	if size < MinGridMeters {
		return MinGridMeters
	}
	if size > MaxGridMeters {
		return MaxGridMeters
	}
	return size
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
