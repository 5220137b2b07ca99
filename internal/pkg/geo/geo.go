package geo

import "math"

// Shared geodesic constants. These are referenced by the spatial index, the
// scoring kernel, and the tile builder; keep them in one place.
const (
	// EarthRadiusM - mean Earth radius used by the haversine formula.
	EarthRadiusM = 6_371_000.0

	// MetersPerDegreeLat - single-value approximation, sufficient for the
	// deployed domain (Poland, ~49-55°N).
	MetersPerDegreeLat = 111_320.0
)

// Haversine returns the great-circle distance between two points in meters.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180.0
	dLng := (lng2 - lng1) * math.Pi / 180.0

	lat1Rad := lat1 * math.Pi / 180.0
	lat2Rad := lat2 * math.Pi / 180.0

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLng/2)*math.Sin(dLng/2)*math.Cos(lat1Rad)*math.Cos(lat2Rad)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusM * c
}

// MetersPerDegreeLng returns the east-west length of one longitude degree
// at the given latitude.
func MetersPerDegreeLng(lat float64) float64 {
	return math.Cos(lat*math.Pi/180.0) * MetersPerDegreeLat
}
