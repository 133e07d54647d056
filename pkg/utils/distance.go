// Package utils provides shared helpers used across the application.
package utils

import (
	"math"
)

const (
	// EarthRadiusM is the mean Earth radius (6371 km) used by the
	// great-circle distance calculation.
	EarthRadiusM = 6371000.0
)

// HaversineDistance returns the great-circle distance between two points in
// meters. This is the exact post-filter applied after the coarse geohash
// range queries: the ranges cover a superset of the search disc, haversine
// removes the corners.
func HaversineDistance(lat1, lng1, lat2, lng2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLng := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLng/2)*math.Sin(deltaLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusM * c
}
