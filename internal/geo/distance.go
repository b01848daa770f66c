// Package geo provides great-circle distance calculations.
package geo

import (
	"math"

	"github.com/ukydev/lunch-recommender/internal/models"
)

// EarthRadiusMeters is the mean Earth radius used by Distance.
const EarthRadiusMeters = 6371000.0

// Distance returns the haversine great-circle distance between a and b in meters.
// Inputs are not range-checked.
func Distance(a, b models.Coordinate) float64 {
	lat1 := toRadians(a.Latitude)
	lat2 := toRadians(b.Latitude)
	dLat := toRadians(b.Latitude - a.Latitude)
	dLng := toRadians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusMeters * c
}

// RoundedDistance returns Distance rounded to the nearest whole meter.
func RoundedDistance(a, b models.Coordinate) float64 {
	return math.Round(Distance(a, b))
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
