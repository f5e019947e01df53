package geo

import (
	"math"

	"github.com/tbourn/go-leads-backend/internal/domain"
)

// EarthRadiusKm is the mean Earth radius used by the haversine formula.
const EarthRadiusKm = 6371.0

// DistanceKm returns the great-circle distance between two points given in
// decimal degrees. Inputs are not range-checked.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	const rad = math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLon := (lon2 - lon1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadiusKm * math.Asin(math.Min(1, math.Sqrt(a)))
}

// Distance is DistanceKm over coordinate values.
func Distance(a, b domain.Coordinates) float64 {
	return DistanceKm(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
}

// WithinRadius reports whether b lies within radiusKm of a (inclusive).
func WithinRadius(a, b domain.Coordinates, radiusKm float64) bool {
	return Distance(a, b) <= radiusKm
}
