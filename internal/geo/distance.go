// Package geo computes straight-line distances between coordinates.
package geo

import (
	"math"

	"github.com/unclebandit/blood-dispatch/internal/model"
)

// EarthRadiusKm is the mean Earth radius used by Distance.
const EarthRadiusKm = 6371.0

// Distance returns the haversine great-circle distance between a and b in
// kilometres, rounded to two decimals.
func Distance(a, b model.Coordinates) float64 {
	dLat := deg2rad(b.Latitude - a.Latitude)
	dLon := deg2rad(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(deg2rad(a.Latitude))*math.Cos(deg2rad(b.Latitude))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	// rounding can push h just outside [0,1] for antipodal points
	h = math.Min(1, math.Max(0, h))
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return math.Round(EarthRadiusKm*c*100) / 100
}

// BoundingBox returns the min/max latitude and longitude that enclose every
// point within radiusKm of origin. It is a prefilter for SQL lookups; callers
// still need Distance for the exact check. Boxes touching a pole or the
// antimeridian widen to the full longitude range.
func BoundingBox(origin model.Coordinates, radiusKm float64) (minLat, maxLat, minLon, maxLon float64) {
	angular := radiusKm / EarthRadiusKm
	minLat = origin.Latitude - rad2deg(angular)
	maxLat = origin.Latitude + rad2deg(angular)
	if minLat <= -90 || maxLat >= 90 {
		return math.Max(minLat, -90), math.Min(maxLat, 90), -180, 180
	}

	ratio := math.Sin(angular) / math.Cos(deg2rad(origin.Latitude))
	if ratio >= 1 {
		return minLat, maxLat, -180, 180
	}
	lonDelta := rad2deg(math.Asin(ratio))
	minLon, maxLon = origin.Longitude-lonDelta, origin.Longitude+lonDelta
	if minLon < -180 || maxLon > 180 {
		return minLat, maxLat, -180, 180
	}
	return minLat, maxLat, minLon, maxLon
}

func deg2rad(deg float64) float64 { return deg * math.Pi / 180 }

func rad2deg(rad float64) float64 { return rad * 180 / math.Pi }
