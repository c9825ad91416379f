package matching

import "math"

const earthRadiusKm = 6371.0

// DistanceKm returns the great-circle distance between two points (Haversine).
func DistanceKm(a, b GeoPoint) float64 {
	dLat := toRadians(b.Lat - a.Lat)
	dLng := toRadians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(a.Lat))*math.Cos(toRadians(b.Lat))*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	// Rounding can push h just past 1 for antipodal points.
	c := 2 * math.Asin(math.Sqrt(math.Min(1, h)))

	return earthRadiusKm * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
