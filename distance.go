package huginn

import "math"

const earthRadiusMeters = 6371000.0

// DistanceMeters calculates the great-circle distance in meters between two
// geographic coordinates using the Haversine formula.
func DistanceMeters(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	// Rounding can push a past 1 for near-antipodal points.
	a = math.Min(1, a)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// distanceBetween is DistanceMeters for two Locations.
func distanceBetween(a, b Location) float64 {
	return DistanceMeters(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
}
