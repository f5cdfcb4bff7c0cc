package huginn

import "math"

// metersPerDegreeLat is the length of one degree of latitude on the
// sphere used by DistanceMeters.
const metersPerDegreeLat = earthRadiusMeters * math.Pi / 180

// located builds a located report at an offset in meters north and east of
// the origin point (40.7128, -74.0060).
func located(id string, t IncidentType, north, east float64) Report {
	const originLat, originLon = 40.7128, -74.0060
	lat := originLat + north/metersPerDegreeLat
	lon := originLon + east/(metersPerDegreeLat*math.Cos(originLat*math.Pi/180))
	return Report{
		ID:       id,
		Type:     t,
		Location: &Location{Latitude: lat, Longitude: lon},
	}
}

func approxEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}
