package geo

import "math"

// EarthRadiusMeters is the mean Earth radius used by every distance calculation.
const EarthRadiusMeters = 6371000.0

// DistanceMeters returns the great-circle distance between two points using the
// Haversine formula. Inputs are degrees; out-of-range values are not checked.
func DistanceMeters(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	a := sinLat*sinLat + math.Cos(radians(lat1))*math.Cos(radians(lat2))*sinLon*sinLon
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}

// HaversineKm is DistanceMeters in kilometres.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	return DistanceMeters(lat1, lon1, lat2, lon2) / 1000
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
