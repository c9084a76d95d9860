package geo

import (
	"math"
	"math/rand"

	"github.com/mmcloughlin/geohash"
)

const (
	metersPerDegree = 111320.0
	coordPrecision  = 1e6 // round coordinates to 6 decimal places
)

// SampleNear draws a point uniformly distributed by area within a disk of
// maxRadiusKm around (centerLat, centerLon) using the polar method: the
// radius is the square root of a uniform sample so that area, not radius,
// is uniform.
func SampleNear(rng *rand.Rand, centerLat, centerLon, maxRadiusKm float64) (float64, float64) {
	r := maxRadiusKm * 1000 * math.Sqrt(rng.Float64())
	theta := rng.Float64() * 2 * math.Pi
	lat := centerLat + (r*math.Sin(theta))/metersPerDegree
	lon := centerLon + (r*math.Cos(theta))/(metersPerDegree*math.Cos(centerLat*math.Pi/180))
	return round6(lat), round6(lon)
}

// Jitter perturbs a coordinate by up to the given number of meters in each
// axis. Used for mid-trip movement.
func Jitter(rng *rand.Rand, lat, lon, meters float64) (float64, float64) {
	lonMetersPerDeg := metersPerDegree * math.Cos(lat*math.Pi/180)
	dLat := (rng.Float64()*2 - 1) * (meters / metersPerDegree)
	dLon := (rng.Float64()*2 - 1) * (meters / lonMetersPerDeg)
	return round6(lat + dLat), round6(lon + dLon)
}

// BucketKey encodes a coordinate into a geohash of the given precision.
// Nearby points share a key; at precision 6 a cell is roughly 0.6 km wide.
func BucketKey(lat, lon float64, precision uint) string {
	return geohash.EncodeWithPrecision(lat, lon, precision)
}

// DistanceKm returns the haversine distance between two coordinates.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusKm = 6371.0
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func round6(v float64) float64 {
	return math.Round(v*coordPrecision) / coordPrecision
}
