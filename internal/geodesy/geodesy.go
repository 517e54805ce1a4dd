// Package geodesy provides spherical-Earth coordinate math: bearings,
// destination points, and great-circle distances.
package geodesy

import "math"

// EarthRadiusM is the mean Earth radius in meters shared by all primitives.
const EarthRadiusM = 6371000.0

// Point is a geographic coordinate in WGS84 degrees.
type Point struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

// InitialBearing returns the forward azimuth from a to b in degrees,
// normalized to [0, 360). Coincident points yield 0.
func InitialBearing(a, b Point) float64 {
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dLng := radians(b.Lng - a.Lng)

	y := math.Sin(dLng) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLng)
	if y == 0 && x == 0 {
		return 0
	}

	deg := degrees(math.Atan2(y, x))
	return math.Mod(deg+360, 360)
}

// Destination returns the point reached by traveling distanceM meters from
// start along the given bearing on a great circle.
func Destination(start Point, bearingDeg, distanceM float64) Point {
	lat1 := radians(start.Lat)
	lng1 := radians(start.Lng)
	brng := radians(bearingDeg)
	delta := distanceM / EarthRadiusM

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(delta) +
		math.Cos(lat1)*math.Sin(delta)*math.Cos(brng))
	lng2 := lng1 + math.Atan2(
		math.Sin(brng)*math.Sin(delta)*math.Cos(lat1),
		math.Cos(delta)-math.Sin(lat1)*math.Sin(lat2),
	)

	return Point{
		Lng: normalizeLng(degrees(lng2)),
		Lat: degrees(lat2),
	}
}

// Distance returns the haversine great-circle distance between a and b in meters.
func Distance(a, b Point) float64 {
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dLat := radians(b.Lat - a.Lat)
	dLng := radians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * EarthRadiusM * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// normalizeLng wraps a longitude into [-180, 180).
func normalizeLng(lng float64) float64 {
	lng = math.Mod(lng+540, 360)
	return lng - 180
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

func degrees(rad float64) float64 { return rad * 180 / math.Pi }
