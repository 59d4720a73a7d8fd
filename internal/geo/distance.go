// Package geo holds great-circle helpers shared by the resolver and the stores.
package geo

import "math"

// EarthRadius is the mean Earth radius in meters.
const EarthRadius = 6371000.0

func toRad(deg float64) float64 { return deg * math.Pi / 180 }

// Distance returns the haversine distance in meters between two lat/lng points.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	phi1 := toRad(lat1)
	phi2 := toRad(lat2)
	dPhi := toRad(lat2 - lat1)
	dLambda := toRad(lng2 - lng1)

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadius * c
}

// BoundingBox returns the lat/lng deltas, in degrees, of a box that contains the
// circle of radius meters around lat. Longitude widens toward the poles.
func BoundingBox(lat, meters float64) (dLat, dLng float64) {
	dLat = meters / EarthRadius * 180 / math.Pi
	c := math.Cos(toRad(lat))
	if c < 1e-6 {
		return dLat, 180
	}
	dLng = math.Min(dLat/c, 180)
	return dLat, dLng
}
