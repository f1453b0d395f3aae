package workplace

import "math"

const earthRadiusMetres = 6371000.0

// DistanceMetres is the haversine great-circle distance between a and b.
func DistanceMetres(a, b Location) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMetres * math.Asin(math.Min(1, math.Sqrt(h)))
}

// Contains reports whether loc lies inside the workplace geofence.
func (w Workplace) Contains(loc Location) bool {
	return DistanceMetres(w.Location, loc) <= float64(w.GeofenceRadiusMetres)
}
