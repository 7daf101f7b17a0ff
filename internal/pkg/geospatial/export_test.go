package geospatial

import "math"

// HaversineMiles is an independent great-circle distance used to check
// DiagonalBounds and DistanceMiles.
func HaversineMiles(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a)) * earthRadiusKm / KmPerMile
}

// Midpoint returns the point halfway along the great circle between a and b.
func Midpoint(a, b Point) Point {
	φ1, λ1 := toRad(a.Lat), toRad(a.Lon)
	φ2 := toRad(b.Lat)
	Δλ := toRad(b.Lon - a.Lon)

	bx := math.Cos(φ2) * math.Cos(Δλ)
	by := math.Cos(φ2) * math.Sin(Δλ)

	φ3 := math.Atan2(math.Sin(φ1)+math.Sin(φ2), math.Sqrt((math.Cos(φ1)+bx)*(math.Cos(φ1)+bx)+by*by))
	λ3 := λ1 + math.Atan2(by, math.Cos(φ1)+bx)

	return Point{Lat: toDeg(φ3), Lon: NormalizeLon(toDeg(λ3))}
}
