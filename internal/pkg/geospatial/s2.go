package geospatial

import (
	"github.com/golang/geo/r1"
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

func toLatLng(p Point) s2.LatLng {
	return s2.LatLngFromDegrees(p.Lat, p.Lon)
}

// DistanceMiles is the great-circle distance between a and b in miles on
// the sphere DiagonalBounds uses.
func DistanceMiles(a, b Point) float64 {
	return toLatLng(a).Distance(toLatLng(b)).Radians() * earthRadiusKm / KmPerMile
}

// rect converts box to an s2.Rect. A box with TopLeft.Lon > BottomRight.Lon
// wraps across the antimeridian.
func rect(box BoundingBox) s2.Rect {
	return s2.Rect{
		Lat: r1.Interval{
			Lo: (s1.Angle(box.BottomRight.Lat) * s1.Degree).Radians(),
			Hi: (s1.Angle(box.TopLeft.Lat) * s1.Degree).Radians(),
		},
		Lng: s1.IntervalFromEndpoints(
			(s1.Angle(box.TopLeft.Lon) * s1.Degree).Radians(),
			(s1.Angle(box.BottomRight.Lon) * s1.Degree).Radians(),
		),
	}
}

// Contains reports whether p falls inside box.
func Contains(box BoundingBox, p Point) bool {
	return rect(box).ContainsLatLng(toLatLng(p))
}
