// Package geospatial holds the spherical-Earth geometry used by the
// "pets near me" search.
package geospatial

import (
	"fmt"
	"math"

	"github.com/samirrijal/pawmatch/internal/core/domain"
)

const (
	earthRadiusKm = 6371.0
	// KmPerMile converts statute miles to kilometres.
	KmPerMile = 1.60934

	// DefaultDiagonalMiles is the box diagonal used when none is requested.
	DefaultDiagonalMiles = 10.0
	// MaxDiagonalMiles is half the Earth's circumference. Beyond it the
	// corners pass the antipode and swap hemispheres.
	MaxDiagonalMiles = math.Pi * earthRadiusKm / KmPerMile
)

const (
	bearingNorthWest = 315.0
	bearingSouthEast = 135.0
)

// ErrInvalidArgument is returned for non-finite, out-of-range or
// non-positive inputs. It is domain.ErrInvalidArgument.
var ErrInvalidArgument = domain.ErrInvalidArgument

// Point is a coordinate in degrees.
type Point = domain.GeoPoint

// BoundingBox is a northwest/southeast corner pair.
type BoundingBox = domain.BoundingBox

// DiagonalBounds returns the northwest (top-left) and southeast
// (bottom-right) corners of the box centred on (lat, lon) whose diagonal is
// diagonalMiles long. The box is a square in angular terms with side
// diagonal/√2; its corners lie on the great circle through the centre along
// bearings 315° and 135°, half a diagonal away, so the corner-to-corner
// great-circle distance is exactly diagonalMiles.
//
// Longitudes are normalized into [-180, 180]; a box that straddles the
// antimeridian therefore has TopLeft.Lon > BottomRight.Lon.
func DiagonalBounds(lat, lon, diagonalMiles float64) (BoundingBox, error) {
	if err := validate(lat, lon, diagonalMiles); err != nil {
		return BoundingBox{}, err
	}

	diagonalKm := diagonalMiles * KmPerMile
	angular := diagonalKm / earthRadiusKm
	halfDiagonal := angular / 2

	center := Point{Lat: lat, Lon: lon}
	return BoundingBox{
		TopLeft:     Destination(center, bearingNorthWest, halfDiagonal),
		BottomRight: Destination(center, bearingSouthEast, halfDiagonal),
	}, nil
}

// DiagonalBoundsDefault is DiagonalBounds with DefaultDiagonalMiles.
func DiagonalBoundsDefault(lat, lon float64) (BoundingBox, error) {
	return DiagonalBounds(lat, lon, DefaultDiagonalMiles)
}

// Destination solves the direct geodesic problem on a sphere: the point
// reached from origin after travelling angularDist radians along the
// initial bearing (degrees clockwise from north).
func Destination(origin Point, bearingDeg, angularDist float64) Point {
	θ := toRad(bearingDeg)
	φ1 := toRad(origin.Lat)
	λ1 := toRad(origin.Lon)

	φ2 := math.Asin(math.Sin(φ1)*math.Cos(angularDist) +
		math.Cos(φ1)*math.Sin(angularDist)*math.Cos(θ))

	λ2 := λ1 + math.Atan2(
		math.Sin(θ)*math.Sin(angularDist)*math.Cos(φ1),
		math.Cos(angularDist)-math.Sin(φ1)*math.Sin(φ2),
	)

	return Point{Lat: toDeg(φ2), Lon: NormalizeLon(toDeg(λ2))}
}

// NormalizeLon wraps a longitude into [-180, 180]. Values already in range
// are returned unchanged.
func NormalizeLon(lon float64) float64 {
	if lon >= -180 && lon <= 180 {
		return lon
	}
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}

func validate(lat, lon, miles float64) error {
	switch {
	case !finite(lat) || !finite(lon):
		return fmt.Errorf("%w: coordinates must be finite, got (%v, %v)", ErrInvalidArgument, lat, lon)
	case lat < -90 || lat > 90:
		return fmt.Errorf("%w: latitude %v outside [-90, 90]", ErrInvalidArgument, lat)
	case lon < -180 || lon > 180:
		return fmt.Errorf("%w: longitude %v outside [-180, 180]", ErrInvalidArgument, lon)
	case !finite(miles) || miles <= 0:
		return fmt.Errorf("%w: diagonal distance must be a positive finite number of miles, got %v", ErrInvalidArgument, miles)
	case miles > MaxDiagonalMiles:
		return fmt.Errorf("%w: diagonal distance %v exceeds %.0f miles", ErrInvalidArgument, miles, MaxDiagonalMiles)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}
