package geospatial_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/samirrijal/pawmatch/internal/pkg/geospatial"
)

func TestHaversineMiles_ZeroDistance(t *testing.T) {
	require.InDelta(t, 0.0, geospatial.HaversineMiles(43.263, -2.935, 43.263, -2.935), 1e-9)
}

func TestDistanceMiles_KnownPairs(t *testing.T) {
	// New York to Los Angeles is roughly 3936 km on a 6371 km sphere.
	mi := geospatial.HaversineMiles(40.7128, -74.0060, 34.0522, -118.2437)
	require.InDelta(t, 3936/geospatial.KmPerMile, mi, 10)

	s2mi := geospatial.DistanceMiles(geospatial.Point{Lat: 40.7128, Lon: -74.0060}, geospatial.Point{Lat: 34.0522, Lon: -118.2437})
	require.InDelta(t, mi, s2mi, 1e-6)
}

func TestMidpoint_Equator(t *testing.T) {
	mid := geospatial.Midpoint(geospatial.Point{Lat: 0, Lon: 0}, geospatial.Point{Lat: 0, Lon: 90})
	require.InDelta(t, 0.0, mid.Lat, 1e-9)
	require.InDelta(t, 45.0, mid.Lon, 1e-9)
}
