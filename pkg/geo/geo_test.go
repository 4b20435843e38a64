package geo

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type coord struct {
	lat, lon float64
}

func (c coord) Coordinates() (float64, float64) { return c.lat, c.lon }

func TestDistanceKm_SamePointIsZero(t *testing.T) {
	require.InDelta(t, 0, DistanceKm(12.9716, 77.5946, 12.9716, 77.5946), 1e-9)
}

func TestDistanceKm_OneDegreeOfLatitude(t *testing.T) {
	// One degree along a meridian is about 111.2 km on a 6371 km sphere.
	d := DistanceKm(0, 0, 1, 0)
	require.InDelta(t, 111.19, d, 0.1)
}

func TestDistanceKm_Symmetric(t *testing.T) {
	a := DistanceKm(12.97, 77.59, 13.08, 80.27)
	b := DistanceKm(13.08, 80.27, 12.97, 77.59)
	require.InDelta(t, a, b, 1e-9)
}

func TestNearestN_SortsAscendingAndCaps(t *testing.T) {
	candidates := []coord{
		{lat: 3, lon: 0},
		{lat: 1, lon: 0},
		{lat: 5, lon: 0},
		{lat: 2, lon: 0},
		{lat: 4, lon: 0},
		{lat: 0.5, lon: 0},
	}

	ranked := NearestN(0, 0, candidates, 3)
	require.Len(t, ranked, 3)
	require.Equal(t, 0.5, ranked[0].Item.lat)
	require.Equal(t, 1.0, ranked[1].Item.lat)
	require.Equal(t, 2.0, ranked[2].Item.lat)
	require.True(t, ranked[0].DistanceKm <= ranked[1].DistanceKm)
	require.True(t, ranked[1].DistanceKm <= ranked[2].DistanceKm)
}

func TestNearestN_DefaultsToFive(t *testing.T) {
	candidates := make([]coord, 8)
	for i := range candidates {
		candidates[i] = coord{lat: float64(i), lon: 0}
	}

	ranked := NearestN(0, 0, candidates, 0)
	require.Len(t, ranked, 5)
}

func TestNearestN_FewerCandidatesThanLimit(t *testing.T) {
	ranked := NearestN(0, 0, []coord{{lat: 1}}, 5)
	require.Len(t, ranked, 1)
}
