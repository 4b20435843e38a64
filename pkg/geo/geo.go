package geo

import (
	"math"
	"sort"
)

// EarthRadiusKm is the mean Earth radius used for great-circle distances.
const EarthRadiusKm = 6371.0

// DistanceKm returns the Haversine distance in kilometers between two
// coordinate pairs given in degrees.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// Point is anything with a coordinate pair.
type Point interface {
	Coordinates() (lat, lon float64)
}

// Ranked pairs a candidate with its computed distance from the origin.
type Ranked[T Point] struct {
	Item       T
	DistanceKm float64
}

// NearestN ranks candidates by Haversine distance from the origin, ascending,
// and returns at most n entries. n <= 0 falls back to 5.
func NearestN[T Point](originLat, originLon float64, candidates []T, n int) []Ranked[T] {
	if n <= 0 {
		n = 5
	}

	ranked := make([]Ranked[T], 0, len(candidates))
	for _, c := range candidates {
		lat, lon := c.Coordinates()
		ranked = append(ranked, Ranked[T]{
			Item:       c,
			DistanceKm: DistanceKm(originLat, originLon, lat, lon),
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		return ranked[i].DistanceKm < ranked[j].DistanceKm
	})

	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
