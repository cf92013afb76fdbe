package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceKm_SamePointIsZero(t *testing.T) {
	points := []Point{
		{Lat: 52.37, Lng: 4.89},
		{Lat: 0, Lng: 0},
		{Lat: -33.86, Lng: 151.21},
		{Lat: 90, Lng: 180},
	}
	for _, p := range points {
		assert.Equal(t, 0.0, DistanceKm(p, p))
	}
}

func TestDistanceKm_Symmetric(t *testing.T) {
	pairs := [][2]Point{
		{{Lat: 52.37, Lng: 4.89}, {Lat: 52.36, Lng: 4.90}},
		{{Lat: 52.52, Lng: 13.405}, {Lat: 48.8566, Lng: 2.3522}},
		{{Lat: -33.86, Lng: 151.21}, {Lat: 40.71, Lng: -74.0}},
		{{Lat: 10, Lng: 179.9}, {Lat: 10, Lng: -179.9}},
	}
	for _, pair := range pairs {
		assert.InDelta(t, DistanceKm(pair[0], pair[1]), DistanceKm(pair[1], pair[0]), 1e-9)
	}
}

func TestDistanceKm_KnownDistances(t *testing.T) {
	amsterdam := Point{Lat: 52.37, Lng: 4.89}
	nearby := Point{Lat: 52.36, Lng: 4.90}
	berlin := Point{Lat: 52.52, Lng: 13.405}

	assert.InDelta(t, 1.3, DistanceKm(amsterdam, nearby), 0.1)
	assert.InDelta(t, 577, DistanceKm(amsterdam, berlin), 5)

	// Четверть меридиана.
	assert.InDelta(t, 10007.5, DistanceKm(Point{0, 0}, Point{90, 0}), 1)
}

func TestPoint_Validate(t *testing.T) {
	assert.NoError(t, Point{Lat: 52.37, Lng: 4.89}.Validate())
	assert.NoError(t, Point{Lat: -90, Lng: 180}.Validate())

	assert.Error(t, Point{Lat: 90.1, Lng: 0}.Validate())
	assert.Error(t, Point{Lat: 0, Lng: -180.5}.Validate())
}
