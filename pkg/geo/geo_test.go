package geo_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/nearcart/pkg/geo"
)

func randomCoord(r *rand.Rand) geo.Coordinate {
	return geo.Coordinate{Lat: r.Float64()*180 - 90, Lng: r.Float64()*360 - 180}
}

func TestDistanceKm_KnownPair(t *testing.T) {
	// Bengaluru MG Road to Indiranagar 100ft Road.
	a := geo.Coordinate{Lat: 12.9756, Lng: 77.6050}
	b := geo.Coordinate{Lat: 12.9719, Lng: 77.6412}
	assert.InDelta(t, 3.94, geo.DistanceKm(a, b), 0.05)
}

func TestDistanceKm_Properties(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		a, b, c := randomCoord(r), randomCoord(r), randomCoord(r)

		assert.Zero(t, geo.DistanceKm(a, a))
		assert.InDelta(t, geo.DistanceKm(a, b), geo.DistanceKm(b, a), 1e-9)
		assert.LessOrEqual(t, geo.DistanceKm(a, c), geo.DistanceKm(a, b)+geo.DistanceKm(b, c)+1e-6)
		assert.LessOrEqual(t, geo.DistanceKm(a, b), math.Pi*geo.EarthRadiusKm+1e-6)
	}
}

func TestNearbyShops_BoundaryInclusive(t *testing.T) {
	origin := geo.Coordinate{Lat: 12.97, Lng: 77.59}
	onEdge := geo.Coordinate{Lat: 12.97, Lng: 77.69}
	radius := geo.DistanceKm(origin, onEdge)

	// One metre further east along the same parallel.
	kmPerDegLng := geo.DistanceKm(origin, geo.Coordinate{Lat: 12.97, Lng: 77.60}) * 100
	beyond := geo.Coordinate{Lat: 12.97, Lng: 77.69 + 0.001/kmPerDegLng*1.01}

	got := geo.NearbyShops(origin, []geo.Site{
		{ID: 1, Location: onEdge},
		{ID: 2, Location: beyond},
	}, radius)

	require.Len(t, got, 1)
	assert.Equal(t, uint(1), got[0].ShopID)
}

func TestNearbyShops_SortedByDistanceThenID(t *testing.T) {
	origin := geo.Coordinate{Lat: 0, Lng: 0}
	got := geo.NearbyShops(origin, []geo.Site{
		{ID: 9, Location: geo.Coordinate{Lat: 0, Lng: 0.05}},
		{ID: 4, Location: geo.Coordinate{Lat: 0, Lng: 0.01}},
		{ID: 3, Location: geo.Coordinate{Lat: 0, Lng: -0.05}},
		{ID: 7, Location: geo.Coordinate{Lat: 5, Lng: 5}},
	}, 10)

	require.Len(t, got, 3)
	assert.Equal(t, []uint{4, 3, 9}, []uint{got[0].ShopID, got[1].ShopID, got[2].ShopID})
	for _, sd := range got {
		assert.Positive(t, sd.DeliveryMinutes)
	}
}

func TestNearbyShops_NoSites(t *testing.T) {
	assert.Empty(t, geo.NearbyShops(geo.Coordinate{}, nil, 10))
}

func TestEstimateDeliveryMinutes(t *testing.T) {
	e := geo.Engine{DefaultBaseMinutes: 15, SpeedKmph: 20}

	assert.Equal(t, 15, e.EstimateDeliveryMinutes(0, 0))
	assert.Equal(t, 25, e.EstimateDeliveryMinutes(0, 25))
	assert.Equal(t, 15+3, e.EstimateDeliveryMinutes(1, 0))
	assert.Equal(t, 10+30, e.EstimateDeliveryMinutes(10, 10))

	prev := 0
	for d := 0.0; d < 30; d += 0.37 {
		got := e.EstimateDeliveryMinutes(d, 0)
		assert.GreaterOrEqual(t, got, prev)
		prev = got
	}
}

func TestBoundingBoxContainsRadius(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	c := geo.Coordinate{Lat: 12.97, Lng: 77.59}
	min, max := geo.BoundingBox(c, 10)

	for i := 0; i < 200; i++ {
		p := geo.Coordinate{Lat: c.Lat + (r.Float64()-0.5)*0.4, Lng: c.Lng + (r.Float64()-0.5)*0.4}
		if geo.DistanceKm(c, p) <= 10 {
			assert.True(t, p.Lat >= min.Lat && p.Lat <= max.Lat && p.Lng >= min.Lng && p.Lng <= max.Lng)
		}
	}
}

func TestBoundingBoxNearThePoles(t *testing.T) {
	for _, c := range []geo.Coordinate{{Lat: 89.95, Lng: 10}, {Lat: -89.97, Lng: -170}} {
		min, max := geo.BoundingBox(c, 10)
		assert.Equal(t, 360.0, max.Lng-min.Lng, "%v", c)
		assert.True(t, min.Lat >= -90 && max.Lat <= 90)
	}

	// Across the pole from the origin, still inside the radius.
	c := geo.Coordinate{Lat: 89.97, Lng: 80}
	across := geo.Coordinate{Lat: 89.97, Lng: -100}
	require.Less(t, geo.DistanceKm(c, across), 10.0)
	min, max := geo.BoundingBox(c, 10)
	assert.True(t, across.Lat >= min.Lat && across.Lat <= max.Lat)
	assert.True(t, across.Lng >= min.Lng && across.Lng <= max.Lng)
}

func TestBoundingBoxContainsRadiusAtHighLatitude(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	c := geo.Coordinate{Lat: 80, Lng: 20}
	min, max := geo.BoundingBox(c, 50)
	require.Less(t, max.Lng-min.Lng, 360.0)

	for i := 0; i < 500; i++ {
		p := geo.Coordinate{Lat: c.Lat + (r.Float64()-0.5)*1.2, Lng: c.Lng + (r.Float64()-0.5)*6}
		if geo.DistanceKm(c, p) <= 50 {
			assert.True(t, p.Lat >= min.Lat && p.Lat <= max.Lat && p.Lng >= min.Lng && p.Lng <= max.Lng, "%v", p)
		}
	}
}

func TestCoordinateValid(t *testing.T) {
	assert.True(t, geo.Coordinate{Lat: 90, Lng: -180}.Valid())
	assert.False(t, geo.Coordinate{Lat: 91, Lng: 0}.Valid())
	assert.False(t, geo.Coordinate{Lat: 0, Lng: math.NaN()}.Valid())
}
