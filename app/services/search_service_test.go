package services_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/nearcart/app/models"
	"github.com/shashiranjanraj/nearcart/app/services"
	"github.com/shashiranjanraj/nearcart/pkg/apperror"
	"github.com/shashiranjanraj/nearcart/pkg/geo"
	"github.com/shashiranjanraj/nearcart/pkg/testkit"
)

func searchService(w *world) *services.SearchService {
	return services.NewSearchService(w.db, services.SearchOptions{RadiusKm: 10, Engine: geo.DefaultEngine})
}

func TestSearchPrefersNearerShopOnEqualPrice(t *testing.T) {
	w := newWorld(t)
	w.stock(w.mid, w.milk, "50.00", 5)
	w.stock(w.near, w.milk, "50.00", 5)

	res, err := searchService(w).Search(bg, buyerID, "milk")
	require.NoError(t, err)
	require.Len(t, res.Results, 1)
	hit := res.Results[0]
	assert.Equal(t, w.near.ID, hit.Shop.ID)
	assert.InDelta(t, 1.0, hit.DistanceKm, 0.05)
	assert.Greater(t, hit.DeliveryMinutes, w.near.DeliveryMinutes)
}

func TestSearchPicksCheapestWithinReach(t *testing.T) {
	w := newWorld(t)
	w.stock(w.near, w.milk, "30.00", 5)
	w.stock(w.mid, w.milk, "27.00", 5)
	w.stock(w.far, w.milk, "10.00", 5)

	res, err := searchService(w).Search(bg, buyerID, "  MILK ")
	require.NoError(t, err)
	require.Len(t, res.Results, 1)
	assert.Equal(t, w.mid.ID, res.Results[0].Shop.ID)
	assert.True(t, money("27").Equal(res.Results[0].Price))
	assert.Equal(t, "MILK", res.Query)
}

func TestSearchTieOnDistanceGoesToLowerShopID(t *testing.T) {
	w := newWorld(t)
	twin := w.shop(ownerAID, "Twin Mart", 0.018)
	w.stock(twin, w.eggs, "60.00", 5)
	w.stock(w.mid, w.eggs, "60.00", 5)

	res, err := searchService(w).Search(bg, buyerID, "eggs")
	require.NoError(t, err)
	require.Len(t, res.Results, 1)
	assert.Equal(t, w.mid.ID, res.Results[0].Shop.ID)
}

func TestSearchOrdersByDistanceThenProduct(t *testing.T) {
	w := newWorld(t)
	w.stock(w.mid, w.bread, "40.00", 5)
	w.stock(w.near, w.eggs, "60.00", 5)
	w.stock(w.near, w.milk, "28.00", 5)

	// "o" matches "Toned Milk", "Brown Bread", "Modern" and "Eggoz".
	res, err := searchService(w).Search(bg, buyerID, "o")
	require.NoError(t, err)
	require.Len(t, res.Results, 3)
	assert.Equal(t, w.milk.ID, res.Results[0].ProductID)
	assert.Equal(t, w.eggs.ID, res.Results[1].ProductID)
	assert.Equal(t, w.bread.ID, res.Results[2].ProductID)
}

func TestSearchSkipsSoldOutAndDisabledEntries(t *testing.T) {
	w := newWorld(t)
	w.stock(w.near, w.milk, "20.00", 0)
	w.stock(w.mid, w.milk, "25.00", 3)
	w.stock(w.mid, w.bread, "40.00", 3)
	require.NoError(t, w.db.Model(&models.InventoryEntry{}).
		Where("product_id = ?", w.bread.ID).Update("is_available", false).Error)

	res, err := searchService(w).Search(bg, buyerID, "milk")
	require.NoError(t, err)
	require.Len(t, res.Results, 1)
	assert.Equal(t, w.mid.ID, res.Results[0].Shop.ID)

	res, err = searchService(w).Search(bg, buyerID, "bread")
	require.NoError(t, err)
	assert.Empty(t, res.Results)
}

func TestSearchEmptyOutcomesAreDistinct(t *testing.T) {
	w := newWorld(t)
	w.stock(w.near, w.milk, "28.00", 5)
	svc := searchService(w)

	res, err := svc.Search(bg, buyerID, "   ")
	require.NoError(t, err)
	assert.Empty(t, res.Results)
	assert.False(t, res.NoShopsNearby)
	assert.Empty(t, res.Message)

	res, err = svc.Search(bg, buyerID, "caviar")
	require.NoError(t, err)
	assert.Empty(t, res.Results)
	assert.False(t, res.NoShopsNearby)
	assert.Equal(t, `No products matched "caviar"`, res.Message)

	tight := services.NewSearchService(w.db, services.SearchOptions{RadiusKm: 0.5, Engine: geo.DefaultEngine})
	res, err = tight.Search(bg, buyerID, "milk")
	require.NoError(t, err)
	assert.True(t, res.NoShopsNearby)
	assert.Equal(t, "No shops found within 0.5 km of your default address", res.Message)
}

func TestSearchNeedsDefaultAddress(t *testing.T) {
	w := newWorld(t)
	require.NoError(t, w.db.Model(&models.Address{}).
		Where("user_id = ?", buyerID).Update("is_default", false).Error)

	_, err := searchService(w).Search(bg, buyerID, "milk")
	assert.ErrorIs(t, err, apperror.ErrNoDefaultAddress)

	_, err = searchService(w).NearbyShops(bg, buyerID, nil)
	assert.ErrorIs(t, err, apperror.ErrNoDefaultAddress)
}

func TestSearchResultsAreCached(t *testing.T) {
	w := newWorld(t)
	mr, _ := testkit.NewRedis(t)
	w.stock(w.near, w.milk, "28.00", 5)
	svc := services.NewSearchService(w.db, services.SearchOptions{
		RadiusKm: 10, CacheTTL: 30 * time.Second, Engine: geo.DefaultEngine,
	})

	first, err := svc.Search(bg, buyerID, "milk")
	require.NoError(t, err)
	require.Len(t, first.Results, 1)

	require.NoError(t, w.db.Model(&models.InventoryEntry{}).
		Where("product_id = ?", w.milk.ID).Update("price", money("31.00")).Error)

	cached, err := svc.Search(bg, buyerID, "Milk")
	require.NoError(t, err)
	assert.True(t, money("28").Equal(cached.Results[0].Price))

	mr.FastForward(31 * time.Second)
	fresh, err := svc.Search(bg, buyerID, "milk")
	require.NoError(t, err)
	assert.True(t, money("31").Equal(fresh.Results[0].Price))
}

func km(v float64) *float64 { return &v }

func TestNearbyShops(t *testing.T) {
	w := newWorld(t)
	svc := searchService(w)

	res, err := svc.NearbyShops(bg, buyerID, nil)
	require.NoError(t, err)
	assert.Equal(t, 10.0, res.RadiusKm)
	shops := res.Shops
	require.Len(t, shops, 2)
	assert.Equal(t, w.near.ID, shops[0].ID)
	assert.Equal(t, w.mid.ID, shops[1].ID)
	assert.Less(t, shops[0].DistanceKm, shops[1].DistanceKm)
	assert.LessOrEqual(t, shops[0].DeliveryMinutes, shops[1].DeliveryMinutes)

	wide, err := svc.NearbyShops(bg, buyerID, km(25))
	require.NoError(t, err)
	assert.Equal(t, 25.0, wide.RadiusKm)
	assert.Len(t, wide.Shops, 3)

	edge, err := svc.NearbyShops(bg, buyerID, km(services.MaxRadiusKm))
	require.NoError(t, err)
	assert.Len(t, edge.Shops, 3)
}

func TestNearbyShopsRejectsRadiusOutsideBounds(t *testing.T) {
	w := newWorld(t)
	svc := searchService(w)

	for _, r := range []float64{0, math.Copysign(0, -1), -1, services.MaxRadiusKm + 0.001, 20000, math.NaN()} {
		_, err := svc.NearbyShops(bg, buyerID, km(r))
		assert.ErrorIs(t, err, apperror.ErrInvalidRadius, "radius %v", r)
	}
}

func TestSearchCacheMeasuresFromEachCaller(t *testing.T) {
	w := newWorld(t)
	testkit.NewRedis(t)

	// The stranger lives about 33 m north of the buyer; Edge Mart sits just
	// inside the buyer's radius and just outside the stranger's.
	stranger := geo.Coordinate{Lat: origin.Lat + 0.0003, Lng: origin.Lng}
	require.NoError(t, w.db.Model(&w.work).Update("latitude", stranger.Lat).Error)
	edge := w.shop(ownerAID, "Edge Mart", -0.0899)
	edgeAt := edge.Coordinate()
	nearAt := w.near.Coordinate()
	require.LessOrEqual(t, geo.DistanceKm(origin, edgeAt), 10.0)
	require.Greater(t, geo.DistanceKm(stranger, edgeAt), 10.0)

	w.stock(edge, w.milk, "28.00", 5)
	w.stock(w.near, w.milk, "30.00", 5)
	svc := services.NewSearchService(w.db, services.SearchOptions{
		RadiusKm: 10, CacheTTL: 30 * time.Second, Engine: geo.DefaultEngine,
	})

	mine, err := svc.Search(bg, buyerID, "milk")
	require.NoError(t, err)
	require.Len(t, mine.Results, 1)
	assert.Equal(t, edge.ID, mine.Results[0].Shop.ID)

	theirs, err := svc.Search(bg, strangerID, "milk")
	require.NoError(t, err)
	require.Len(t, theirs.Results, 1)
	assert.Equal(t, w.near.ID, theirs.Results[0].Shop.ID)
	assert.InDelta(t, geo.DistanceKm(stranger, nearAt), theirs.Results[0].DistanceKm, 1e-9)

	uncached, err := searchService(w).Search(bg, strangerID, "milk")
	require.NoError(t, err)
	require.Len(t, uncached.Results, 1)
	assert.Equal(t, uncached.Results[0].Shop, theirs.Results[0].Shop)
	assert.True(t, uncached.Results[0].Price.Equal(theirs.Results[0].Price))
}

func TestSearchSharedCacheEntryKeepsOwnDistances(t *testing.T) {
	w := newWorld(t)
	testkit.NewRedis(t)
	stranger := geo.Coordinate{Lat: origin.Lat + 0.0003, Lng: origin.Lng}
	require.NoError(t, w.db.Model(&w.work).Update("latitude", stranger.Lat).Error)
	w.stock(w.near, w.milk, "30.00", 5)
	svc := services.NewSearchService(w.db, services.SearchOptions{
		RadiusKm: 10, CacheTTL: 30 * time.Second, Engine: geo.DefaultEngine,
	})

	mine, err := svc.Search(bg, buyerID, "milk")
	require.NoError(t, err)
	theirs, err := svc.Search(bg, strangerID, "milk")
	require.NoError(t, err)

	require.Len(t, mine.Results, 1)
	require.Len(t, theirs.Results, 1)
	nearAt := w.near.Coordinate()
	assert.InDelta(t, geo.DistanceKm(origin, nearAt), mine.Results[0].DistanceKm, 1e-9)
	assert.InDelta(t, geo.DistanceKm(stranger, nearAt), theirs.Results[0].DistanceKm, 1e-9)
	assert.NotEqual(t, mine.Results[0].DistanceKm, theirs.Results[0].DistanceKm)
}

func TestSearchTrimsButKeepsInnerSpacing(t *testing.T) {
	w := newWorld(t)
	w.stock(w.near, w.bread, "45.00", 3)
	svc := searchService(w)

	res, err := svc.Search(bg, buyerID, "  brown bread \t")
	require.NoError(t, err)
	require.Len(t, res.Results, 1)
	assert.Equal(t, "brown bread", res.Query)

	res, err = svc.Search(bg, buyerID, "brown  bread")
	require.NoError(t, err)
	assert.Empty(t, res.Results)
	assert.Equal(t, `No products matched "brown  bread"`, res.Message)
}
