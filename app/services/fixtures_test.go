package services_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shashiranjanraj/nearcart/app/models"
	_ "github.com/shashiranjanraj/nearcart/database/migrations"
	"github.com/shashiranjanraj/nearcart/pkg/geo"
	"github.com/shashiranjanraj/nearcart/pkg/testkit"
)

// origin is the buyer's default address; one degree of latitude is about
// 111 km, so shops are placed by latitude offset.
var origin = geo.Coordinate{Lat: 12.9716, Lng: 77.5946}

const (
	buyerID    uint = 1
	ownerAID   uint = 2
	ownerBID   uint = 3
	strangerID uint = 4
)

type world struct {
	t    *testing.T
	db   *gorm.DB
	home models.Address
	work models.Address // belongs to the stranger

	near models.Shop // ~1 km, owned by ownerA
	mid  models.Shop // ~2 km, owned by ownerB
	far  models.Shop // ~22 km, owned by ownerB

	milk, bread, eggs models.Product
}

func newWorld(t *testing.T) *world {
	t.Helper()
	w := &world{t: t, db: testkit.NewDB(t)}

	for _, u := range []models.User{
		{ID: buyerID, Name: "buyer", Email: "buyer@example.com", Password: "x"},
		{ID: ownerAID, Name: "owner a", Email: "a@example.com", Password: "x", Role: models.RoleShopOwner},
		{ID: ownerBID, Name: "owner b", Email: "b@example.com", Password: "x", Role: models.RoleShopOwner},
		{ID: strangerID, Name: "stranger", Email: "s@example.com", Password: "x"},
	} {
		w.create(&u)
	}

	w.home = models.Address{UserID: buyerID, Line: "home", Latitude: origin.Lat, Longitude: origin.Lng, IsDefault: true}
	w.work = models.Address{UserID: strangerID, Line: "elsewhere", Latitude: origin.Lat, Longitude: origin.Lng, IsDefault: true}
	w.create(&w.home)
	w.create(&w.work)

	// mid is created first so it has the lower id.
	w.mid = w.shop(ownerBID, "Mid Mart", 0.018)
	w.near = w.shop(ownerAID, "Near Mart", 0.009)
	w.far = w.shop(ownerBID, "Far Mart", 0.2)

	w.milk = w.product("Toned Milk", "Nandini")
	w.bread = w.product("Brown Bread", "Modern")
	w.eggs = w.product("Farm Eggs", "Eggoz")
	return w
}

func (w *world) create(v any) {
	w.t.Helper()
	require.NoError(w.t, w.db.Omit(clause.Associations).Create(v).Error)
}

func (w *world) shop(owner uint, name string, dLat float64) models.Shop {
	s := models.Shop{UserID: owner, Name: name, Latitude: origin.Lat + dLat, Longitude: origin.Lng, DeliveryMinutes: 10}
	w.create(&s)
	return s
}

func (w *world) product(name, brand string) models.Product {
	p := models.Product{Name: name, Brand: brand, Category: "grocery"}
	w.create(&p)
	return p
}

func (w *world) stock(shop models.Shop, p models.Product, price string, qty int) {
	w.create(&models.InventoryEntry{
		ShopID: shop.ID, ProductID: p.ID, Price: decimal.RequireFromString(price), Quantity: qty, IsAvailable: true,
	})
}

func (w *world) quantity(shop models.Shop, p models.Product) int {
	w.t.Helper()
	var e models.InventoryEntry
	require.NoError(w.t, w.db.Where("shop_id = ? AND product_id = ?", shop.ID, p.ID).First(&e).Error)
	return e.Quantity
}

func (w *world) orderCount() int64 {
	w.t.Helper()
	var n int64
	require.NoError(w.t, w.db.Model(&models.Order{}).Count(&n).Error)
	return n
}

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var bg = context.Background()
