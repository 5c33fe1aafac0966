package repositories_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shashiranjanraj/nearcart/app/models"
	"github.com/shashiranjanraj/nearcart/app/repositories"
	_ "github.com/shashiranjanraj/nearcart/database/migrations"
	"github.com/shashiranjanraj/nearcart/pkg/apperror"
	"github.com/shashiranjanraj/nearcart/pkg/geo"
	"github.com/shashiranjanraj/nearcart/pkg/orm"
	"github.com/shashiranjanraj/nearcart/pkg/testkit"
)

func create(t *testing.T, db *gorm.DB, v any) {
	t.Helper()
	require.NoError(t, db.Omit(clause.Associations).Create(v).Error)
}

func stockedShop(t *testing.T, db *gorm.DB, qty int) (models.Shop, models.Product) {
	t.Helper()
	shop := models.Shop{UserID: 9, Name: "Corner Store", Latitude: 12.97, Longitude: 77.64}
	create(t, db, &shop)
	product := models.Product{Name: "Basmati Rice", Brand: "India Gate", Description: "Aged long grain rice"}
	create(t, db, &product)
	create(t, db, &models.InventoryEntry{
		ShopID: shop.ID, ProductID: product.ID,
		Price: decimal.RequireFromString("120.50"), Quantity: qty, IsAvailable: true,
	})
	return shop, product
}

func quantity(t *testing.T, inv *repositories.InventoryRepository, shopID, productID uint) int {
	t.Helper()
	e, err := inv.Find(context.Background(), shopID, productID)
	require.NoError(t, err)
	return e.Quantity
}

func TestReserveAndRestore(t *testing.T) {
	db := testkit.NewDB(t)
	inv := repositories.NewInventoryRepository(db)
	ctx := context.Background()
	shop, product := stockedShop(t, db, 5)

	require.NoError(t, inv.Reserve(ctx, shop.ID, product.ID, 3))
	assert.Equal(t, 2, quantity(t, inv, shop.ID, product.ID))

	err := inv.Reserve(ctx, shop.ID, product.ID, 3)
	assert.ErrorIs(t, err, apperror.ErrInsufficientStock)
	assert.Equal(t, 2, quantity(t, inv, shop.ID, product.ID))

	require.NoError(t, inv.Reserve(ctx, shop.ID, product.ID, 2))
	assert.Zero(t, quantity(t, inv, shop.ID, product.ID))

	require.NoError(t, inv.Restore(ctx, shop.ID, product.ID, 5))
	assert.Equal(t, 5, quantity(t, inv, shop.ID, product.ID))
}

func TestReserveRejectsDisabledAndMissing(t *testing.T) {
	db := testkit.NewDB(t)
	inv := repositories.NewInventoryRepository(db)
	ctx := context.Background()
	shop, product := stockedShop(t, db, 5)

	require.NoError(t, db.Model(&models.InventoryEntry{}).
		Where("shop_id = ?", shop.ID).Update("is_available", false).Error)

	assert.ErrorIs(t, inv.Reserve(ctx, shop.ID, product.ID, 1), apperror.ErrInsufficientStock)
	assert.ErrorIs(t, inv.Reserve(ctx, shop.ID, product.ID+100, 1), apperror.ErrInsufficientStock)
	assert.Error(t, inv.Reserve(ctx, shop.ID, product.ID, 0))
	assert.ErrorIs(t, inv.Restore(ctx, shop.ID, product.ID+100, 1), repositories.ErrNotFound)
}

func TestConcurrentReservationsNeverOversell(t *testing.T) {
	db := testkit.NewDB(t)
	inv := repositories.NewInventoryRepository(db)
	shop, product := stockedShop(t, db, 10)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		reserved int
	)
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if inv.Reserve(context.Background(), shop.ID, product.ID, 1) == nil {
				mu.Lock()
				reserved++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, reserved)
	assert.Zero(t, quantity(t, inv, shop.ID, product.ID))
}

func TestGetAvailable(t *testing.T) {
	db := testkit.NewDB(t)
	inv := repositories.NewInventoryRepository(db)
	shop, product := stockedShop(t, db, 4)

	got, err := inv.GetAvailable(context.Background(), shop.ID, []uint{product.ID, product.ID + 1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	a := got[product.ID]
	assert.Equal(t, 4, a.Quantity)
	assert.True(t, a.IsAvailable)
	assert.True(t, decimal.RequireFromString("120.5").Equal(a.Price))
}

func TestSearchMatchesNameBrandDescription(t *testing.T) {
	db := testkit.NewDB(t)
	inv := repositories.NewInventoryRepository(db)
	ctx := context.Background()
	shop, product := stockedShop(t, db, 4)

	soldOut := models.Product{Name: "Rice Flakes", Brand: "Poha Co"}
	create(t, db, &soldOut)
	create(t, db, &models.InventoryEntry{ShopID: shop.ID, ProductID: soldOut.ID, Price: decimal.NewFromInt(30), Quantity: 0, IsAvailable: true})

	for _, term := range []string{"basmati", "INDIA gate", "long grain", "rice"} {
		rows, err := inv.Search(ctx, []uint{shop.ID}, term)
		require.NoError(t, err)
		require.Len(t, rows, 1, term)
		assert.Equal(t, product.ID, rows[0].ProductID)
		assert.Equal(t, "Basmati Rice", rows[0].Name)
	}

	rows, err := inv.Search(ctx, []uint{shop.ID}, "100%")
	require.NoError(t, err)
	assert.Empty(t, rows)

	rows, err = inv.Search(ctx, []uint{shop.ID + 1}, "rice")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestShopsWithinRadius(t *testing.T) {
	db := testkit.NewDB(t)
	shops := repositories.NewShopRepository(db)

	near := models.Shop{Name: "near", Latitude: 12.971, Longitude: 77.641}
	far := models.Shop{Name: "far", Latitude: 13.5, Longitude: 77.641}
	create(t, db, &near)
	create(t, db, &far)

	got, err := shops.WithinRadius(context.Background(), geo.Coordinate{Lat: 12.97, Lng: 77.64}, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, near.ID, got[0].ID)
}

func TestShopsWithinRadiusAcrossThePole(t *testing.T) {
	db := testkit.NewDB(t)
	shops := repositories.NewShopRepository(db)

	// Opposite meridian, about 7 km away over the pole.
	across := models.Shop{Name: "across", Latitude: 89.97, Longitude: -100}
	create(t, db, &across)

	got, err := shops.WithinRadius(context.Background(), geo.Coordinate{Lat: 89.97, Lng: 80}, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, across.ID, got[0].ID)
}

func TestDefaultAddress(t *testing.T) {
	db := testkit.NewDB(t)
	addrs := repositories.NewAddressRepository(db)
	ctx := context.Background()

	_, err := addrs.DefaultForUser(ctx, 1)
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	first := models.Address{UserID: 1, Line: "a", IsDefault: true}
	second := models.Address{UserID: 1, Line: "b", IsDefault: true}
	require.NoError(t, addrs.Create(ctx, &first))
	require.NoError(t, addrs.Create(ctx, &second))

	got, err := addrs.DefaultForUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)

	old, err := addrs.FindByID(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, old.IsDefault)
}

func TestOrderCompareAndSetStatus(t *testing.T) {
	db := testkit.NewDB(t)
	orders := repositories.NewOrderRepository(db)
	ctx := context.Background()
	shop, product := stockedShop(t, db, 4)

	o := models.Order{
		UserID: 1, ShopID: shop.ID, DeliveryAddressID: 1,
		TotalAmount: decimal.NewFromInt(241), OrderStatus: models.StatusPending,
		PaymentStatus: models.PaymentPending, CheckoutRef: "ref-1",
		Items: []models.OrderItem{{ProductID: product.ID, Quantity: 2, PricePerUnit: decimal.RequireFromString("120.50")}},
	}
	require.NoError(t, orders.Create(ctx, &o))
	require.NotZero(t, o.Items[0].OrderID)

	ok, err := orders.CompareAndSetStatus(ctx, o.ID, models.StatusPending, models.StatusConfirmed)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = orders.CompareAndSetStatus(ctx, o.ID, models.StatusPending, models.StatusCancelled)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := orders.FindWithItems(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, got.OrderStatus)
	require.Len(t, got.Items, 1)
	require.NotNil(t, got.Items[0].Product)
	assert.Equal(t, "Basmati Rice", got.Items[0].Product.Name)
	require.NotNil(t, got.Shop)
	assert.Equal(t, shop.Name, got.Shop.Name)

	_, err = orders.FindWithItems(ctx, o.ID+1)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestOrderListingPages(t *testing.T) {
	db := testkit.NewDB(t)
	orders := repositories.NewOrderRepository(db)
	ctx := context.Background()
	shop, _ := stockedShop(t, db, 1)

	for i := 0; i < 3; i++ {
		require.NoError(t, orders.Create(ctx, &models.Order{
			UserID: 1, ShopID: shop.ID, DeliveryAddressID: 1, TotalAmount: decimal.NewFromInt(10),
			OrderStatus: models.StatusPending, PaymentStatus: models.PaymentPending, CheckoutRef: "ref",
		}))
	}

	list, page, err := orders.ListForUser(ctx, 1, orm.NewPagination(1, 2))
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.EqualValues(t, 3, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	assert.Greater(t, list[0].ID, list[1].ID)

	list, _, err = orders.ListForShop(ctx, shop.ID, orm.NewPagination(2, 2))
	require.NoError(t, err)
	assert.Len(t, list, 1)

	byRef, err := orders.ListByCheckoutRef(ctx, 1, "ref")
	require.NoError(t, err)
	assert.Len(t, byRef, 3)
}

func TestCheckoutKeys(t *testing.T) {
	db := testkit.NewDB(t)
	keys := repositories.NewCheckoutKeyRepository(db)
	ctx := context.Background()

	require.NoError(t, keys.Create(ctx, &models.CheckoutKey{UserID: 1, IdempotencyKey: "k1", CheckoutRef: "r1"}))
	assert.ErrorIs(t, keys.Create(ctx, &models.CheckoutKey{UserID: 1, IdempotencyKey: "k1", CheckoutRef: "r2"}), repositories.ErrDuplicateKey)
	require.NoError(t, keys.Create(ctx, &models.CheckoutKey{UserID: 2, IdempotencyKey: "k1", CheckoutRef: "r3"}))

	k, err := keys.Find(ctx, 1, "k1")
	require.NoError(t, err)
	assert.Equal(t, "r1", k.CheckoutRef)

	n, err := keys.DeleteOlderThan(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	_, err = keys.Find(ctx, 1, "k1")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}
