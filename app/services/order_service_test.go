package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/nearcart/app/models"
	"github.com/shashiranjanraj/nearcart/app/services"
	"github.com/shashiranjanraj/nearcart/pkg/apperror"
	"github.com/shashiranjanraj/nearcart/pkg/orm"
)

// placed checks out 2 bread and 1 milk from the near shop, leaving 8 and 4.
func placed(t *testing.T, w *world) models.Order {
	t.Helper()
	w.stock(w.near, w.bread, "45.00", 10)
	w.stock(w.near, w.milk, "28.00", 5)
	res, err := checkoutService(w).Checkout(bg, buyerID, services.CheckoutInput{
		AddressID: w.home.ID,
		CartItems: []services.CartItem{
			{ShopID: w.near.ID, ProductID: w.bread.ID, Quantity: 2},
			{ShopID: w.near.ID, ProductID: w.milk.ID, Quantity: 1},
		},
	})
	require.NoError(t, err)
	require.Len(t, res.Orders, 1)
	return res.Orders[0]
}

func TestUpdateStatusFollowsLifecycle(t *testing.T) {
	w := newWorld(t)
	order := placed(t, w)
	svc := services.NewOrderService(w.db)

	for _, st := range []models.OrderStatus{
		models.StatusConfirmed, models.StatusPreparing, models.StatusOutForDelivery, models.StatusDelivered,
	} {
		got, err := svc.UpdateStatus(bg, order.ID, string(st), ownerAID)
		require.NoError(t, err, st)
		assert.Equal(t, st, got.OrderStatus)
	}

	_, err := svc.UpdateStatus(bg, order.ID, "cancelled", ownerAID)
	assert.ErrorIs(t, err, apperror.ErrInvalidTransition)
	assert.Equal(t, 8, w.quantity(w.near, w.bread))
}

func TestUpdateStatusRejectsSkippedSteps(t *testing.T) {
	w := newWorld(t)
	order := placed(t, w)

	_, err := services.NewOrderService(w.db).UpdateStatus(bg, order.ID, "delivered", ownerAID)
	assert.ErrorIs(t, err, apperror.ErrInvalidTransition)
}

func TestUpdateStatusValidatesBeforeReading(t *testing.T) {
	w := newWorld(t)
	svc := services.NewOrderService(w.db)

	_, err := svc.UpdateStatus(bg, 999, "shipped", ownerAID)
	assert.ErrorIs(t, err, apperror.ErrInvalidStatus)

	_, err = svc.UpdateStatus(bg, 999, "confirmed", ownerAID)
	assert.ErrorIs(t, err, apperror.ErrOrderNotFound)
}

func TestOnlyShopOwnerUpdatesStatus(t *testing.T) {
	w := newWorld(t)
	order := placed(t, w)
	svc := services.NewOrderService(w.db)

	for _, actor := range []uint{buyerID, ownerBID, strangerID} {
		_, err := svc.UpdateStatus(bg, order.ID, "cancelled", actor)
		assert.ErrorIs(t, err, apperror.ErrUnauthorized)
	}
	assert.Equal(t, 8, w.quantity(w.near, w.bread))
}

func TestCancelRestoresStockExactlyOnce(t *testing.T) {
	w := newWorld(t)
	order := placed(t, w)
	svc := services.NewOrderService(w.db)

	_, err := svc.UpdateStatus(bg, order.ID, "confirmed", ownerAID)
	require.NoError(t, err)

	got, err := svc.UpdateStatus(bg, order.ID, "cancelled", ownerAID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, got.OrderStatus)
	assert.Equal(t, 10, w.quantity(w.near, w.bread))
	assert.Equal(t, 5, w.quantity(w.near, w.milk))

	again, err := svc.UpdateStatus(bg, order.ID, "cancelled", ownerAID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, again.OrderStatus)
	assert.Equal(t, 10, w.quantity(w.near, w.bread))
	assert.Equal(t, 5, w.quantity(w.near, w.milk))

	_, err = svc.UpdateStatus(bg, order.ID, "failed", ownerAID)
	assert.ErrorIs(t, err, apperror.ErrInvalidTransition)
	assert.Equal(t, 10, w.quantity(w.near, w.bread))
}

func TestFailedOrderReleasesStock(t *testing.T) {
	w := newWorld(t)
	order := placed(t, w)

	_, err := services.NewOrderService(w.db).UpdateStatus(bg, order.ID, "failed", ownerAID)
	require.NoError(t, err)
	assert.Equal(t, 10, w.quantity(w.near, w.bread))
}

func TestStockIsConserved(t *testing.T) {
	w := newWorld(t)
	order := placed(t, w)

	var sold int
	require.NoError(t, w.db.Model(&models.OrderItem{}).
		Where("order_id = ?", order.ID).Select("SUM(quantity)").Scan(&sold).Error)
	assert.Equal(t, 15, w.quantity(w.near, w.bread)+w.quantity(w.near, w.milk)+sold)
}

func TestGetOrderVisibility(t *testing.T) {
	w := newWorld(t)
	order := placed(t, w)
	svc := services.NewOrderService(w.db)

	for _, viewer := range []uint{buyerID, ownerAID} {
		got, err := svc.Get(bg, order.ID, viewer)
		require.NoError(t, err)
		assert.Equal(t, order.ID, got.ID)
		assert.Len(t, got.Items, 2)
	}

	_, err := svc.Get(bg, order.ID, strangerID)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	_, err = svc.Get(bg, order.ID+100, buyerID)
	assert.ErrorIs(t, err, apperror.ErrOrderNotFound)
}

func TestOrderListings(t *testing.T) {
	w := newWorld(t)
	order := placed(t, w)
	svc := services.NewOrderService(w.db)
	page := orm.NewPagination(1, 10)

	mine, p, err := svc.ListForUser(bg, buyerID, page)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, order.ID, mine[0].ID)
	assert.EqualValues(t, 1, p.Total)

	none, _, err := svc.ListForUser(bg, strangerID, page)
	require.NoError(t, err)
	assert.Empty(t, none)

	shopOrders, _, err := svc.ListForShop(bg, w.near.ID, ownerAID, page)
	require.NoError(t, err)
	assert.Len(t, shopOrders, 1)

	_, _, err = svc.ListForShop(bg, w.near.ID, ownerBID, page)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	_, _, err = svc.ListForShop(bg, 999, ownerAID, page)
	assert.ErrorIs(t, err, apperror.ErrShopNotFound)
}
