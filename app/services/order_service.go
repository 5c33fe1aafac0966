package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/nearcart/app/models"
	"github.com/shashiranjanraj/nearcart/app/repositories"
	"github.com/shashiranjanraj/nearcart/pkg/apperror"
	"github.com/shashiranjanraj/nearcart/pkg/event"
	"github.com/shashiranjanraj/nearcart/pkg/logger"
	"github.com/shashiranjanraj/nearcart/pkg/metrics"
	"github.com/shashiranjanraj/nearcart/pkg/orm"
)

// OrderService moves orders through their lifecycle and serves order reads
// to buyers and shop owners.
type OrderService struct {
	db        *gorm.DB
	orders    *repositories.OrderRepository
	shops     *repositories.ShopRepository
	inventory *repositories.InventoryRepository
}

func NewOrderService(db *gorm.DB) *OrderService {
	return &OrderService{
		db:        db,
		orders:    repositories.NewOrderRepository(db),
		shops:     repositories.NewShopRepository(db),
		inventory: repositories.NewInventoryRepository(db),
	}
}

// UpdateStatus moves the order to status on behalf of the shop's owner.
// Cancelling or failing an order hands its units back to the shop in the
// same transaction. Requesting the current status is a no-op, which is
// what keeps a repeated cancel from restoring stock twice.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uint, status string, actingUserID uint) (models.Order, error) {
	next, ok := models.ParseOrderStatus(status)
	if !ok {
		return models.Order{}, apperror.Withf(apperror.ErrInvalidStatus, "Invalid order status %q", status)
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return models.Order{}, orderLookupErr(err)
	}
	if err := s.requireOwner(ctx, order.ShopID, actingUserID); err != nil {
		return models.Order{}, err
	}

	prev := order.OrderStatus
	if prev == next {
		return s.detailed(ctx, orderID)
	}
	if !prev.CanTransitionTo(next) {
		return models.Order{}, apperror.Withf(apperror.ErrInvalidTransition,
			"Cannot move order from %s to %s", prev, next)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		moved, err := s.orders.WithTx(tx).CompareAndSetStatus(ctx, orderID, prev, next)
		if err != nil {
			return apperror.Internal(err)
		}
		if !moved {
			return apperror.ErrOrderConflict
		}
		if !next.ReleasesStock() {
			return nil
		}

		var items []models.OrderItem
		if err := tx.WithContext(ctx).Where("order_id = ?", orderID).Order("id").Find(&items).Error; err != nil {
			return apperror.Internal(err)
		}
		inventory := s.inventory.WithTx(tx)
		for _, it := range items {
			if err := inventory.Restore(ctx, order.ShopID, it.ProductID, it.Quantity); err != nil {
				return apperror.Internal(err)
			}
		}
		return nil
	})
	if err != nil {
		return models.Order{}, err
	}

	metrics.OrderTransitions.WithLabelValues(string(prev), string(next)).Inc()
	logger.WithCtx(ctx).Info("order status changed",
		"order_id", orderID, "from", prev, "to", next, "actor_id", actingUserID)

	updated, err := s.detailed(ctx, orderID)
	if err != nil {
		return models.Order{}, err
	}
	event.FireAsync(ctx, EventOrderStatusChanged, OrderStatusChanged{
		Order: updated, From: prev, To: next, ActorID: actingUserID,
	})
	return updated, nil
}

// Get returns an order to its buyer or to the owner of its shop.
func (s *OrderService) Get(ctx context.Context, orderID, actingUserID uint) (models.Order, error) {
	order, err := s.detailed(ctx, orderID)
	if err != nil {
		return models.Order{}, err
	}
	if order.UserID == actingUserID {
		return order, nil
	}
	if order.Shop != nil && order.Shop.UserID == actingUserID {
		return order, nil
	}
	return models.Order{}, apperror.ErrUnauthorized
}

// ListForUser pages through the caller's own orders.
func (s *OrderService) ListForUser(ctx context.Context, userID uint, p orm.Pagination) ([]models.Order, orm.Pagination, error) {
	orders, page, err := s.orders.ListForUser(ctx, userID, p)
	if err != nil {
		return nil, page, apperror.Internal(err)
	}
	return orders, page, nil
}

// ListForShop pages through a shop's orders; only its owner may look.
func (s *OrderService) ListForShop(ctx context.Context, shopID, actingUserID uint, p orm.Pagination) ([]models.Order, orm.Pagination, error) {
	if err := s.requireOwner(ctx, shopID, actingUserID); err != nil {
		return nil, p, err
	}
	orders, page, err := s.orders.ListForShop(ctx, shopID, p)
	if err != nil {
		return nil, page, apperror.Internal(err)
	}
	return orders, page, nil
}

func (s *OrderService) requireOwner(ctx context.Context, shopID, userID uint) error {
	shop, err := s.shops.FindByID(ctx, shopID)
	if errors.Is(err, repositories.ErrNotFound) {
		return apperror.ErrShopNotFound
	}
	if err != nil {
		return apperror.Internal(err)
	}
	if shop.UserID != userID {
		return apperror.ErrUnauthorized
	}
	return nil
}

func (s *OrderService) detailed(ctx context.Context, orderID uint) (models.Order, error) {
	order, err := s.orders.FindWithItems(ctx, orderID)
	if err != nil {
		return models.Order{}, orderLookupErr(err)
	}
	return order, nil
}

func orderLookupErr(err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return apperror.ErrOrderNotFound
	}
	return apperror.Internal(err)
}
