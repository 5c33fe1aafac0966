package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/nearcart/app/models"
	"github.com/shashiranjanraj/nearcart/pkg/orm"
)

// OrderRepository persists orders and their items.
type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) WithTx(tx *gorm.DB) *OrderRepository {
	return &OrderRepository{db: tx}
}

// Create inserts order together with its Items.
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	if err := r.db.WithContext(ctx).Omit("Shop").Create(order).Error; err != nil {
		return fmt.Errorf("orders: create for shop %d: %w", order.ShopID, err)
	}
	return nil
}

// FindByID loads the order row without relations.
func (r *OrderRepository) FindByID(ctx context.Context, id uint) (models.Order, error) {
	var o models.Order
	err := r.db.WithContext(ctx).First(&o, id).Error
	return o, notFound(err)
}

// FindWithItems loads the order with its items, their products and the shop.
func (r *OrderRepository) FindWithItems(ctx context.Context, id uint) (models.Order, error) {
	var o models.Order
	err := r.db.WithContext(ctx).Scopes(withDetails).First(&o, id).Error
	return o, notFound(err)
}

// ListByCheckoutRef returns the orders one checkout created, in creation
// order.
func (r *OrderRepository) ListByCheckoutRef(ctx context.Context, userID uint, ref string) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).Scopes(withDetails).
		Where("user_id = ? AND checkout_ref = ?", userID, ref).
		Order("id").Find(&orders).Error
	return orders, err
}

// ListForUser pages through a buyer's orders, newest first.
func (r *OrderRepository) ListForUser(ctx context.Context, userID uint, p orm.Pagination) ([]models.Order, orm.Pagination, error) {
	var orders []models.Order
	q := r.db.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", userID)
	p, err := orm.FindPage(q, p, &orders, withDetails, newestFirst)
	return orders, p, err
}

// ListForShop pages through a shop's orders, newest first.
func (r *OrderRepository) ListForShop(ctx context.Context, shopID uint, p orm.Pagination) ([]models.Order, orm.Pagination, error) {
	var orders []models.Order
	q := r.db.WithContext(ctx).Model(&models.Order{}).Where("shop_id = ?", shopID)
	p, err := orm.FindPage(q, p, &orders, withDetails, newestFirst)
	return orders, p, err
}

// CompareAndSetStatus moves the order from one status to another only if
// it is still in from. It reports false when another writer got there
// first.
func (r *OrderRepository) CompareAndSetStatus(ctx context.Context, id uint, from, to models.OrderStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND order_status = ?", id, from).
		Update("order_status", to)
	if res.Error != nil {
		return false, fmt.Errorf("orders: set status of %d to %s: %w", id, to, res.Error)
	}
	return res.RowsAffected == 1, nil
}

func withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items", func(q *gorm.DB) *gorm.DB { return q.Order("id") }).
		Preload("Items.Product").
		Preload("Shop")
}

func newestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("created_at DESC").Order("id DESC")
}
