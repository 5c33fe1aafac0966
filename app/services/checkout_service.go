package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/nearcart/app/models"
	"github.com/shashiranjanraj/nearcart/app/repositories"
	"github.com/shashiranjanraj/nearcart/config"
	"github.com/shashiranjanraj/nearcart/pkg/apperror"
	"github.com/shashiranjanraj/nearcart/pkg/collection"
	"github.com/shashiranjanraj/nearcart/pkg/event"
	"github.com/shashiranjanraj/nearcart/pkg/geo"
	"github.com/shashiranjanraj/nearcart/pkg/logger"
	"github.com/shashiranjanraj/nearcart/pkg/metrics"
)

// MaxIdempotencyKeyLen bounds the Idempotency-Key header.
const MaxIdempotencyKeyLen = 128

// CartItem is one line of the client's cart.
type CartItem struct {
	ProductID uint `json:"productId"`
	ShopID    uint `json:"shopId"`
	Quantity  int  `json:"quantity"`
}

// CheckoutInput is the checkout request. The cart lives on the client and
// arrives whole with each checkout.
type CheckoutInput struct {
	CartItems      []CartItem `json:"cartItems"`
	AddressID      uint       `json:"addressId"`
	IdempotencyKey string     `json:"-"`
}

// CheckoutResult lists the orders of one checkout, one per shop in cart
// order. Replayed is set when an earlier call with the same idempotency key
// created them.
type CheckoutResult struct {
	CheckoutRef string
	Orders      []models.Order
	Replayed    bool
}

// CheckoutOptions tunes CheckoutService.
type CheckoutOptions struct {
	EnforceRadius  bool
	RadiusKm       float64
	IdempotencyTTL time.Duration
	Now            func() time.Time
}

// DefaultCheckoutOptions reads the checkout settings from config.
func DefaultCheckoutOptions() CheckoutOptions {
	return CheckoutOptions{
		EnforceRadius:  config.CheckoutEnforceRadius(),
		RadiusKm:       config.SearchRadiusKm(),
		IdempotencyTTL: config.IdempotencyTTL(),
	}
}

// CheckoutService turns a multi-shop cart into one order per shop.
type CheckoutService struct {
	db        *gorm.DB
	addresses *repositories.AddressRepository
	shops     *repositories.ShopRepository
	inventory *repositories.InventoryRepository
	orders    *repositories.OrderRepository
	keys      *repositories.CheckoutKeyRepository
	opts      CheckoutOptions
}

func NewCheckoutService(db *gorm.DB, opts CheckoutOptions) *CheckoutService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.IdempotencyTTL <= 0 {
		opts.IdempotencyTTL = 24 * time.Hour
	}
	return &CheckoutService{
		db:        db,
		addresses: repositories.NewAddressRepository(db),
		shops:     repositories.NewShopRepository(db),
		inventory: repositories.NewInventoryRepository(db),
		orders:    repositories.NewOrderRepository(db),
		keys:      repositories.NewCheckoutKeyRepository(db),
		opts:      opts,
	}
}

// partition is the merged cart lines of a single shop.
type partition struct {
	shopID uint
	lines  []CartItem
}

// Checkout validates the cart and, in one transaction, creates an order
// per shop with price snapshots and takes the ordered units out of stock.
// Any failing shop aborts the whole checkout.
func (s *CheckoutService) Checkout(ctx context.Context, userID uint, in CheckoutInput) (CheckoutResult, error) {
	res, err := s.checkout(ctx, userID, in)
	log := logger.WithCtx(ctx)
	switch {
	case err != nil:
		ae := apperror.From(err)
		metrics.CheckoutTotal.WithLabelValues(ae.Code).Inc()
		if ae.Kind == apperror.KindInternal {
			log.Error("checkout failed", "user_id", userID, "error", err)
		} else {
			log.Info("checkout rejected", "user_id", userID, "code", ae.Code, "reason", ae.Message)
		}
		return CheckoutResult{}, ae
	case res.Replayed:
		metrics.CheckoutTotal.WithLabelValues("replayed").Inc()
		log.Info("checkout replayed", "user_id", userID, "checkout_ref", res.CheckoutRef)
	default:
		metrics.CheckoutTotal.WithLabelValues("success").Inc()
		metrics.OrdersCreated.Add(float64(len(res.Orders)))
		log.Info("checkout committed", "user_id", userID, "checkout_ref", res.CheckoutRef, "orders", len(res.Orders))
		for _, o := range res.Orders {
			event.FireAsync(ctx, EventOrderPlaced, OrderPlaced{Order: o})
		}
	}
	return res, nil
}

func (s *CheckoutService) checkout(ctx context.Context, userID uint, in CheckoutInput) (CheckoutResult, error) {
	if len(in.CartItems) == 0 {
		return CheckoutResult{}, apperror.ErrEmptyCart
	}
	if in.AddressID == 0 {
		return CheckoutResult{}, apperror.ErrMissingAddress
	}
	for i, it := range in.CartItems {
		if it.ProductID == 0 || it.ShopID == 0 || it.Quantity <= 0 {
			return CheckoutResult{}, apperror.Withf(apperror.ErrInvalidCartItem,
				"Cart item %d needs a productId, a shopId and a positive quantity", i)
		}
	}
	if len(in.IdempotencyKey) > MaxIdempotencyKeyLen {
		return CheckoutResult{}, apperror.ErrIdempotencyKeyLong
	}

	addr, err := s.addresses.FindByID(ctx, in.AddressID)
	if errors.Is(err, repositories.ErrNotFound) {
		return CheckoutResult{}, apperror.ErrAddressNotFound
	}
	if err != nil {
		return CheckoutResult{}, apperror.Internal(err)
	}
	if addr.UserID != userID {
		return CheckoutResult{}, apperror.ErrForbiddenAddress
	}

	parts := partitionCart(in.CartItems)
	ref := uuid.NewString()
	replayRef := ""

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if in.IdempotencyKey != "" {
			prior, err := s.claimKey(ctx, tx, userID, in.IdempotencyKey, ref)
			if err != nil || prior != "" {
				replayRef = prior
				return err
			}
		}
		for _, p := range parts {
			if err := s.placeOrder(ctx, tx, userID, addr, ref, p); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return CheckoutResult{}, err
	}

	result := CheckoutResult{CheckoutRef: ref}
	if replayRef != "" {
		result = CheckoutResult{CheckoutRef: replayRef, Replayed: true}
	}
	result.Orders, err = s.orders.ListByCheckoutRef(ctx, userID, result.CheckoutRef)
	if err != nil {
		return CheckoutResult{}, apperror.Internal(err)
	}
	return result, nil
}

// claimKey records key for this checkout. If the user already used the key
// within the TTL it returns that checkout's ref instead.
func (s *CheckoutService) claimKey(ctx context.Context, tx *gorm.DB, userID uint, key, ref string) (string, error) {
	keys := s.keys.WithTx(tx)

	prior, err := keys.Find(ctx, userID, key)
	switch {
	case err == nil && prior.CreatedAt.After(s.opts.Now().Add(-s.opts.IdempotencyTTL)):
		return prior.CheckoutRef, nil
	case err == nil:
		if err := keys.Delete(ctx, prior.ID); err != nil {
			return "", apperror.Internal(err)
		}
	case !errors.Is(err, repositories.ErrNotFound):
		return "", apperror.Internal(err)
	}

	err = keys.Create(ctx, &models.CheckoutKey{
		UserID:         userID,
		IdempotencyKey: key,
		CheckoutRef:    ref,
		CreatedAt:      s.opts.Now().UTC(),
	})
	if errors.Is(err, repositories.ErrDuplicateKey) {
		return "", apperror.ErrIdempotencyKeyReused
	}
	if err != nil {
		return "", apperror.Internal(err)
	}
	return "", nil
}

func (s *CheckoutService) placeOrder(ctx context.Context, tx *gorm.DB, userID uint, addr models.Address, ref string, p partition) error {
	if s.opts.EnforceRadius {
		shop, err := s.shops.WithTx(tx).FindByID(ctx, p.shopID)
		if errors.Is(err, repositories.ErrNotFound) {
			return apperror.Withf(apperror.ErrProductUnavailable, "Shop %d does not exist", p.shopID)
		}
		if err != nil {
			return apperror.Internal(err)
		}
		if geo.DistanceKm(addr.Coordinate(), shop.Coordinate()) > s.opts.RadiusKm {
			return apperror.Withf(apperror.ErrShopOutOfRange,
				"%s is farther than %g km from the delivery address", shop.Name, s.opts.RadiusKm)
		}
	}

	inventory := s.inventory.WithTx(tx)
	productIDs := collection.Map(p.lines, func(l CartItem) uint { return l.ProductID })
	stock, err := inventory.GetAvailable(ctx, p.shopID, productIDs)
	if err != nil {
		return apperror.Internal(err)
	}

	order := models.Order{
		UserID:            userID,
		ShopID:            p.shopID,
		DeliveryAddressID: addr.ID,
		OrderStatus:       models.StatusPending,
		PaymentStatus:     models.PaymentPending,
		CheckoutRef:       ref,
		TotalAmount:       decimal.Zero,
	}
	for _, l := range p.lines {
		a, ok := stock[l.ProductID]
		if !ok || !a.IsAvailable {
			return apperror.Withf(apperror.ErrProductUnavailable,
				"Product %d is not available at shop %d", l.ProductID, p.shopID)
		}
		if l.Quantity > a.Quantity {
			return apperror.Withf(apperror.ErrInsufficientStock,
				"Only %d of product %d left at shop %d", a.Quantity, l.ProductID, p.shopID)
		}
		item := models.OrderItem{ProductID: l.ProductID, Quantity: l.Quantity, PricePerUnit: a.Price}
		order.Items = append(order.Items, item)
		order.TotalAmount = order.TotalAmount.Add(item.LineTotal())
	}
	if !order.TotalAmount.IsPositive() {
		return apperror.Withf(apperror.ErrInvalidOrderTotal, "Order total for shop %d must be positive", p.shopID)
	}

	if err := s.orders.WithTx(tx).Create(ctx, &order); err != nil {
		return apperror.Internal(err)
	}
	for _, l := range p.lines {
		if err := inventory.Reserve(ctx, p.shopID, l.ProductID, l.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// partitionCart groups items by shop in order of first appearance and
// merges repeated products within a shop.
func partitionCart(items []CartItem) []partition {
	byShop := collection.GroupBy(items, func(it CartItem) uint { return it.ShopID })
	return collection.Map(byShop, func(g collection.Group[uint, CartItem]) partition {
		byProduct := collection.GroupBy(g.Items, func(it CartItem) uint { return it.ProductID })
		lines := collection.Map(byProduct, func(pg collection.Group[uint, CartItem]) CartItem {
			merged := CartItem{ShopID: g.Key, ProductID: pg.Key}
			for _, it := range pg.Items {
				merged.Quantity += it.Quantity
			}
			return merged
		})
		return partition{shopID: g.Key, lines: lines}
	})
}

// PruneKeys deletes idempotency keys past their TTL.
func (s *CheckoutService) PruneKeys(ctx context.Context) (int64, error) {
	return s.keys.DeleteOlderThan(ctx, s.opts.Now().Add(-s.opts.IdempotencyTTL))
}
