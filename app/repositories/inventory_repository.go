package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/nearcart/app/models"
	"github.com/shashiranjanraj/nearcart/pkg/apperror"
	"github.com/shashiranjanraj/nearcart/pkg/metrics"
)

// Availability is a shop's current offer for one product.
type Availability struct {
	ProductID   uint
	Price       decimal.Decimal
	Quantity    int
	IsAvailable bool
}

// SearchRow is a sellable inventory entry joined with its product.
type SearchRow struct {
	EntryID     uint
	ShopID      uint
	ProductID   uint
	Price       decimal.Decimal
	Quantity    int
	NetQuantity string
	Unit        string

	Name               string
	Brand              string
	Category           string
	Description        string
	Image              string
	ProductNetQuantity string
	ProductUnit        string
}

// InventoryRepository is the stock ledger. Quantities change only through
// Reserve and Restore, both single conditional UPDATE statements, so
// concurrent checkouts can never drive stock below zero.
type InventoryRepository struct {
	db *gorm.DB
}

func NewInventoryRepository(db *gorm.DB) *InventoryRepository {
	return &InventoryRepository{db: db}
}

// WithTx returns a ledger whose statements run inside tx.
func (r *InventoryRepository) WithTx(tx *gorm.DB) *InventoryRepository {
	return &InventoryRepository{db: tx}
}

// GetAvailable loads the shop's entries for productIDs keyed by product id.
// Disabled entries are included with IsAvailable=false; products the shop
// never stocked are absent.
func (r *InventoryRepository) GetAvailable(ctx context.Context, shopID uint, productIDs []uint) (map[uint]Availability, error) {
	out := make(map[uint]Availability, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}

	var entries []models.InventoryEntry
	err := r.db.WithContext(ctx).
		Where("shop_id = ? AND product_id IN ?", shopID, productIDs).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("inventory: load shop %d: %w", shopID, err)
	}
	for _, e := range entries {
		out[e.ProductID] = Availability{
			ProductID:   e.ProductID,
			Price:       e.Price,
			Quantity:    e.Quantity,
			IsAvailable: e.IsAvailable,
		}
	}
	return out, nil
}

// Reserve takes qty units out of stock. It fails with ErrInsufficientStock
// when the entry is missing, disabled or holds fewer than qty units.
func (r *InventoryRepository) Reserve(ctx context.Context, shopID, productID uint, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("inventory: reserve quantity must be positive, got %d", qty)
	}

	res := r.db.WithContext(ctx).Model(&models.InventoryEntry{}).
		Where("shop_id = ? AND product_id = ? AND is_available = ? AND quantity >= ?", shopID, productID, true, qty).
		Update("quantity", gorm.Expr("quantity - ?", qty))
	if res.Error != nil {
		return fmt.Errorf("inventory: reserve %d of product %d at shop %d: %w", qty, productID, shopID, res.Error)
	}
	if res.RowsAffected == 0 {
		metrics.StockReservations.WithLabelValues("insufficient").Inc()
		return apperror.Withf(apperror.ErrInsufficientStock,
			"Insufficient stock for product %d at shop %d", productID, shopID)
	}
	metrics.StockReservations.WithLabelValues("reserved").Inc()
	return nil
}

// Restore puts qty units back. It is not idempotent; callers must apply it
// once per cancelled line.
func (r *InventoryRepository) Restore(ctx context.Context, shopID, productID uint, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("inventory: restore quantity must be positive, got %d", qty)
	}

	res := r.db.WithContext(ctx).Model(&models.InventoryEntry{}).
		Where("shop_id = ? AND product_id = ?", shopID, productID).
		Update("quantity", gorm.Expr("quantity + ?", qty))
	if res.Error != nil {
		return fmt.Errorf("inventory: restore %d of product %d at shop %d: %w", qty, productID, shopID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("inventory: restore product %d at shop %d: %w", productID, shopID, ErrNotFound)
	}
	return nil
}

// Find returns a single entry.
func (r *InventoryRepository) Find(ctx context.Context, shopID, productID uint) (models.InventoryEntry, error) {
	var e models.InventoryEntry
	err := r.db.WithContext(ctx).
		Where("shop_id = ? AND product_id = ?", shopID, productID).
		First(&e).Error
	return e, notFound(err)
}

// Search returns the sellable entries of shopIDs whose product name, brand
// or description contains term, ignoring case.
func (r *InventoryRepository) Search(ctx context.Context, shopIDs []uint, term string) ([]SearchRow, error) {
	var rows []SearchRow
	if len(shopIDs) == 0 || strings.TrimSpace(term) == "" {
		return rows, nil
	}
	pattern := "%" + escapeLike(strings.ToLower(strings.TrimSpace(term))) + "%"

	err := r.db.WithContext(ctx).
		Table("inventory_entries").
		Select(`inventory_entries.id AS entry_id, inventory_entries.shop_id, inventory_entries.product_id,
			inventory_entries.price, inventory_entries.quantity,
			inventory_entries.net_quantity, inventory_entries.unit,
			products.name, products.brand, products.category, products.description, products.image,
			products.net_quantity AS product_net_quantity, products.unit AS product_unit`).
		Joins("JOIN products ON products.id = inventory_entries.product_id").
		Where("inventory_entries.shop_id IN ?", shopIDs).
		Where("inventory_entries.is_available = ? AND inventory_entries.quantity > ?", true, 0).
		Where("(LOWER(products.name) LIKE ? ESCAPE '!' OR LOWER(products.brand) LIKE ? ESCAPE '!' OR LOWER(products.description) LIKE ? ESCAPE '!')",
			pattern, pattern, pattern).
		Order("inventory_entries.product_id").Order("inventory_entries.shop_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("inventory: search %q: %w", term, err)
	}
	return rows, nil
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func escapeLike(s string) string { return likeEscaper.Replace(s) }
