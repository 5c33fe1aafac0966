package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalogue item shared by every shop.
type Product struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Category    string    `gorm:"size:100;index" json:"category"`
	Name        string    `gorm:"size:255;not null;index" json:"name"`
	Brand       string    `gorm:"size:255" json:"brand"`
	Description string    `gorm:"type:text" json:"description"`
	Image       string    `gorm:"size:512" json:"image"`
	NetQuantity string    `gorm:"size:32" json:"netQuantity"`
	Unit        string    `gorm:"size:16" json:"unit"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// InventoryEntry is one shop's stock and price for one product. Quantity
// only ever changes through the conditional updates in the inventory
// repository, and entries are disabled rather than deleted.
type InventoryEntry struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	ShopID      uint            `gorm:"not null;uniqueIndex:idx_inventory_shop_product" json:"shopId"`
	ProductID   uint            `gorm:"not null;uniqueIndex:idx_inventory_shop_product;index" json:"productId"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Quantity    int             `gorm:"not null;default:0;check:chk_inventory_quantity,quantity >= 0" json:"quantity"`
	IsAvailable bool            `gorm:"not null" json:"isAvailable"`
	NetQuantity string          `gorm:"size:32" json:"netQuantity,omitempty"`
	Unit        string          `gorm:"size:16" json:"unit,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`

	Shop    Shop    `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
	Product Product `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
}

func (InventoryEntry) TableName() string { return "inventory_entries" }

// Sellable reports whether the entry can be shown to buyers at all.
func (e InventoryEntry) Sellable() bool {
	return e.IsAvailable && e.Quantity > 0
}
