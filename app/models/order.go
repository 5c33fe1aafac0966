package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the fulfilment state of an order.
type OrderStatus string

const (
	StatusPending        OrderStatus = "pending"
	StatusConfirmed      OrderStatus = "confirmed"
	StatusPreparing      OrderStatus = "preparing"
	StatusOutForDelivery OrderStatus = "out_for_delivery"
	StatusDelivered      OrderStatus = "delivered"
	StatusCancelled      OrderStatus = "cancelled"
	StatusFailed         OrderStatus = "failed"
)

// PaymentStatus is recorded but never advanced; payment capture is external.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

var transitions = map[OrderStatus][]OrderStatus{
	StatusPending:        {StatusConfirmed, StatusCancelled, StatusFailed},
	StatusConfirmed:      {StatusPreparing, StatusCancelled, StatusFailed},
	StatusPreparing:      {StatusOutForDelivery, StatusCancelled, StatusFailed},
	StatusOutForDelivery: {StatusDelivered, StatusCancelled, StatusFailed},
	StatusDelivered:      nil,
	StatusCancelled:      nil,
	StatusFailed:         nil,
}

// ParseOrderStatus accepts only the known status names.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	st := OrderStatus(s)
	_, ok := transitions[st]
	return st, ok
}

// OrderStatuses lists every status in lifecycle order.
func OrderStatuses() []OrderStatus {
	return []OrderStatus{
		StatusPending, StatusConfirmed, StatusPreparing, StatusOutForDelivery,
		StatusDelivered, StatusCancelled, StatusFailed,
	}
}

// CanTransitionTo reports whether next directly follows s.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s OrderStatus) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// ReleasesStock reports whether entering s must hand reserved units back
// to the shop.
func (s OrderStatus) ReleasesStock() bool {
	return s == StatusCancelled || s == StatusFailed
}

// Order is the purchase from a single shop. One checkout creates one order
// per shop, all sharing CheckoutRef.
type Order struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	UserID            uint            `gorm:"not null;index" json:"userId"`
	ShopID            uint            `gorm:"not null;index" json:"shopId"`
	DeliveryAddressID uint            `gorm:"not null" json:"deliveryAddressId"`
	TotalAmount       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"totalAmount"`
	OrderStatus       OrderStatus     `gorm:"size:32;not null;index" json:"orderStatus"`
	PaymentStatus     PaymentStatus   `gorm:"size:32;not null" json:"paymentStatus"`
	CheckoutRef       string          `gorm:"size:36;not null;index" json:"checkoutRef"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`

	Items []OrderItem `json:"items,omitempty"`
	Shop  *Shop       `json:"shop,omitempty"`
}

// OrderItem is a line of an order. PricePerUnit is a snapshot taken at
// checkout and never follows later inventory price changes.
type OrderItem struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	OrderID      uint            `gorm:"not null;index" json:"orderId"`
	ProductID    uint            `gorm:"not null;index" json:"productId"`
	Quantity     int             `gorm:"not null" json:"quantity"`
	PricePerUnit decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"pricePerUnit"`
	CreatedAt    time.Time       `json:"createdAt"`

	Product *Product `json:"product,omitempty"`
}

// LineTotal is PricePerUnit × Quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.PricePerUnit.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// CheckoutKey records an Idempotency-Key so a retried checkout returns the
// orders it already created.
type CheckoutKey struct {
	ID             uint      `gorm:"primaryKey"`
	UserID         uint      `gorm:"not null;uniqueIndex:idx_checkout_keys_user_key"`
	IdempotencyKey string    `gorm:"size:128;not null;uniqueIndex:idx_checkout_keys_user_key"`
	CheckoutRef    string    `gorm:"size:36;not null"`
	CreatedAt      time.Time `gorm:"index"`
}
