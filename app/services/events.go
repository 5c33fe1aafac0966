// Package services holds nearcart's business operations: checkout, order
// fulfilment and proximity search. Services return *apperror.Error values so
// controllers can render them without knowing the rules behind them.
package services

import "github.com/shashiranjanraj/nearcart/app/models"

// Events fired after the owning transaction commits.
const (
	EventOrderPlaced        = "order.placed"
	EventOrderStatusChanged = "order.status_changed"
)

// OrderPlaced is the payload of EventOrderPlaced.
type OrderPlaced struct {
	Order models.Order
}

// OrderStatusChanged is the payload of EventOrderStatusChanged.
type OrderStatusChanged struct {
	Order   models.Order
	From    models.OrderStatus
	To      models.OrderStatus
	ActorID uint
}
