// Package controllers adapts HTTP requests to the services in app/services.
package controllers

import (
	"net/http"

	"github.com/shashiranjanraj/nearcart/app/models"
	"github.com/shashiranjanraj/nearcart/app/services"
	"github.com/shashiranjanraj/nearcart/pkg/apperror"
	"github.com/shashiranjanraj/nearcart/pkg/ctx"
	"github.com/shashiranjanraj/nearcart/pkg/orm"
	"github.com/shashiranjanraj/nearcart/pkg/response"
)

// OrderController serves checkout and the order endpoints.
type OrderController struct {
	checkout *services.CheckoutService
	orders   *services.OrderService
}

func NewOrderController(checkout *services.CheckoutService, orders *services.OrderService) *OrderController {
	return &OrderController{checkout: checkout, orders: orders}
}

type checkoutResponse struct {
	Success     bool           `json:"success"`
	CheckoutRef string         `json:"checkoutRef"`
	Orders      []models.Order `json:"orders"`
}

// Checkout places one order per shop in the cart.
//
//	POST /order/checkout
//	Idempotency-Key: <optional>
//	{"cartItems":[{"productId":1,"shopId":1,"quantity":2}],"addressId":1}
func (oc *OrderController) Checkout(c *ctx.Context) {
	var in services.CheckoutInput
	if !c.BindJSON(&in) {
		return
	}
	in.IdempotencyKey = c.Header("Idempotency-Key")

	res, err := oc.checkout.Checkout(c.Context(), c.UserID(), in)
	if err != nil {
		c.Fail(err)
		return
	}

	status := http.StatusCreated
	if res.Replayed {
		status = http.StatusOK
	}
	c.JSON(status, checkoutResponse{Success: true, CheckoutRef: res.CheckoutRef, Orders: res.Orders})
}

// UserOrders lists the caller's orders.
func (oc *OrderController) UserOrders(c *ctx.Context) {
	orders, page, err := oc.orders.ListForUser(c.Context(), c.UserID(), pagination(c))
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(response.Page{Items: orders, Pagination: page})
}

// ShopOrders lists the orders of a shop the caller owns.
func (oc *OrderController) ShopOrders(c *ctx.Context) {
	shopID, ok := c.ParamUint("shopId")
	if !ok {
		c.Fail(apperror.ErrInvalidID)
		return
	}
	orders, page, err := oc.orders.ListForShop(c.Context(), shopID, c.UserID(), pagination(c))
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(response.Page{Items: orders, Pagination: page})
}

// Show returns one order to its buyer or the shop owner.
func (oc *OrderController) Show(c *ctx.Context) {
	orderID, ok := c.ParamUint("orderId")
	if !ok {
		c.Fail(apperror.ErrInvalidID)
		return
	}
	order, err := oc.orders.Get(c.Context(), orderID, c.UserID())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(order)
}

// UpdateStatusInput is the body of PUT /order/{orderId}/status.
type UpdateStatusInput struct {
	Status string `json:"status"`
}

// UpdateStatus moves an order one step along its lifecycle.
func (oc *OrderController) UpdateStatus(c *ctx.Context) {
	orderID, ok := c.ParamUint("orderId")
	if !ok {
		c.Fail(apperror.ErrInvalidID)
		return
	}
	var in UpdateStatusInput
	if !c.BindJSON(&in) {
		return
	}

	order, err := oc.orders.UpdateStatus(c.Context(), orderID, in.Status, c.UserID())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(order)
}

func pagination(c *ctx.Context) orm.Pagination {
	return orm.NewPagination(c.QueryInt("page", 1), c.QueryInt("limit", orm.DefaultPageSize))
}
