// Package apperror defines the typed errors returned by nearcart services.
//
// Every error carries a Kind, which decides the HTTP status, and a stable
// Code that clients can branch on:
//
//	if errors.Is(err, apperror.ErrInsufficientStock) { ... }
//	return apperror.Wrap(apperror.ErrAddressNotFound, err)
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind groups errors by how the caller should react.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindForbidden  Kind = "forbidden"
	KindConflict   Kind = "conflict"
	KindInternal   Kind = "internal"
)

// Error is a classified application error.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return e.Code + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Code so a wrapped or re-messaged error still compares equal
// to its sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// HTTPStatus maps the error kind to a response status.
func (e *Error) HTTPStatus() int {
	return StatusOf(e.Kind)
}

// StatusOf maps a Kind to its HTTP status code.
func StatusOf(k Kind) int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func newErr(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

var (
	ErrEmptyCart          = newErr(KindValidation, "EMPTY_CART", "Cart is empty")
	ErrMissingAddress     = newErr(KindValidation, "MISSING_ADDRESS", "Delivery address is required")
	ErrInvalidCartItem    = newErr(KindValidation, "INVALID_CART_ITEM", "Cart item is invalid")
	ErrNoDefaultAddress   = newErr(KindValidation, "NO_DEFAULT_ADDRESS", "No default address set")
	ErrInvalidStatus      = newErr(KindValidation, "INVALID_STATUS", "Invalid order status")
	ErrInvalidRadius      = newErr(KindValidation, "INVALID_RADIUS", "Radius must be above 0 and at most 100 km")
	ErrIdempotencyKeyLong = newErr(KindValidation, "INVALID_IDEMPOTENCY_KEY", "Idempotency key must be at most 128 characters")
	ErrInvalidID          = newErr(KindValidation, "INVALID_ID", "Identifier must be a positive integer")

	ErrAddressNotFound = newErr(KindNotFound, "ADDRESS_NOT_FOUND", "Address not found")
	ErrOrderNotFound   = newErr(KindNotFound, "ORDER_NOT_FOUND", "Order not found")
	ErrShopNotFound    = newErr(KindNotFound, "SHOP_NOT_FOUND", "Shop not found")

	ErrForbiddenAddress = newErr(KindForbidden, "FORBIDDEN_ADDRESS", "Address does not belong to you")
	ErrUnauthorized     = newErr(KindForbidden, "UNAUTHORIZED", "You are not allowed to act on this resource")

	ErrProductUnavailable   = newErr(KindConflict, "PRODUCT_UNAVAILABLE", "Product is not available in this shop")
	ErrInsufficientStock    = newErr(KindConflict, "INSUFFICIENT_STOCK", "Insufficient stock")
	ErrInvalidOrderTotal    = newErr(KindConflict, "INVALID_ORDER_TOTAL", "Order total must be positive")
	ErrShopOutOfRange       = newErr(KindConflict, "SHOP_OUT_OF_RANGE", "Shop does not deliver to this address")
	ErrInvalidTransition    = newErr(KindConflict, "INVALID_TRANSITION", "Status transition is not allowed")
	ErrOrderConflict        = newErr(KindConflict, "ORDER_CONFLICT", "Order was modified concurrently")
	ErrIdempotencyKeyReused = newErr(KindConflict, "IDEMPOTENCY_KEY_REUSED", "Idempotency key is being processed")

	ErrInternal = newErr(KindInternal, "INTERNAL", "Internal server error")
)

// Wrap attaches a cause to a sentinel, keeping its kind and code.
func Wrap(sentinel *Error, cause error) *Error {
	return &Error{Kind: sentinel.Kind, Code: sentinel.Code, Message: sentinel.Message, Err: cause}
}

// Withf returns a copy of sentinel with a more specific message.
func Withf(sentinel *Error, format string, args ...any) *Error {
	return &Error{Kind: sentinel.Kind, Code: sentinel.Code, Message: fmt.Sprintf(format, args...)}
}

// Internal wraps an unexpected failure. The cause is kept for logging and
// never shown to clients.
func Internal(cause error) *Error {
	return Wrap(ErrInternal, cause)
}

// From extracts the *Error in err's chain, classifying anything else as
// internal.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Internal(err)
}
