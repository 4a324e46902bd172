// Package order implements checkout (snapshotting a cart into an immutable
// order) and the staff-facing order status updates.
package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Status is an order workflow state. The set is fixed but no transition
// graph is enforced: staff may set any status after any other.
type Status string

const (
	StatusReceived   Status = "ORDINE RICEVUTO"
	StatusPreparing  Status = "IN PREPARAZIONE"
	StatusDelivering Status = "IN CONSEGNA"
	StatusDelivered  Status = "CONSEGNATO"
)

// Valid reports whether s is a member of the status enum.
func (s Status) Valid() bool {
	switch s {
	case StatusReceived, StatusPreparing, StatusDelivering, StatusDelivered:
		return true
	}
	return false
}

// Type distinguishes delivery orders from on-site pickup.
type Type string

const (
	TypeDelivery Type = "DELIVERY"
	TypeInLoco   Type = "IN LOCO"
)

// Sentinel errors for checkout validation and lookups.
var (
	ErrNotFound               = errors.New("order not found")
	ErrEmptyCart              = errors.New("cart is empty")
	ErrDeliveryFieldsRequired = errors.New("address and city are required for delivery")
	ErrFastFoodRequired       = errors.New("a fast food must be selected for on-site pickup")
	ErrUnknownStatus          = errors.New("unknown order status")
)

// Order is an immutable snapshot of a checked-out cart. Only Status is ever
// mutated, by staff.
type Order struct {
	ID              int64
	UserID          int64
	CreatedAt       time.Time
	TotalPrice      decimal.Decimal
	Items           string
	Status          Status
	Type            Type
	FastFoodID      *int64
	DeliveryAddress string
	DeliveryCity    string
}

// Repository defines persistence operations for orders. CreateFromCart is
// the five-part checkout mutation and must run in a single transaction.
type Repository interface {
	// CreateFromCart inserts the order, deletes all of the cart's items,
	// zeroes its cached total and clears its coupon, atomically. The
	// created order's ID and CreatedAt are filled in.
	CreateFromCart(ctx context.Context, o *Order, cartID int64) error
	// ListByUser returns the user's orders, newest first.
	ListByUser(ctx context.Context, userID int64) ([]Order, error)
	// ListByFastFood returns orders for one location, newest first.
	ListByFastFood(ctx context.Context, fastFoodID int64) ([]Order, error)
	// UpdateStatus sets the order's status. Returns ErrNotFound when the
	// order does not exist.
	UpdateStatus(ctx context.Context, orderID int64, status Status) error
}
