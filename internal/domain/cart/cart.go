// Package cart implements cart line-item mutation, pricing and coupon
// application. The stored cart total is a denormalized cache refreshed
// alongside every mutation; totals shown to the user are always derived
// from live line items.
package cart

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/wdland/fastfood-ordering/internal/domain/coupon"
)

var (
	// ErrItemNotFound is returned when a cart item does not exist or
	// belongs to another user's cart.
	ErrItemNotFound = errors.New("cart item not found")
	// ErrCouponAlreadyApplied is returned when the cart already carries a
	// coupon.
	ErrCouponAlreadyApplied = errors.New("a coupon is already applied to this cart")
)

// Cart is a user's single open cart.
type Cart struct {
	ID         int64
	UserID     int64
	Coupon     *coupon.Coupon
	TotalPrice decimal.Decimal
}

// Item is a (cart, product) line with its product denormalized for display
// and pricing.
type Item struct {
	ID          int64
	CartID      int64
	ProductID   int64
	ProductName string
	UnitPrice   decimal.Decimal
	Quantity    int
}

// Repository defines persistence operations for carts. Multi-step mutations
// (item upsert + cached-total refresh, coupon attach + deactivate) run in a
// single database transaction.
type Repository interface {
	// GetByUser returns the user's cart with its applied coupon, if any.
	GetByUser(ctx context.Context, userID int64) (*Cart, error)
	// Items returns the cart's lines joined with product data.
	Items(ctx context.Context, cartID int64) ([]Item, error)
	// AddItem inserts a line with quantity 1 or increments an existing
	// line, then refreshes the cached total.
	AddItem(ctx context.Context, cartID, productID int64) error
	// RemoveItem deletes a line scoped to the given cart and refreshes the
	// cached total. Returns ErrItemNotFound when the line does not belong
	// to the cart.
	RemoveItem(ctx context.Context, cartID, itemID int64) error
	// ApplyCoupon attaches the active coupon owned by userID with the
	// given code and deactivates it, atomically. Returns
	// coupon.ErrInvalidCode when the code does not resolve.
	ApplyCoupon(ctx context.Context, cartID, userID int64, code string) (*coupon.Coupon, error)
}

// Subtotal sums quantity * unit price across the given items.
func Subtotal(items []Item) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return sum
}

// Totals derives the cart's pricing from live line items: subtotal, the
// coupon discount (zero without a coupon), and the payable total, floored
// at zero.
func Totals(items []Item, c *coupon.Coupon) (subtotal, discount, total decimal.Decimal) {
	subtotal = Subtotal(items)
	discount = decimal.Zero
	if c != nil {
		discount = c.DiscountAmount(subtotal)
	}
	total = subtotal.Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	return subtotal, discount, total.Round(2)
}
