// Package coupon implements the personal discount coupon lifecycle:
// issuance at registration, reveal, and one-time application to a cart.
package coupon

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidCode is returned when a coupon code does not resolve to an
	// active coupon owned by the requesting user.
	ErrInvalidCode = errors.New("invalid or already used coupon code")
	// ErrNotFound is returned when a coupon id does not resolve for the
	// requesting user.
	ErrNotFound = errors.New("coupon not found")
)

// Coupon is a single-use percentage discount owned by one user.
type Coupon struct {
	ID          int64
	UserID      int64
	Code        string
	Discount    int
	Description string
	IsActive    bool
	Revealed    bool
}

// Repository provides lookup and mutation of coupons.
type Repository interface {
	// ListActiveByUser returns the user's active coupons.
	ListActiveByUser(ctx context.Context, userID int64) ([]Coupon, error)
	// Reveal marks an active coupon owned by userID as revealed.
	// Returns ErrNotFound when no such coupon exists.
	Reveal(ctx context.Context, userID, couponID int64) (*Coupon, error)
	// AllCodes returns every coupon code in the store, active or not.
	AllCodes(ctx context.Context) ([]string, error)
}

var hundred = decimal.NewFromInt(100)

// DiscountAmount computes the monetary discount a coupon takes off the given
// subtotal: subtotal * discount / 100, rounded to 2 decimal places and never
// negative.
func (c Coupon) DiscountAmount(subtotal decimal.Decimal) decimal.Decimal {
	amount := subtotal.Mul(decimal.NewFromInt(int64(c.Discount))).Div(hundred)
	if amount.IsNegative() {
		return decimal.Zero
	}
	return amount.Round(2)
}
