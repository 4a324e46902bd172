// Package user implements registration and credential checks. Registration
// is a single transaction that creates the user, their cart, and their five
// welcome coupons together.
package user

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/wdland/fastfood-ordering/internal/domain/coupon"
)

var (
	// ErrNotFound is returned when a user does not exist.
	ErrNotFound = errors.New("user not found")
	// ErrUsernameTaken is returned when a registration username collides.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrInvalidCredentials is returned on a failed login.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// User is an account. IsRistoratore marks staff authorized for the order
// management view.
type User struct {
	ID            int64
	Username      string
	PasswordHash  string
	IsRistoratore bool
}

// Repository defines persistence operations for users.
type Repository interface {
	// Create inserts the user, an empty cart for them, and their welcome
	// coupons in one transaction. u.ID is filled in and stamped onto the
	// coupons. Returns ErrUsernameTaken on a username collision.
	Create(ctx context.Context, u *User, coupons []coupon.Coupon) error
	// GetByUsername returns the user with the given username, or ErrNotFound.
	GetByUsername(ctx context.Context, username string) (*User, error)
	// GetByID returns the user with the given id, or ErrNotFound.
	GetByID(ctx context.Context, id int64) (*User, error)
}
