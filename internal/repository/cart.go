package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wdland/fastfood-ordering/internal/domain/cart"
	"github.com/wdland/fastfood-ordering/internal/domain/coupon"
)

const (
	getCartByUserSQL = `SELECT c.id, c.user_id, c.total_price,
			cp.id, cp.user_id, cp.code, cp.discount, cp.description, cp.is_active, cp.revealed
		FROM carts c
		LEFT JOIN coupons cp ON cp.id = c.coupon_id
		WHERE c.user_id = $1`

	listCartItemsSQL = `SELECT ci.id, ci.cart_id, ci.product_id, p.name, p.price, ci.quantity
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.id`

	upsertCartItemSQL = `INSERT INTO cart_items (cart_id, product_id, quantity)
		VALUES ($1, $2, 1)
		ON CONFLICT (cart_id, product_id) DO UPDATE SET quantity = cart_items.quantity + 1`

	deleteCartItemSQL = `DELETE FROM cart_items WHERE id = $1 AND cart_id = $2`

	// The stored total is a cache; it is refreshed from live line items in
	// the same transaction as every item mutation.
	refreshCartTotalSQL = `UPDATE carts SET total_price = COALESCE((
			SELECT SUM(p.price * ci.quantity)
			FROM cart_items ci JOIN products p ON p.id = ci.product_id
			WHERE ci.cart_id = carts.id
		), 0)
		WHERE id = $1`

	getCouponForUpdateSQL = `SELECT id, user_id, code, discount, description, is_active, revealed
		FROM coupons
		WHERE code = $1 AND user_id = $2 AND is_active
		FOR UPDATE`

	attachCouponSQL     = `UPDATE carts SET coupon_id = $1 WHERE id = $2 AND coupon_id IS NULL`
	deactivateCouponSQL = `UPDATE coupons SET is_active = FALSE WHERE id = $1`
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// GetByUser returns the user's cart with its applied coupon joined in.
func (r *CartRepository) GetByUser(ctx context.Context, userID int64) (*cart.Cart, error) {
	rows, err := r.pool.Query(ctx, getCartByUserSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("finding cart for user %d: %w", userID, err)
	}

	// Every user gets a cart at registration, so no-rows here is a data
	// integrity error, not a NotFound.
	c, err := pgx.CollectExactlyOneRow(rows, scanCartWithCoupon)
	if err != nil {
		return nil, fmt.Errorf("finding cart for user %d: %w", userID, err)
	}
	return &c, nil
}

// Items returns the cart's lines joined with product name and price.
func (r *CartRepository) Items(ctx context.Context, cartID int64) ([]cart.Item, error) {
	rows, err := r.pool.Query(ctx, listCartItemsSQL, cartID)
	if err != nil {
		return nil, fmt.Errorf("listing items for cart %d: %w", cartID, err)
	}

	items, err := pgx.CollectRows(rows, scanCartItem)
	if err != nil {
		return nil, fmt.Errorf("listing items for cart %d: %w", cartID, err)
	}
	return items, nil
}

// AddItem upserts a line (quantity 1 or +1) and refreshes the cached total,
// in one transaction.
func (r *CartRepository) AddItem(ctx context.Context, cartID, productID int64) error {
	return inTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, upsertCartItemSQL, cartID, productID); err != nil {
			return fmt.Errorf("upserting item for cart %d: %w", cartID, err)
		}
		if _, err := tx.Exec(ctx, refreshCartTotalSQL, cartID); err != nil {
			return fmt.Errorf("refreshing total for cart %d: %w", cartID, err)
		}
		return nil
	})
}

// RemoveItem deletes a line scoped to the cart and refreshes the cached
// total. Returns cart.ErrItemNotFound when the line is absent or belongs to
// a different cart.
func (r *CartRepository) RemoveItem(ctx context.Context, cartID, itemID int64) error {
	return inTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, deleteCartItemSQL, itemID, cartID)
		if err != nil {
			return fmt.Errorf("deleting item %d: %w", itemID, err)
		}
		if tag.RowsAffected() == 0 {
			return cart.ErrItemNotFound
		}
		if _, err := tx.Exec(ctx, refreshCartTotalSQL, cartID); err != nil {
			return fmt.Errorf("refreshing total for cart %d: %w", cartID, err)
		}
		return nil
	})
}

// ApplyCoupon locks the active coupon owned by userID with the given code,
// attaches it to the cart, and deactivates it, all in one transaction.
// Returns coupon.ErrInvalidCode when no such coupon exists, and
// cart.ErrCouponAlreadyApplied when the cart picked up a coupon since the
// caller last looked.
func (r *CartRepository) ApplyCoupon(ctx context.Context, cartID, userID int64, code string) (*coupon.Coupon, error) {
	var applied coupon.Coupon
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, getCouponForUpdateSQL, code, userID)
		if err != nil {
			return fmt.Errorf("finding coupon %q: %w", code, err)
		}

		applied, err = pgx.CollectExactlyOneRow(rows, scanCoupon)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return coupon.ErrInvalidCode
			}
			return fmt.Errorf("finding coupon %q: %w", code, err)
		}

		tag, err := tx.Exec(ctx, attachCouponSQL, applied.ID, cartID)
		if err != nil {
			return fmt.Errorf("attaching coupon to cart %d: %w", cartID, err)
		}
		if tag.RowsAffected() == 0 {
			return cart.ErrCouponAlreadyApplied
		}

		if _, err := tx.Exec(ctx, deactivateCouponSQL, applied.ID); err != nil {
			return fmt.Errorf("deactivating coupon %d: %w", applied.ID, err)
		}
		applied.IsActive = false
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &applied, nil
}

func scanCartWithCoupon(row pgx.CollectableRow) (cart.Cart, error) {
	var (
		c           cart.Cart
		couponID    *int64
		couponUser  *int64
		code        *string
		discount    *int
		description *string
		isActive    *bool
		revealed    *bool
	)
	err := row.Scan(&c.ID, &c.UserID, &c.TotalPrice,
		&couponID, &couponUser, &code, &discount, &description, &isActive, &revealed)
	if err != nil {
		return c, err
	}
	if couponID != nil {
		c.Coupon = &coupon.Coupon{
			ID:          *couponID,
			UserID:      *couponUser,
			Code:        *code,
			Discount:    *discount,
			Description: *description,
			IsActive:    *isActive,
			Revealed:    *revealed,
		}
	}
	return c, nil
}

func scanCartItem(row pgx.CollectableRow) (cart.Item, error) {
	var it cart.Item
	err := row.Scan(&it.ID, &it.CartID, &it.ProductID, &it.ProductName, &it.UnitPrice, &it.Quantity)
	return it, err
}
