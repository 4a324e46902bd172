package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wdland/fastfood-ordering/internal/domain/coupon"
)

const (
	listActiveCouponsSQL = `SELECT id, user_id, code, discount, description, is_active, revealed
		FROM coupons WHERE user_id = $1 AND is_active ORDER BY id`

	revealCouponSQL = `UPDATE coupons SET revealed = TRUE
		WHERE id = $1 AND user_id = $2 AND is_active
		RETURNING id, user_id, code, discount, description, is_active, revealed`

	allCouponCodesSQL = `SELECT code FROM coupons`
)

var _ coupon.Repository = (*CouponRepository)(nil)

// CouponRepository implements coupon.Repository backed by PostgreSQL.
type CouponRepository struct {
	pool *pgxpool.Pool
}

// NewCouponRepository returns a CouponRepository that uses the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// ListActiveByUser returns the user's active coupons ordered by id.
func (r *CouponRepository) ListActiveByUser(ctx context.Context, userID int64) ([]coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, listActiveCouponsSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing coupons for user %d: %w", userID, err)
	}

	coupons, err := pgx.CollectRows(rows, scanCoupon)
	if err != nil {
		return nil, fmt.Errorf("listing coupons for user %d: %w", userID, err)
	}
	return coupons, nil
}

// Reveal marks an active coupon owned by userID as revealed and returns it.
// Returns coupon.ErrNotFound when the coupon is absent, inactive, or owned
// by someone else.
func (r *CouponRepository) Reveal(ctx context.Context, userID, couponID int64) (*coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, revealCouponSQL, couponID, userID)
	if err != nil {
		return nil, fmt.Errorf("revealing coupon %d: %w", couponID, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrNotFound
		}
		return nil, fmt.Errorf("revealing coupon %d: %w", couponID, err)
	}
	return &c, nil
}

// AllCodes returns every coupon code in the store. Used to seed the
// issuer's duplicate filter at startup.
func (r *CouponRepository) AllCodes(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, allCouponCodesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing coupon codes: %w", err)
	}

	codes, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (string, error) {
		var code string
		err := row.Scan(&code)
		return code, err
	})
	if err != nil {
		return nil, fmt.Errorf("listing coupon codes: %w", err)
	}
	return codes, nil
}

func scanCoupon(row pgx.CollectableRow) (coupon.Coupon, error) {
	var c coupon.Coupon
	err := row.Scan(&c.ID, &c.UserID, &c.Code, &c.Discount, &c.Description, &c.IsActive, &c.Revealed)
	return c, err
}
