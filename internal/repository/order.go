package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wdland/fastfood-ordering/internal/domain/order"
)

const (
	insertOrderSQL = `INSERT INTO orders
			(user_id, total_price, items, status, order_type, fast_food_id, delivery_address, delivery_city)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), NULLIF($8, ''))
		RETURNING id, created_at`

	clearCartItemsSQL = `DELETE FROM cart_items WHERE cart_id = $1`

	resetCartSQL = `UPDATE carts SET total_price = 0, coupon_id = NULL WHERE id = $1`

	listOrdersByUserSQL = `SELECT id, user_id, created_at, total_price, items, status, order_type,
			fast_food_id, COALESCE(delivery_address, ''), COALESCE(delivery_city, '')
		FROM orders WHERE user_id = $1 ORDER BY created_at DESC`

	listOrdersByFastFoodSQL = `SELECT id, user_id, created_at, total_price, items, status, order_type,
			fast_food_id, COALESCE(delivery_address, ''), COALESCE(delivery_city, '')
		FROM orders WHERE fast_food_id = $1 ORDER BY created_at DESC`

	updateOrderStatusSQL = `UPDATE orders SET status = $2 WHERE id = $1`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// CreateFromCart inserts the order, deletes the cart's items and resets its
// cached total and coupon, in one transaction. o.ID and o.CreatedAt are
// filled from the inserted row.
func (r *OrderRepository) CreateFromCart(ctx context.Context, o *order.Order, cartID int64) error {
	return inTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, insertOrderSQL,
			o.UserID, o.TotalPrice, o.Items, o.Status, o.Type,
			o.FastFoodID, o.DeliveryAddress, o.DeliveryCity,
		).Scan(&o.ID, &o.CreatedAt); err != nil {
			return fmt.Errorf("inserting order for user %d: %w", o.UserID, err)
		}

		if _, err := tx.Exec(ctx, clearCartItemsSQL, cartID); err != nil {
			return fmt.Errorf("clearing items for cart %d: %w", cartID, err)
		}

		if _, err := tx.Exec(ctx, resetCartSQL, cartID); err != nil {
			return fmt.Errorf("resetting cart %d: %w", cartID, err)
		}
		return nil
	})
}

// ListByUser returns the user's orders, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID int64) ([]order.Order, error) {
	return r.list(ctx, listOrdersByUserSQL, userID)
}

// ListByFastFood returns orders for one location, newest first.
func (r *OrderRepository) ListByFastFood(ctx context.Context, fastFoodID int64) ([]order.Order, error) {
	return r.list(ctx, listOrdersByFastFoodSQL, fastFoodID)
}

func (r *OrderRepository) list(ctx context.Context, sql string, arg any) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, sql, arg)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}

	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return orders, nil
}

// UpdateStatus sets the order's status. Returns order.ErrNotFound when the
// order does not exist.
func (r *OrderRepository) UpdateStatus(ctx context.Context, orderID int64, status order.Status) error {
	tag, err := r.pool.Exec(ctx, updateOrderStatusSQL, orderID, status)
	if err != nil {
		return fmt.Errorf("updating status for order %d: %w", orderID, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o      order.Order
		status string
		otype  string
	)
	err := row.Scan(&o.ID, &o.UserID, &o.CreatedAt, &o.TotalPrice, &o.Items,
		&status, &otype, &o.FastFoodID, &o.DeliveryAddress, &o.DeliveryCity)
	o.Status = order.Status(status)
	o.Type = order.Type(otype)
	return o, err
}
