package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wdland/fastfood-ordering/internal/domain/coupon"
	"github.com/wdland/fastfood-ordering/internal/domain/user"
)

const (
	insertUserSQL = `INSERT INTO users (username, password_hash, is_ristoratore)
		VALUES ($1, $2, $3) RETURNING id`

	insertCartSQL = `INSERT INTO carts (user_id) VALUES ($1)`

	insertCouponSQL = `INSERT INTO coupons (user_id, code, discount, description, is_active)
		VALUES ($1, $2, $3, $4, $5)`

	getUserByUsernameSQL = `SELECT id, username, password_hash, is_ristoratore
		FROM users WHERE username = $1`

	getUserByIDSQL = `SELECT id, username, password_hash, is_ristoratore
		FROM users WHERE id = $1`
)

// uniqueViolation is the PostgreSQL error code for unique constraint breaks.
const uniqueViolation = "23505"

var _ user.Repository = (*UserRepository)(nil)

// UserRepository implements user.Repository backed by PostgreSQL.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a UserRepository that uses the given pool.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create inserts the user, their empty cart, and their welcome coupons in
// one transaction. The generated user id is stamped onto u and the coupons.
func (r *UserRepository) Create(ctx context.Context, u *user.User, coupons []coupon.Coupon) error {
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, insertUserSQL,
			u.Username, u.PasswordHash, u.IsRistoratore,
		).Scan(&u.ID); err != nil {
			return fmt.Errorf("inserting user %q: %w", u.Username, err)
		}

		if _, err := tx.Exec(ctx, insertCartSQL, u.ID); err != nil {
			return fmt.Errorf("inserting cart for user %d: %w", u.ID, err)
		}

		for i := range coupons {
			coupons[i].UserID = u.ID
			c := coupons[i]
			if _, err := tx.Exec(ctx, insertCouponSQL,
				c.UserID, c.Code, c.Discount, c.Description, c.IsActive,
			); err != nil {
				return fmt.Errorf("inserting coupon %q: %w", c.Code, err)
			}
		}
		return nil
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == "users_username_key" {
			return user.ErrUsernameTaken
		}
		return err
	}
	return nil
}

// GetByUsername looks up a user by username. Returns user.ErrNotFound when
// absent.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	return r.getOne(ctx, getUserByUsernameSQL, username)
}

// GetByID looks up a user by id. Returns user.ErrNotFound when absent.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	return r.getOne(ctx, getUserByIDSQL, id)
}

func (r *UserRepository) getOne(ctx context.Context, sql string, arg any) (*user.User, error) {
	rows, err := r.pool.Query(ctx, sql, arg)
	if err != nil {
		return nil, fmt.Errorf("finding user: %w", err)
	}

	u, err := pgx.CollectExactlyOneRow(rows, scanUser)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("finding user: %w", err)
	}
	return &u, nil
}

func scanUser(row pgx.CollectableRow) (user.User, error) {
	var u user.User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.IsRistoratore)
	return u, err
}
