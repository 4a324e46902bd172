package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wdland/fastfood-ordering/internal/domain/fastfood"
)

const (
	listFastFoodsSQL = `SELECT id, name, address, latitude, longitude
		FROM fast_foods ORDER BY name`

	getFastFoodByIDSQL = `SELECT id, name, address, latitude, longitude
		FROM fast_foods WHERE id = $1`
)

var _ fastfood.Repository = (*FastFoodRepository)(nil)

// FastFoodRepository implements fastfood.Repository backed by PostgreSQL.
type FastFoodRepository struct {
	pool *pgxpool.Pool
}

// NewFastFoodRepository returns a FastFoodRepository that uses the given pool.
func NewFastFoodRepository(pool *pgxpool.Pool) *FastFoodRepository {
	return &FastFoodRepository{pool: pool}
}

// List returns all locations ordered by name.
func (r *FastFoodRepository) List(ctx context.Context) ([]fastfood.FastFood, error) {
	rows, err := r.pool.Query(ctx, listFastFoodsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing fast foods: %w", err)
	}

	ffs, err := pgx.CollectRows(rows, scanFastFood)
	if err != nil {
		return nil, fmt.Errorf("listing fast foods: %w", err)
	}
	return ffs, nil
}

// GetByID looks up a location by id. Returns fastfood.ErrNotFound when absent.
func (r *FastFoodRepository) GetByID(ctx context.Context, id int64) (*fastfood.FastFood, error) {
	rows, err := r.pool.Query(ctx, getFastFoodByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("finding fast food %d: %w", id, err)
	}

	ff, err := pgx.CollectExactlyOneRow(rows, scanFastFood)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fastfood.ErrNotFound
		}
		return nil, fmt.Errorf("finding fast food %d: %w", id, err)
	}
	return &ff, nil
}

func scanFastFood(row pgx.CollectableRow) (fastfood.FastFood, error) {
	var ff fastfood.FastFood
	err := row.Scan(&ff.ID, &ff.Name, &ff.Address, &ff.Latitude, &ff.Longitude)
	return ff, err
}
