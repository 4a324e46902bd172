package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wdland/fastfood-ordering/internal/domain/session"
)

const (
	insertSessionSQL = `INSERT INTO sessions (token_hash, user_id, expires_at)
		VALUES ($1, $2, $3)`

	getSessionSQL = `SELECT token_hash, user_id, expires_at
		FROM sessions WHERE token_hash = $1 AND expires_at > now()`

	deleteSessionSQL = `DELETE FROM sessions WHERE token_hash = $1`
)

var _ session.Repository = (*SessionRepository)(nil)

// SessionRepository implements session.Repository backed by PostgreSQL.
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository returns a SessionRepository that uses the given pool.
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// Create stores a new session.
func (r *SessionRepository) Create(ctx context.Context, s *session.Session) error {
	_, err := r.pool.Exec(ctx, insertSessionSQL, s.TokenHash, s.UserID, s.ExpiresAt)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}
	return nil
}

// FindByHash returns the unexpired session with the given token hash.
// Returns session.ErrNotFound when absent or expired.
func (r *SessionRepository) FindByHash(ctx context.Context, tokenHash string) (*session.Session, error) {
	rows, err := r.pool.Query(ctx, getSessionSQL, tokenHash)
	if err != nil {
		return nil, fmt.Errorf("finding session: %w", err)
	}

	s, err := pgx.CollectExactlyOneRow(rows, func(row pgx.CollectableRow) (session.Session, error) {
		var s session.Session
		err := row.Scan(&s.TokenHash, &s.UserID, &s.ExpiresAt)
		return s, err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, session.ErrNotFound
		}
		return nil, fmt.Errorf("finding session: %w", err)
	}
	return &s, nil
}

// Delete removes a session by token hash.
func (r *SessionRepository) Delete(ctx context.Context, tokenHash string) error {
	if _, err := r.pool.Exec(ctx, deleteSessionSQL, tokenHash); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}
