// Package session holds the server-side login session entity. Only a
// peppered HMAC-SHA256 hash of the browser token is stored.
package session

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when no live session matches a token hash.
var ErrNotFound = errors.New("session not found")

// Session ties a hashed browser token to a user until it expires.
type Session struct {
	TokenHash string
	UserID    int64
	ExpiresAt time.Time
}

// Repository defines persistence operations for sessions.
type Repository interface {
	// Create stores a new session.
	Create(ctx context.Context, s *Session) error
	// FindByHash returns the unexpired session with the given token hash,
	// or ErrNotFound.
	FindByHash(ctx context.Context, tokenHash string) (*Session, error)
	// Delete removes a session by token hash. Deleting an absent session
	// is a no-op.
	Delete(ctx context.Context, tokenHash string) error
}
