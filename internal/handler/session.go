package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/wdland/fastfood-ordering/internal/domain/session"
	"github.com/wdland/fastfood-ordering/internal/domain/user"
)

const sessionCookie = "session_token"

// currentUserKey is the context key for the authenticated user.
type currentUserKey struct{}

// UserFromContext extracts the authenticated user, or nil.
func UserFromContext(ctx context.Context) *user.User {
	u, _ := ctx.Value(currentUserKey{}).(*user.User)
	return u
}

// Sessions mints and resolves login sessions. The browser holds a random
// UUID token in an HttpOnly cookie; the store only ever sees a peppered
// HMAC-SHA256 hash of it, so a leaked sessions table cannot be replayed.
type Sessions struct {
	store  session.Repository
	users  user.Repository
	pepper []byte
	ttl    time.Duration
}

// NewSessions creates a session manager.
func NewSessions(store session.Repository, users user.Repository, pepper []byte, ttl time.Duration) *Sessions {
	return &Sessions{store: store, users: users, pepper: pepper, ttl: ttl}
}

func (s *Sessions) hash(token string) string {
	mac := hmac.New(sha256.New, s.pepper)
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}

// Issue creates a session for the user and sets the cookie.
func (s *Sessions) Issue(ctx context.Context, w http.ResponseWriter, userID int64) error {
	token := uuid.New().String()

	if err := s.store.Create(ctx, &session.Session{
		TokenHash: s.hash(token),
		UserID:    userID,
		ExpiresAt: time.Now().Add(s.ttl),
	}); err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear destroys the request's session, if any, and expires the cookie.
func (s *Sessions) Clear(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookie); err == nil {
		_ = s.store.Delete(ctx, s.hash(c.Value))
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// CurrentUser resolves the session cookie to a user and stores it in the
// request context. Requests without a valid session pass through
// unauthenticated.
func (s *Sessions) CurrentUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(sessionCookie)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		sess, err := s.store.FindByHash(r.Context(), s.hash(c.Value))
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		u, err := s.users.GetByID(r.Context(), sess.UserID)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), currentUserKey{}, u)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireUser redirects unauthenticated requests to the customer login.
func (h *Handler) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserFromContext(r.Context()) == nil {
			http.Redirect(w, r, "/login/?next="+r.URL.Path, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireRistoratore redirects non-staff requests to the staff login.
func (h *Handler) requireRistoratore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := UserFromContext(r.Context())
		if u == nil || !u.IsRistoratore {
			http.Redirect(w, r, "/ristoratore/login/", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
