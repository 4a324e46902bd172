package user

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/wdland/fastfood-ordering/internal/domain/coupon"
)

// Service encapsulates registration and login.
type Service struct {
	users  Repository
	issuer *coupon.Issuer
}

// NewService creates a user Service.
func NewService(users Repository, issuer *coupon.Issuer) *Service {
	return &Service{users: users, issuer: issuer}
}

// Register creates an account with a hashed password, an empty cart, and
// five freshly issued coupons, all in one transaction.
func (s *Service) Register(ctx context.Context, username, password string) (*User, error) {
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	coupons, err := s.issuer.Issue(0, coupon.IssuePerUser)
	if err != nil {
		return nil, fmt.Errorf("issue coupons: %w", err)
	}

	u := &User{
		Username:     username,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, u, coupons); err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// Authenticate verifies a username/password pair.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// AuthenticateRistoratore verifies credentials and that the account is
// staff. Non-staff accounts fail with ErrInvalidCredentials, matching the
// staff login form's behaviour.
func (s *Service) AuthenticateRistoratore(ctx context.Context, username, password string) (*User, error) {
	u, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}
	if !u.IsRistoratore {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}
