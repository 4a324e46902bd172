package user

import (
	"context"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wdland/fastfood-ordering/internal/domain/coupon"
)

// --- Mock implementations ---

type mockUserRepo struct {
	byUsername  map[string]*User
	lastCoupons []coupon.Coupon
	createErr   error
}

func (m *mockUserRepo) Create(_ context.Context, u *User, coupons []coupon.Coupon) error {
	if m.createErr != nil {
		return m.createErr
	}
	u.ID = 7
	m.lastCoupons = coupons
	return nil
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*User, error) {
	u, ok := m.byUsername[username]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

func (m *mockUserRepo) GetByID(_ context.Context, _ int64) (*User, error) {
	return nil, ErrNotFound
}

// --- Helpers ---

func hashOf(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

// --- Tests ---

func TestRegister_IssuesWelcomeCoupons(t *testing.T) {
	repo := &mockUserRepo{}
	svc := NewService(repo, coupon.NewIssuer())

	u, err := svc.Register(context.Background(), "mario", "segreto")
	require.NoError(t, err)

	assert.EqualValues(t, 7, u.ID)
	assert.Equal(t, "mario", u.Username)
	assert.NotEqual(t, "segreto", u.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("segreto")))

	require.Len(t, repo.lastCoupons, coupon.IssuePerUser)
	codes := make(map[string]struct{})
	for _, c := range repo.lastCoupons {
		codes[c.Code] = struct{}{}
		assert.True(t, c.IsActive)
	}
	assert.Len(t, codes, coupon.IssuePerUser, "codes must be unique")
}

func TestRegister_EmptyFields(t *testing.T) {
	svc := NewService(&mockUserRepo{}, coupon.NewIssuer())

	_, err := svc.Register(context.Background(), "", "segreto")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Register(context.Background(), "mario", "")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegister_UsernameTaken(t *testing.T) {
	repo := &mockUserRepo{createErr: ErrUsernameTaken}
	svc := NewService(repo, coupon.NewIssuer())

	_, err := svc.Register(context.Background(), "mario", "segreto")
	require.ErrorIs(t, err, ErrUsernameTaken)
}

func TestAuthenticate(t *testing.T) {
	repo := &mockUserRepo{byUsername: map[string]*User{
		"mario": {ID: 7, Username: "mario", PasswordHash: hashOf(t, "segreto")},
	}}
	svc := NewService(repo, coupon.NewIssuer())

	u, err := svc.Authenticate(context.Background(), "mario", "segreto")
	require.NoError(t, err)
	assert.EqualValues(t, 7, u.ID)

	_, err = svc.Authenticate(context.Background(), "mario", "sbagliata")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(context.Background(), "luigi", "segreto")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateRistoratore(t *testing.T) {
	repo := &mockUserRepo{byUsername: map[string]*User{
		"mario": {ID: 7, Username: "mario", PasswordHash: hashOf(t, "segreto")},
		"anna":  {ID: 8, Username: "anna", PasswordHash: hashOf(t, "segreto"), IsRistoratore: true},
	}}
	svc := NewService(repo, coupon.NewIssuer())

	u, err := svc.AuthenticateRistoratore(context.Background(), "anna", "segreto")
	require.NoError(t, err)
	assert.True(t, u.IsRistoratore)

	// Valid credentials but not staff.
	_, err = svc.AuthenticateRistoratore(context.Background(), "mario", "segreto")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}
