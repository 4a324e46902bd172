package cart

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wdland/fastfood-ordering/internal/domain/coupon"
	"github.com/wdland/fastfood-ordering/internal/domain/product"
)

// --- Mock implementations ---

type mockCartRepo struct {
	cart       *Cart
	items      []Item
	applied    *coupon.Coupon
	applyErr   error
	addCalls   []int64
	removeErr  error
	removedIDs []int64
}

func (m *mockCartRepo) GetByUser(_ context.Context, _ int64) (*Cart, error) {
	return m.cart, nil
}

func (m *mockCartRepo) Items(_ context.Context, _ int64) ([]Item, error) {
	return m.items, nil
}

func (m *mockCartRepo) AddItem(_ context.Context, _, productID int64) error {
	m.addCalls = append(m.addCalls, productID)
	return nil
}

func (m *mockCartRepo) RemoveItem(_ context.Context, _, itemID int64) error {
	if m.removeErr != nil {
		return m.removeErr
	}
	m.removedIDs = append(m.removedIDs, itemID)
	return nil
}

func (m *mockCartRepo) ApplyCoupon(_ context.Context, _, _ int64, _ string) (*coupon.Coupon, error) {
	if m.applyErr != nil {
		return nil, m.applyErr
	}
	return m.applied, nil
}

type mockProductRepo struct {
	byID map[int64]*product.Product
}

func (m *mockProductRepo) List(_ context.Context) ([]product.Product, error) {
	return nil, nil
}

func (m *mockProductRepo) GetByID(_ context.Context, id int64) (*product.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return p, nil
}

// --- Helpers ---

func newItem(id int64, name string, price string, qty int) Item {
	return Item{
		ID:          id,
		CartID:      1,
		ProductID:   id,
		ProductName: name,
		UnitPrice:   decimal.RequireFromString(price),
		Quantity:    qty,
	}
}

// --- Tests ---

func TestTotals_NoCoupon(t *testing.T) {
	items := []Item{
		newItem(1, "Margherita", "5.50", 2),
		newItem(2, "Coca Cola", "2.50", 1),
	}

	subtotal, discount, total := Totals(items, nil)

	assert.True(t, decimal.RequireFromString("13.50").Equal(subtotal))
	assert.True(t, decimal.Zero.Equal(discount))
	assert.True(t, decimal.RequireFromString("13.50").Equal(total))
}

func TestTotals_WithCoupon(t *testing.T) {
	items := []Item{
		newItem(1, "Margherita", "5.50", 2),
		newItem(2, "Supplì", "2.00", 1),
	}
	c := &coupon.Coupon{Code: "SCONTO10XX", Discount: 10}

	subtotal, discount, total := Totals(items, c)

	assert.True(t, decimal.RequireFromString("13.00").Equal(subtotal))
	assert.True(t, decimal.RequireFromString("1.30").Equal(discount))
	assert.True(t, decimal.RequireFromString("11.70").Equal(total))
}

func TestTotals_EmptyCart(t *testing.T) {
	subtotal, discount, total := Totals(nil, &coupon.Coupon{Discount: 12})

	assert.True(t, decimal.Zero.Equal(subtotal))
	assert.True(t, decimal.Zero.Equal(discount))
	assert.True(t, decimal.Zero.Equal(total))
}

func TestView_DerivesTotalsFromItems(t *testing.T) {
	repo := &mockCartRepo{
		cart: &Cart{
			ID:     1,
			UserID: 7,
			// Stale cached total: the view must ignore it.
			TotalPrice: decimal.RequireFromString("999.00"),
		},
		items: []Item{newItem(1, "Diavola", "7.00", 3)},
	}
	svc := NewService(repo, &mockProductRepo{})

	view, err := svc.View(context.Background(), 7)
	require.NoError(t, err)

	assert.True(t, decimal.RequireFromString("21.00").Equal(view.Subtotal))
	assert.True(t, decimal.RequireFromString("21.00").Equal(view.Total))
	assert.Len(t, view.Items, 1)
}

func TestAdd_ResolvesProduct(t *testing.T) {
	p := &product.Product{ID: 3, Name: "Arancini", Price: decimal.RequireFromString("4.50")}
	repo := &mockCartRepo{cart: &Cart{ID: 1, UserID: 7}}
	svc := NewService(repo, &mockProductRepo{byID: map[int64]*product.Product{3: p}})

	got, err := svc.Add(context.Background(), 7, 3)
	require.NoError(t, err)

	assert.Equal(t, "Arancini", got.Name)
	assert.Equal(t, []int64{3}, repo.addCalls)
}

func TestAdd_ProductNotFound(t *testing.T) {
	repo := &mockCartRepo{cart: &Cart{ID: 1, UserID: 7}}
	svc := NewService(repo, &mockProductRepo{})

	_, err := svc.Add(context.Background(), 7, 99)
	require.ErrorIs(t, err, product.ErrNotFound)
	assert.Empty(t, repo.addCalls)
}

func TestRemove_ItemNotFound(t *testing.T) {
	repo := &mockCartRepo{
		cart:      &Cart{ID: 1, UserID: 7},
		removeErr: ErrItemNotFound,
	}
	svc := NewService(repo, &mockProductRepo{})

	err := svc.Remove(context.Background(), 7, 55)
	require.ErrorIs(t, err, ErrItemNotFound)
}

func TestApplyCoupon_Success(t *testing.T) {
	applied := &coupon.Coupon{ID: 9, UserID: 7, Code: "SCONTO10XX", Discount: 10}
	repo := &mockCartRepo{
		cart:    &Cart{ID: 1, UserID: 7},
		applied: applied,
	}
	svc := NewService(repo, &mockProductRepo{})

	got, err := svc.ApplyCoupon(context.Background(), 7, "SCONTO10XX")
	require.NoError(t, err)
	assert.Equal(t, applied, got)
}

func TestApplyCoupon_AlreadyApplied(t *testing.T) {
	repo := &mockCartRepo{
		cart: &Cart{
			ID:     1,
			UserID: 7,
			Coupon: &coupon.Coupon{ID: 9, Code: "SCONTO10XX", Discount: 10},
		},
	}
	svc := NewService(repo, &mockProductRepo{})

	_, err := svc.ApplyCoupon(context.Background(), 7, "ALTROCODIC")
	require.ErrorIs(t, err, ErrCouponAlreadyApplied)
}

func TestApplyCoupon_InvalidCode(t *testing.T) {
	repo := &mockCartRepo{
		cart:     &Cart{ID: 1, UserID: 7},
		applyErr: coupon.ErrInvalidCode,
	}
	svc := NewService(repo, &mockProductRepo{})

	_, err := svc.ApplyCoupon(context.Background(), 7, "BOGUS")
	require.ErrorIs(t, err, coupon.ErrInvalidCode)
}
