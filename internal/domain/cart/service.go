package cart

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/wdland/fastfood-ordering/internal/domain/coupon"
	"github.com/wdland/fastfood-ordering/internal/domain/product"
)

// View is the cart page model: live line items with totals derived from
// them rather than from the cached cart field.
type View struct {
	Cart     *Cart
	Items    []Item
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

// Service encapsulates cart business logic.
type Service struct {
	carts    Repository
	products product.Repository
}

// NewService creates a cart Service.
func NewService(carts Repository, products product.Repository) *Service {
	return &Service{carts: carts, products: products}
}

// View loads the user's cart and derives its pricing from current items.
func (s *Service) View(ctx context.Context, userID int64) (*View, error) {
	c, err := s.carts.GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}

	items, err := s.carts.Items(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("get cart items: %w", err)
	}

	subtotal, discount, total := Totals(items, c.Coupon)
	return &View{
		Cart:     c,
		Items:    items,
		Subtotal: subtotal,
		Discount: discount,
		Total:    total,
	}, nil
}

// Add resolves the product and upserts a line in the user's cart: a new
// line starts at quantity 1, an existing one is incremented.
func (s *Service) Add(ctx context.Context, userID, productID int64) (*product.Product, error) {
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	c, err := s.carts.GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}

	if err := s.carts.AddItem(ctx, c.ID, p.ID); err != nil {
		return nil, fmt.Errorf("add cart item: %w", err)
	}
	return p, nil
}

// Remove deletes a line item, scoped to the requesting user's own cart.
func (s *Service) Remove(ctx context.Context, userID, itemID int64) error {
	c, err := s.carts.GetByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("get cart: %w", err)
	}

	if err := s.carts.RemoveItem(ctx, c.ID, itemID); err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return ErrItemNotFound
		}
		return fmt.Errorf("remove cart item: %w", err)
	}
	return nil
}

// ApplyCoupon attaches an active coupon owned by the user to their cart and
// deactivates it. A cart holds at most one coupon; a second application is
// rejected without mutation.
func (s *Service) ApplyCoupon(ctx context.Context, userID int64, code string) (*coupon.Coupon, error) {
	c, err := s.carts.GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}

	if c.Coupon != nil {
		return nil, ErrCouponAlreadyApplied
	}

	applied, err := s.carts.ApplyCoupon(ctx, c.ID, userID, code)
	if err != nil {
		if errors.Is(err, coupon.ErrInvalidCode) {
			return nil, coupon.ErrInvalidCode
		}
		return nil, fmt.Errorf("apply coupon: %w", err)
	}
	return applied, nil
}
