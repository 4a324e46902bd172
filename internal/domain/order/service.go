package order

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"

	"github.com/wdland/fastfood-ordering/internal/domain/cart"
	"github.com/wdland/fastfood-ordering/internal/domain/fastfood"
)

// PlaceOrderRequest holds the checkout form input for one user.
type PlaceOrderRequest struct {
	UserID     int64
	Type       Type
	Address    string
	City       string
	FastFoodID *int64
}

// Service encapsulates checkout and status-update business logic.
type Service struct {
	carts     cart.Repository
	fastfoods fastfood.Repository
	orders    Repository
}

// NewService creates an order Service with the required domain dependencies.
func NewService(carts cart.Repository, fastfoods fastfood.Repository, orders Repository) *Service {
	return &Service{carts: carts, fastfoods: fastfoods, orders: orders}
}

// PlaceOrder validates the checkout form, prices the requester's cart from
// its live line items, and snapshots it into an order. Order insertion and
// cart clearing happen in one transaction; a validation failure mutates
// nothing.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*Order, error) {
	var ff *fastfood.FastFood
	switch req.Type {
	case TypeDelivery:
		if req.Address == "" || req.City == "" {
			return nil, ErrDeliveryFieldsRequired
		}
	case TypeInLoco:
		if req.FastFoodID == nil {
			return nil, ErrFastFoodRequired
		}
		var err error
		ff, err = s.fastfoods.GetByID(ctx, *req.FastFoodID)
		if err != nil {
			if errors.Is(err, fastfood.ErrNotFound) {
				return nil, ErrFastFoodRequired
			}
			return nil, fmt.Errorf("get fast food: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown order type %q", req.Type)
	}

	c, err := s.carts.GetByUser(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}

	items, err := s.carts.Items(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("get cart items: %w", err)
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	_, _, total := cart.Totals(items, c.Coupon)

	o := &Order{
		UserID:     req.UserID,
		TotalPrice: total,
		Items:      renderItems(items),
		Status:     StatusReceived,
		Type:       req.Type,
	}
	if req.Type == TypeDelivery {
		o.DeliveryAddress = req.Address
		o.DeliveryCity = req.City
	} else {
		o.FastFoodID = &ff.ID
	}

	if err := s.orders.CreateFromCart(ctx, o, c.ID); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	return o, nil
}

// UpdateStatus sets a new status on an order after checking it against the
// fixed enum. Any valid status may follow any other.
func (s *Service) UpdateStatus(ctx context.Context, orderID int64, status Status) error {
	if !status.Valid() {
		return ErrUnknownStatus
	}
	if err := s.orders.UpdateStatus(ctx, orderID, status); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("update order status: %w", err)
	}
	return nil
}

// ListForUser returns the requester's orders, newest first.
func (s *Service) ListForUser(ctx context.Context, userID int64) ([]Order, error) {
	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// ListForFastFood returns orders placed for one location, newest first.
func (s *Service) ListForFastFood(ctx context.Context, fastFoodID int64) ([]Order, error) {
	orders, err := s.orders.ListByFastFood(ctx, fastFoodID)
	if err != nil {
		return nil, fmt.Errorf("list orders by fast food: %w", err)
	}
	return orders, nil
}

// renderItems flattens cart lines into the order's descriptive text blob,
// e.g. "2x Margherita, 1x Coca Cola".
func renderItems(items []cart.Item) string {
	var b strings.Builder
	for i, it := range items {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%dx %s", it.Quantity, it.ProductName)
	}
	return b.String()
}
