// Package handler exposes the HTTP surface: form-encoded mutating endpoints
// answering with flash+redirect, and GET endpoints returning their view
// models as JSON. HTML rendering is left to an external frontend.
package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wdland/fastfood-ordering/internal/domain/cart"
	"github.com/wdland/fastfood-ordering/internal/domain/coupon"
	"github.com/wdland/fastfood-ordering/internal/domain/fastfood"
	"github.com/wdland/fastfood-ordering/internal/domain/order"
	"github.com/wdland/fastfood-ordering/internal/domain/product"
	"github.com/wdland/fastfood-ordering/internal/domain/user"
)

// displayZone is the fixed offset orders are shown in. Timestamps are
// persisted in UTC.
var displayZone = loadDisplayZone()

func loadDisplayZone() *time.Location {
	loc, err := time.LoadLocation("Europe/Rome")
	if err != nil {
		return time.FixedZone("CET", 2*60*60)
	}
	return loc
}

// Handler holds the domain services behind the HTTP surface.
type Handler struct {
	users     *user.Service
	carts     *cart.Service
	orders    *order.Service
	coupons   coupon.Repository
	products  product.Repository
	fastfoods fastfood.Repository
	sessions  *Sessions
}

// New constructs a Handler with the required domain dependencies.
func New(
	users *user.Service,
	carts *cart.Service,
	orders *order.Service,
	coupons coupon.Repository,
	products product.Repository,
	fastfoods fastfood.Repository,
	sessions *Sessions,
) *Handler {
	return &Handler{
		users:     users,
		carts:     carts,
		orders:    orders,
		coupons:   coupons,
		products:  products,
		fastfoods: fastfoods,
		sessions:  sessions,
	}
}

// Router builds the chi router with the application's exact routes.
// Trailing slashes are part of the route set.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(h.sessions.CurrentUser)

	r.Get("/", h.homepage)
	r.Post("/register/", h.register)
	r.Get("/login/", h.loginPage)
	r.Post("/login/", h.login)
	r.Post("/logout/", h.logout)
	r.Get("/ristoratore/login/", h.ristoratoreLoginPage)
	r.Post("/ristoratore/login/", h.ristoratoreLogin)
	r.Get("/map/", h.mapView)

	r.Group(func(r chi.Router) {
		r.Use(h.requireUser)

		r.Get("/cart/", h.cartView)
		r.Get("/prodotti/", h.productsView)
		r.Post("/prodotti/", h.productsAdd)
		r.Post("/add_to_cart/{productID}/", h.addToCart)
		r.Post("/remove_from_cart/{cartItemID}/", h.removeFromCart)
		r.Get("/orders/", h.ordersView)
		r.Get("/coupon/", h.couponPage)
		r.Post("/reveal_coupon/{couponID}/", h.revealCoupon)
		r.Post("/apply_coupon/", h.applyCoupon)
		r.Post("/create_order/", h.createOrder)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.requireRistoratore)

		r.Get("/gestione_ordine/", h.orderBoard)
		r.Post("/update_order_status/{orderID}/", h.updateOrderStatus)
	})

	return r
}
