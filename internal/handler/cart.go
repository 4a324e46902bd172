package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/wdland/fastfood-ordering/internal/domain/cart"
	"github.com/wdland/fastfood-ordering/internal/domain/product"
)

// cartView renders the cart page model: live line items, totals derived
// from them, and the fast-food list for the checkout form.
func (h *Handler) cartView(w http.ResponseWriter, r *http.Request) {
	u := UserFromContext(r.Context())

	view, err := h.carts.View(r.Context(), u.ID)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	fastfoods, err := h.fastfoods.List(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("items")
		e.ArrStart()
		for _, it := range view.Items {
			e.ObjStart()
			e.FieldStart("id")
			e.Int64(it.ID)
			e.FieldStart("product_id")
			e.Int64(it.ProductID)
			e.FieldStart("name")
			e.Str(it.ProductName)
			e.FieldStart("unit_price")
			e.Str(it.UnitPrice.StringFixed(2))
			e.FieldStart("quantity")
			e.Int(it.Quantity)
			e.ObjEnd()
		}
		e.ArrEnd()
		e.FieldStart("subtotal")
		e.Str(view.Subtotal.StringFixed(2))
		e.FieldStart("discount")
		e.Str(view.Discount.StringFixed(2))
		e.FieldStart("total_price")
		e.Str(view.Total.StringFixed(2))
		if view.Cart.Coupon != nil {
			e.FieldStart("coupon_code")
			e.Str(view.Cart.Coupon.Code)
		}
		e.FieldStart("fast_foods")
		e.ArrStart()
		for _, ff := range fastfoods {
			e.ObjStart()
			e.FieldStart("id")
			e.Int64(ff.ID)
			e.FieldStart("name")
			e.Str(ff.Name)
			e.ObjEnd()
		}
		e.ArrEnd()
		encodeFlash(e, w, r)
		e.ObjEnd()
	})
}

func (h *Handler) productsView(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("products")
		e.ArrStart()
		for _, p := range products {
			e.ObjStart()
			e.FieldStart("id")
			e.Int64(p.ID)
			e.FieldStart("name")
			e.Str(p.Name)
			e.FieldStart("price")
			e.Str(p.Price.StringFixed(2))
			if p.ImageName != "" {
				e.FieldStart("image_name")
				e.Str(p.ImageName)
			}
			e.ObjEnd()
		}
		e.ArrEnd()
		encodeFlash(e, w, r)
		e.ObjEnd()
	})
}

// productsAdd handles the product page's inline add form (product_id in the
// body) with the same semantics as addToCart.
func (h *Handler) productsAdd(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PostFormValue("product_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	h.addProduct(w, r, id, "/prodotti/")
}

func (h *Handler) addToCart(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	h.addProduct(w, r, id, "/prodotti/")
}

func (h *Handler) addProduct(w http.ResponseWriter, r *http.Request, productID int64, backTo string) {
	u := UserFromContext(r.Context())

	p, err := h.carts.Add(r.Context(), u.ID, productID)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		h.serverError(w, r, err)
		return
	}

	setFlash(w, "success", fmt.Sprintf("Il prodotto '%s' è stato aggiunto al carrello!", p.Name))
	redirect(w, r, backTo)
}

func (h *Handler) removeFromCart(w http.ResponseWriter, r *http.Request) {
	u := UserFromContext(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "cartItemID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, "cart item not found")
		return
	}

	if err := h.carts.Remove(r.Context(), u.ID, id); err != nil {
		// A foreign cart item is indistinguishable from a missing one.
		if errors.Is(err, cart.ErrItemNotFound) {
			writeError(w, http.StatusNotFound, "cart item not found")
			return
		}
		h.serverError(w, r, err)
		return
	}

	setFlash(w, "success", "Il prodotto è stato rimosso dal carrello.")
	redirect(w, r, "/cart/")
}
