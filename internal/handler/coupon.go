package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/wdland/fastfood-ordering/internal/domain/cart"
	"github.com/wdland/fastfood-ordering/internal/domain/coupon"
)

// couponPage lists the requester's active coupons. Codes stay masked until
// the coupon has been revealed.
func (h *Handler) couponPage(w http.ResponseWriter, r *http.Request) {
	u := UserFromContext(r.Context())

	coupons, err := h.coupons.ListActiveByUser(r.Context(), u.ID)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("coupons")
		e.ArrStart()
		for _, c := range coupons {
			e.ObjStart()
			e.FieldStart("id")
			e.Int64(c.ID)
			e.FieldStart("code")
			e.Str(maskCode(c))
			e.FieldStart("discount")
			e.Int(c.Discount)
			e.FieldStart("description")
			e.Str(c.Description)
			e.FieldStart("revealed")
			e.Bool(c.Revealed)
			e.ObjEnd()
		}
		e.ArrEnd()
		encodeFlash(e, w, r)
		e.ObjEnd()
	})
}

// revealCoupon marks an owned, active coupon as revealed and returns its
// code. This endpoint answers JSON rather than a redirect.
func (h *Handler) revealCoupon(w http.ResponseWriter, r *http.Request) {
	u := UserFromContext(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "couponID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, "coupon not found")
		return
	}

	c, err := h.coupons.Reveal(r.Context(), u.ID, id)
	if err != nil {
		if errors.Is(err, coupon.ErrNotFound) {
			writeError(w, http.StatusNotFound, "coupon not found")
			return
		}
		h.serverError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("status")
		e.Str("ok")
		e.FieldStart("code")
		e.Str(c.Code)
		e.FieldStart("discount")
		e.Int(c.Discount)
		e.ObjEnd()
	})
}

// applyCoupon attaches a coupon to the requester's cart by code. Rejections
// carry distinct messages and mutate nothing.
func (h *Handler) applyCoupon(w http.ResponseWriter, r *http.Request) {
	u := UserFromContext(r.Context())
	code := strings.TrimSpace(r.PostFormValue("coupon_code"))

	applied, err := h.carts.ApplyCoupon(r.Context(), u.ID, code)
	if err != nil {
		switch {
		case errors.Is(err, cart.ErrCouponAlreadyApplied):
			setFlash(w, "error", "Hai già applicato un coupon a questo carrello.")
		case errors.Is(err, coupon.ErrInvalidCode):
			setFlash(w, "error", "Il codice del coupon non è valido o il coupon è già stato utilizzato.")
		default:
			h.serverError(w, r, err)
			return
		}
		redirect(w, r, "/cart/")
		return
	}

	setFlash(w, "success", fmt.Sprintf("Il coupon '%s' è stato applicato con successo!", applied.Code))
	redirect(w, r, "/cart/")
}

// maskCode hides an unrevealed coupon's code.
func maskCode(c coupon.Coupon) string {
	if c.Revealed {
		return c.Code
	}
	return strings.Repeat("*", len(c.Code))
}
