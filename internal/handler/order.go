package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/wdland/fastfood-ordering/internal/domain/order"
)

// createOrder handles checkout. Validation failures flash back to the cart
// page without mutating anything; success snapshots the cart into an order
// and clears it in one transaction.
func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	u := UserFromContext(r.Context())

	req := order.PlaceOrderRequest{
		UserID:  u.ID,
		Address: r.PostFormValue("address"),
		City:    r.PostFormValue("city"),
	}

	switch r.PostFormValue("order_type") {
	case "delivery":
		req.Type = order.TypeDelivery
	case "in_loco":
		req.Type = order.TypeInLoco
	default:
		setFlash(w, "error", "Tipo di ordine non valido.")
		redirect(w, r, "/cart/")
		return
	}

	if raw := r.PostFormValue("fast_food"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			setFlash(w, "error", "Seleziona un fast food.")
			redirect(w, r, "/cart/")
			return
		}
		req.FastFoodID = &id
	}

	if _, err := h.orders.PlaceOrder(r.Context(), req); err != nil {
		switch {
		case errors.Is(err, order.ErrDeliveryFieldsRequired):
			setFlash(w, "error", "Indirizzo e città sono obbligatori per la consegna.")
		case errors.Is(err, order.ErrFastFoodRequired):
			setFlash(w, "error", "Seleziona un fast food.")
		case errors.Is(err, order.ErrEmptyCart):
			setFlash(w, "error", "Il carrello è vuoto.")
		default:
			h.serverError(w, r, err)
			return
		}
		redirect(w, r, "/cart/")
		return
	}

	setFlash(w, "success", "Ordine effettuato con successo!")
	redirect(w, r, "/orders/")
}

// ordersView lists the requester's orders, newest first, with timestamps
// shown in the display timezone.
func (h *Handler) ordersView(w http.ResponseWriter, r *http.Request) {
	u := UserFromContext(r.Context())

	orders, err := h.orders.ListForUser(r.Context(), u.ID)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("orders")
		encodeOrders(e, orders)
		encodeFlash(e, w, r)
		e.ObjEnd()
	})
}

// orderBoard is the staff management view: all locations plus the orders of
// the one selected via the fast_food query param.
func (h *Handler) orderBoard(w http.ResponseWriter, r *http.Request) {
	fastfoods, err := h.fastfoods.List(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	var (
		orders       []order.Order
		selectedName = "Tutti"
	)
	if raw := r.URL.Query().Get("fast_food"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusNotFound, "fast food not found")
			return
		}

		ff, err := h.fastfoods.GetByID(r.Context(), id)
		if err != nil {
			writeError(w, http.StatusNotFound, "fast food not found")
			return
		}
		selectedName = ff.Name

		orders, err = h.orders.ListForFastFood(r.Context(), id)
		if err != nil {
			h.serverError(w, r, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("selected_fast_food")
		e.Str(selectedName)
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
		e.FieldStart("orders")
		encodeOrders(e, orders)
		encodeFlash(e, w, r)
		e.ObjEnd()
	})
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}

	status := order.Status(r.PostFormValue("status"))
	if err := h.orders.UpdateStatus(r.Context(), id, status); err != nil {
		switch {
		case errors.Is(err, order.ErrUnknownStatus):
			setFlash(w, "error", "Stato non valido.")
			redirect(w, r, "/gestione_ordine/")
		case errors.Is(err, order.ErrNotFound):
			writeError(w, http.StatusNotFound, "order not found")
		default:
			h.serverError(w, r, err)
		}
		return
	}

	setFlash(w, "success", "Lo stato dell'ordine è stato aggiornato a '"+string(status)+"'.")
	redirect(w, r, "/gestione_ordine/")
}

func encodeOrders(e *jx.Encoder, orders []order.Order) {
	e.ArrStart()
	for _, o := range orders {
		e.ObjStart()
		e.FieldStart("id")
		e.Int64(o.ID)
		e.FieldStart("created_at")
		e.Str(o.CreatedAt.In(displayZone).Format("2006-01-02 15:04:05"))
		e.FieldStart("total_price")
		e.Str(o.TotalPrice.StringFixed(2))
		e.FieldStart("items")
		e.Str(o.Items)
		e.FieldStart("status")
		e.Str(string(o.Status))
		e.FieldStart("order_type")
		e.Str(string(o.Type))
		if o.FastFoodID != nil {
			e.FieldStart("fast_food_id")
			e.Int64(*o.FastFoodID)
		}
		if o.DeliveryAddress != "" {
			e.FieldStart("delivery_address")
			e.Str(o.DeliveryAddress)
			e.FieldStart("delivery_city")
			e.Str(o.DeliveryCity)
		}
		e.ObjEnd()
	}
	e.ArrEnd()
}
