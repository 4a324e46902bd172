package handler

import (
	"net/http"

	"github.com/go-faster/jx"
)

// mapView returns the location markers for the public map page.
func (h *Handler) mapView(w http.ResponseWriter, r *http.Request) {
	fastfoods, err := h.fastfoods.List(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("points")
		e.ArrStart()
		for _, ff := range fastfoods {
			e.ObjStart()
			e.FieldStart("lat")
			e.Float64(ff.Latitude)
			e.FieldStart("lng")
			e.Float64(ff.Longitude)
			e.FieldStart("name")
			e.Str(ff.Name)
			e.FieldStart("address")
			e.Str(ff.Address)
			e.ObjEnd()
		}
		e.ArrEnd()
		e.ObjEnd()
	})
}
