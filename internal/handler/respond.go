package handler

import (
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/go-faster/jx"
)

const flashCookie = "flash"

// setFlash stores a one-shot user-visible message in a cookie, read and
// cleared by the next GET page. Mirrors the original flash+redirect flow.
func setFlash(w http.ResponseWriter, level, message string) {
	v := base64.URLEncoding.EncodeToString([]byte(level + "|" + message))
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    v,
		Path:     "/",
		MaxAge:   300,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash reads and clears the flash cookie, returning level and message.
func popFlash(w http.ResponseWriter, r *http.Request) (level, message string, ok bool) {
	c, err := r.Cookie(flashCookie)
	if err != nil {
		return "", "", false
	}
	http.SetCookie(w, &http.Cookie{
		Name:   flashCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	raw, err := base64.URLEncoding.DecodeString(c.Value)
	if err != nil {
		return "", "", false
	}
	level, message, found := strings.Cut(string(raw), "|")
	if !found {
		return "", "", false
	}
	return level, message, true
}

// writeJSON encodes a view model with jx and writes it with the given
// status code.
func writeJSON(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	var e jx.Encoder
	encode(&e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// writeError writes a JSON error body, used by the 404-style endpoints.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("code")
		e.Int(status)
		e.FieldStart("message")
		e.Str(message)
		e.ObjEnd()
	})
}

// encodeFlash appends the pending flash message, if any, to an open JSON
// object.
func encodeFlash(e *jx.Encoder, w http.ResponseWriter, r *http.Request) {
	level, message, ok := popFlash(w, r)
	if !ok {
		return
	}
	e.FieldStart("flash")
	e.ObjStart()
	e.FieldStart("level")
	e.Str(level)
	e.FieldStart("message")
	e.Str(message)
	e.ObjEnd()
}

// redirect answers a processed form POST, or a failed one carrying a flash.
func redirect(w http.ResponseWriter, r *http.Request, to string) {
	http.Redirect(w, r, to, http.StatusSeeOther)
}
