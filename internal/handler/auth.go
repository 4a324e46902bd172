package handler

import (
	"net/http"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/wdland/fastfood-ordering/internal/domain/user"
)

func (h *Handler) homepage(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("page")
		e.Str("homepage")
		if u := UserFromContext(r.Context()); u != nil {
			e.FieldStart("username")
			e.Str(u.Username)
		}
		encodeFlash(e, w, r)
		e.ObjEnd()
	})
}

// register creates the account (with its cart and five welcome coupons in
// one transaction) and logs the new user in.
func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.PostFormValue("username"))
	password := r.PostFormValue("password")

	u, err := h.users.Register(r.Context(), username, password)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrUsernameTaken):
			setFlash(w, "error", "Username già in uso.")
		case errors.Is(err, user.ErrInvalidCredentials):
			setFlash(w, "error", "Username e password sono obbligatori.")
		default:
			h.serverError(w, r, err)
			return
		}
		redirect(w, r, "/")
		return
	}

	if err := h.sessions.Issue(r.Context(), w, u.ID); err != nil {
		h.serverError(w, r, err)
		return
	}
	redirect(w, r, "/")
}

func (h *Handler) loginPage(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("page")
		e.Str("login")
		encodeFlash(e, w, r)
		e.ObjEnd()
	})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.Authenticate(r.Context(), r.PostFormValue("username"), r.PostFormValue("password"))
	if err != nil {
		if errors.Is(err, user.ErrInvalidCredentials) {
			setFlash(w, "error", "Credenziali non valide")
			redirect(w, r, "/login/")
			return
		}
		h.serverError(w, r, err)
		return
	}

	if err := h.sessions.Issue(r.Context(), w, u.ID); err != nil {
		h.serverError(w, r, err)
		return
	}
	redirect(w, r, nextURL(r))
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Clear(r.Context(), w, r)
	redirect(w, r, "/")
}

func (h *Handler) ristoratoreLoginPage(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("page")
		e.Str("ristoratore_login")
		encodeFlash(e, w, r)
		e.ObjEnd()
	})
}

// ristoratoreLogin authenticates staff. A valid customer account without
// the staff flag is rejected like a bad password.
func (h *Handler) ristoratoreLogin(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.AuthenticateRistoratore(r.Context(), r.PostFormValue("username"), r.PostFormValue("password"))
	if err != nil {
		if errors.Is(err, user.ErrInvalidCredentials) {
			setFlash(w, "error", "Credenziali non valide o utente non autorizzato.")
			redirect(w, r, "/ristoratore/login/")
			return
		}
		h.serverError(w, r, err)
		return
	}

	if err := h.sessions.Issue(r.Context(), w, u.ID); err != nil {
		h.serverError(w, r, err)
		return
	}
	redirect(w, r, "/gestione_ordine/")
}

// nextURL returns a safe post-login destination: a same-site path from the
// "next" query param, or the homepage.
func nextURL(r *http.Request) string {
	next := r.URL.Query().Get("next")
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return "/"
	}
	return next
}

// serverError logs the failure and answers 500. All errors here are
// per-request; nothing is fatal to the process.
func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, err error) {
	zctx.From(r.Context()).Error("request failed",
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	writeError(w, http.StatusInternalServerError, "internal server error")
}
