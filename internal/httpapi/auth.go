package httpapi

import (
	"net/http"

	"github.com/revisehub/revisehub/internal/auth"
)

// signInRequest carries an externally verified identity. Verification
// itself happens upstream; this endpoint only mints the session.
type signInRequest struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

func (h *Handler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	u, token, err := h.auth.SignIn(r.Context(), req.Email, req.Name, req.Picture)
	if err != nil {
		writeError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
		MaxAge:   7 * 24 * 60 * 60,
	})
	writeJSON(w, http.StatusOK, map[string]any{"user": u, "session_token": token})
}

func (h *Handler) handleMe(w http.ResponseWriter, _ *http.Request, u auth.User) {
	writeJSON(w, http.StatusOK, u)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Revoke(r.Context(), requestToken(r)); err != nil {
		writeError(w, err)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "", Path: "/", MaxAge: -1})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

type updateRoleRequest struct {
	Role  string `json:"role"`
	Grade string `json:"grade"`
}

func (h *Handler) handleUpdateRole(w http.ResponseWriter, r *http.Request, u auth.User) {
	var req updateRoleRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	role, err := auth.ParseRole(req.Role)
	if err != nil {
		writeError(w, err)
		return
	}

	updated, err := h.auth.UpdateRole(r.Context(), u.ID, role, req.Grade)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}
