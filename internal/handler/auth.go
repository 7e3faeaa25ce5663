package handler

import (
	"errors"
	"net/http"

	"github.com/sakif/whispering-network/internal/apperror"
	"github.com/sakif/whispering-network/internal/auth"
	"github.com/sakif/whispering-network/internal/service"
)

// AuthHandler logs admins in and out.
//
// HANDLER RESPONSIBILITIES:
//   - HandleLogin  → check credentials, issue the session cookie
//   - HandleLogout → clear the session cookie
//   - HandleMe     → return the admin behind the current session
type AuthHandler struct {
	admins *service.AdminService
	tokens *auth.TokenService
}

func NewAuthHandler(admins *service.AdminService, tokens *auth.TokenService) *AuthHandler {
	return &AuthHandler{admins: admins, tokens: tokens}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// HandleLogin authenticates an admin.
//
// HTTP: POST /api/auth/login
// REQUEST BODY: {"username":"root","password":"..."}
// RESPONSE: 200 with the admin and a Set-Cookie for the session.
//
// Unknown username, wrong password and inactive account all produce the
// same 401 body. Only a body that is not JSON at all gets a 400.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req, "Invalid login data"); err != nil {
		writeError(w, r, err)
		return
	}

	a, err := h.admins.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	token, err := h.tokens.Issue(a.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	auth.SetSessionCookie(w, token, h.tokens.TTL(), r.TLS != nil)

	writeJSON(w, http.StatusOK, a)
}

// HTTP: POST /api/auth/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// HandleMe returns the admin behind the session cookie. A session whose
// admin has since been deactivated or removed is treated as logged out.
//
// HTTP: GET /api/auth/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	adminID, err := auth.AdminIDFromRequest(r, h.tokens)
	if err != nil {
		writeError(w, r, apperror.Unauthorized("valid session required"))
		return
	}

	a, err := h.admins.GetByID(r.Context(), adminID)
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		writeError(w, r, apperror.Unauthorized("valid session required"))
		return
	case err != nil:
		writeError(w, r, err)
		return
	case !a.IsActive:
		writeError(w, r, apperror.Unauthorized("valid session required"))
		return
	}
	writeJSON(w, http.StatusOK, a)
}
