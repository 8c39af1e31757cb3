package handlers

import (
	"errors"
	"net/http"

	"mymeals/internal/security"
	"mymeals/internal/service"
)

// AuthHandler manages the shared household session.
type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type loginRequest struct {
	Password string `json:"password"`
}

type sessionResponse struct {
	Authenticated bool `json:"authenticated"`
	GateEnabled   bool `json:"gateEnabled"`
}

// Login checks the household password and sets the session cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	session, err := h.authService.Login(req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidPassword) {
			respondWithError(w, http.StatusUnauthorized, "Invalid password", "", nil)
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Login failed", "Failed to create session", err)
		return
	}

	http.SetCookie(w, security.CreateSessionCookie(r, "session_id", session.ID, session.ExpiresAt))
	respondJSON(w, http.StatusOK, sessionResponse{Authenticated: true, GateEnabled: true})
}

// Logout removes the session and clears the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie("session_id"); err == nil {
		h.authService.Logout(cookie.Value)
	}
	http.SetCookie(w, security.CreateDeleteCookie(r, "session_id"))
	w.WriteHeader(http.StatusNoContent)
}

// Status reports whether the caller holds a valid session. When no household
// password is configured everyone counts as authenticated.
func (h *AuthHandler) Status(w http.ResponseWriter, r *http.Request) {
	resp := sessionResponse{GateEnabled: h.authService.Enabled()}
	if !resp.GateEnabled {
		resp.Authenticated = true
	} else if cookie, err := r.Cookie("session_id"); err == nil {
		if _, err := h.authService.ValidateSession(cookie.Value); err == nil {
			resp.Authenticated = true
		}
	}
	respondJSON(w, http.StatusOK, resp)
}
