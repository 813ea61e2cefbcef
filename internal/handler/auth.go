package handler

import (
	"net/http"

	"github.com/msomdec/swirl-rewards/internal/service"
)

// AuthHandler handles sign-in, sign-up and sign-out for a client session.
type AuthHandler struct {
	adminEmail string
}

// NewAuthHandler creates a new AuthHandler. Logins with adminEmail get the
// admin role.
func NewAuthHandler(adminEmail string) *AuthHandler {
	return &AuthHandler{adminEmail: adminEmail}
}

// HandleLogin signs the client in. The password is not checked.
// POST /api/auth/login
// Request:  {"email":"...","password":"..."}
// Response: {"success":true,"account":{...},"redirect":"/admin"|"/rewards"}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	s := SessionFromContext(r.Context())
	account, err := s.Identity.Login(r.Context(), req.Email, service.RoleForEmail(h.adminEmail, req.Email))
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	redirect := "/rewards"
	if account.IsAdmin() {
		redirect = "/admin"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"account":  toAccountDTO(account),
		"redirect": redirect,
	})
}

// HandleSignup creates an account with the welcome bonus.
// POST /api/auth/signup
// Request:  {"name":"...","email":"...","password":"..."}
// Response: 201 {"success":true,"account":{...}}
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	s := SessionFromContext(r.Context())
	account, err := s.Identity.Signup(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"account": toAccountDTO(account),
	})
}

// HandleLogout signs the client out. The session cookie is kept so the cart
// and code ledger survive.
// POST /api/auth/logout
// Response: 204 No Content
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	s := SessionFromContext(r.Context())
	if err := s.Identity.Logout(r.Context()); err != nil {
		writeFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleMe returns the signed-in account, or null.
// GET /api/auth/me
// Response: {"account": {...}|null}
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	s := SessionFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"account": toAccountDTO(s.Identity.Current()),
	})
}
