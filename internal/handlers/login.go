package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/mkierin/second-brain-web-interface/internal/auth"
	"github.com/mkierin/second-brain-web-interface/internal/metrics"
)

// LoginRequest represents the login request body.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse represents a successful login.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Username    string `json:"username"`
}

// Login exchanges credentials for a bearer token. The error message is the
// same for unknown users and wrong passwords so the endpoint does not leak
// which usernames exist.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if req.Username == "" || req.Password == "" {
		h.Error(w, http.StatusBadRequest, "username and password are required")
		return
	}

	user, err := h.users.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		h.Error(w, http.StatusServiceUnavailable, "database error")
		return
	}

	if user == nil || !auth.CheckPassword(req.Password, user.PasswordHash) {
		metrics.Logins.WithLabelValues("failure").Inc()
		h.Error(w, http.StatusUnauthorized, "Incorrect username or password")
		return
	}

	token, err := h.tokens.Issue(user.Username)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	metrics.Logins.WithLabelValues("success").Inc()
	h.JSON(w, http.StatusOK, LoginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		Username:    user.Username,
	})
}
