package handlers

import (
	"net/http"
	"time"

	"github.com/mkierin/second-brain-web-interface/internal/api/middleware"
)

// MeResponse represents the authenticated user's profile.
type MeResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	JoinedAt string `json:"joined_at"`
}

// Me returns the profile behind the presented token.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		h.Error(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	h.JSON(w, http.StatusOK, MeResponse{
		ID:       user.ID.String(),
		Username: user.Username,
		JoinedAt: user.CreatedAt.UTC().Format(time.RFC3339),
	})
}
