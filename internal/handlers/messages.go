package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/mkierin/second-brain-web-interface/internal/api/middleware"
	"github.com/mkierin/second-brain-web-interface/internal/dispatch"
	"github.com/mkierin/second-brain-web-interface/internal/metrics"
	"github.com/mkierin/second-brain-web-interface/internal/models"
	"github.com/mkierin/second-brain-web-interface/internal/store"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// SendRequest represents the send request body. Agent is optional; "auto" or
// empty means the classifier decides.
type SendRequest struct {
	Message string `json:"message"`
	Agent   string `json:"agent,omitempty"`
}

// SendMessage accepts one user message and dispatches it. The accepted
// message comes back immediately; any bot reply arrives later through the
// poll or stream endpoint.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		h.Error(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	msg, err := h.engine.Dispatch(r.Context(), user.ID.String(), req.Message, req.Agent)
	if err != nil {
		switch {
		case errors.Is(err, dispatch.ErrEmptyMessage):
			h.Error(w, http.StatusBadRequest, "message is required")
		case errors.Is(err, store.ErrUnavailable):
			h.Error(w, http.StatusServiceUnavailable, "service temporarily unavailable")
		default:
			h.logger.Error().Err(err).Msg("dispatch failed")
			h.Error(w, http.StatusInternalServerError, "failed to process message")
		}
		return
	}

	h.JSON(w, http.StatusCreated, msg)
}

// HistoryResponse represents the conversation history, oldest first.
type HistoryResponse struct {
	Messages []models.Message `json:"messages"`
}

// History returns the most recent ledger entries in chronological order.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		h.Error(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			h.Error(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	recent, err := h.redis.RecentMessages(r.Context(), user.ID.String(), limit)
	if err != nil {
		h.Error(w, http.StatusServiceUnavailable, "service temporarily unavailable")
		return
	}

	// Ledger order is newest-first; clients render oldest-first.
	messages := make([]models.Message, len(recent))
	for i, msg := range recent {
		messages[len(recent)-1-i] = msg
	}

	h.JSON(w, http.StatusOK, HistoryResponse{Messages: messages})
}

// PendingResponse represents one poll drain.
type PendingResponse struct {
	Responses []models.Message `json:"responses"`
}

// Pending drains every queued bot response for the user. Each message is
// delivered exactly once; an empty list means nothing arrived since the last
// poll.
func (h *Handler) Pending(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		h.Error(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	drained, err := h.redis.DrainResponses(r.Context(), user.ID.String())
	if err != nil {
		h.Error(w, http.StatusServiceUnavailable, "service temporarily unavailable")
		return
	}

	if len(drained) > 0 {
		metrics.ResponsesDelivered.WithLabelValues("poll").Add(float64(len(drained)))
	}

	responses := drained
	if responses == nil {
		responses = make([]models.Message, 0)
	}

	h.JSON(w, http.StatusOK, PendingResponse{Responses: responses})
}
