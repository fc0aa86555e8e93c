// Package handlers implements the HTTP endpoints.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/mkierin/second-brain-web-interface/internal/auth"
	"github.com/mkierin/second-brain-web-interface/internal/dispatch"
	"github.com/mkierin/second-brain-web-interface/internal/store"
)

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	users          store.DataStore
	redis          *store.RedisStore
	engine         *dispatch.Engine
	tokens         *auth.Tokens
	logger         zerolog.Logger
	streamInterval time.Duration
	startTime      time.Time
}

// NewHandler creates a new Handler with the given dependencies.
func NewHandler(users store.DataStore, redis *store.RedisStore, engine *dispatch.Engine, tokens *auth.Tokens, logger zerolog.Logger, streamInterval time.Duration) *Handler {
	return &Handler{
		users:          users,
		redis:          redis,
		engine:         engine,
		tokens:         tokens,
		logger:         logger,
		streamInterval: streamInterval,
		startTime:      time.Now(),
	}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}
