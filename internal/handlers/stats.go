package handlers

import (
	"net/http"
	"time"
)

// StatsResponse represents the response from the stats endpoint. QueueDepth
// is the only window this service has into worker progress; a depth that
// keeps growing means the pool is down or drowning.
type StatsResponse struct {
	Version       string `json:"version"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	TotalUsers    int64  `json:"total_users"`
	QueueDepth    int64  `json:"queue_depth"`
}

// Stats returns service statistics for dashboards and smoke checks.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	totalUsers, err := h.users.CountUsers(ctx)
	if err != nil {
		h.Error(w, http.StatusServiceUnavailable, "failed to count users")
		return
	}

	queueDepth, err := h.redis.QueueDepth(ctx)
	if err != nil {
		h.Error(w, http.StatusServiceUnavailable, "failed to read queue depth")
		return
	}

	h.JSON(w, http.StatusOK, StatsResponse{
		Version:       version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		TotalUsers:    totalUsers,
		QueueDepth:    queueDepth,
	})
}
