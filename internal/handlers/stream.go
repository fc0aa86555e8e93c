package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mkierin/second-brain-web-interface/internal/api/middleware"
	"github.com/mkierin/second-brain-web-interface/internal/delivery"
	"github.com/mkierin/second-brain-web-interface/internal/models"
)

// sseSink writes stream events in text/event-stream framing and flushes
// after every event so nothing sits in a buffer.
type sseSink struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func (s *sseSink) connected() error {
	return s.write("connected", "", []byte(`{}`))
}

func (s *sseSink) Send(msg models.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return s.write("message", msg.ID, data)
}

func (s *sseSink) Heartbeat() error {
	return s.write("heartbeat", "", []byte(`{}`))
}

func (s *sseSink) write(event, id string, data []byte) error {
	if id != "" {
		if _, err := fmt.Fprintf(s.w, "id: %s\n", id); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// Stream delivers bot responses over Server-Sent Events until the client
// disconnects. Undelivered messages stay queued for the next connection or
// poll, so dropping the stream loses nothing.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		h.Error(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.Error(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // disable proxy buffering
	w.WriteHeader(http.StatusOK)

	sink := &sseSink{w: w, flusher: flusher}
	if err := sink.connected(); err != nil {
		return
	}

	streamer := delivery.NewStreamer(h.redis, user.ID.String(), h.streamInterval, h.logger)
	if err := streamer.Run(r.Context(), sink); err != nil {
		h.logger.Warn().
			Err(err).
			Str("user_id", user.ID.String()).
			Msg("stream ended with error")
	}
}
