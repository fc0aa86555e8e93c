// Package delivery moves queued bot responses to connected clients. The poll
// adapter is a single drain behind an HTTP handler; the streaming adapter
// lives here because it carries state across ticks.
package delivery

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mkierin/second-brain-web-interface/internal/metrics"
	"github.com/mkierin/second-brain-web-interface/internal/models"
)

// State describes where a stream is in its lifecycle.
type State string

const (
	StateOpen     State = "open"
	StateEmitting State = "emitting"
	StateIdle     State = "idle"
	StateClosed   State = "closed"
)

// drainer is the slice of the response store the streamer needs.
type drainer interface {
	DrainResponses(ctx context.Context, userID string) ([]models.Message, error)
}

// Sink receives stream output. The SSE handler implements it over the
// response writer; tests implement it over slices.
type Sink interface {
	Send(msg models.Message) error
	Heartbeat() error
}

// Streamer drains one user's response channel on a fixed cadence and pushes
// every message to a sink. Each empty tick produces a heartbeat so proxies
// and clients can tell a quiet stream from a dead one.
type Streamer struct {
	store    drainer
	userID   string
	interval time.Duration
	logger   zerolog.Logger

	mu    sync.Mutex
	state State
}

// NewStreamer creates a streamer for one user's connection.
func NewStreamer(store drainer, userID string, interval time.Duration, logger zerolog.Logger) *Streamer {
	if interval <= 0 {
		interval = 300 * time.Millisecond
	}
	return &Streamer{
		store:    store,
		userID:   userID,
		interval: interval,
		logger:   logger,
		state:    StateOpen,
	}
}

// State reports the current lifecycle state.
func (s *Streamer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Streamer) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// Run drives the stream until the context is canceled or the sink fails.
// A nil return means the client went away cleanly.
func (s *Streamer) Run(ctx context.Context, sink Sink) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	return s.run(ctx, sink, ticker.C)
}

// run is the tick loop, split out so tests can drive it with synthetic ticks.
func (s *Streamer) run(ctx context.Context, sink Sink, ticks <-chan time.Time) error {
	s.setState(StateOpen)
	metrics.StreamConnections.Inc()
	defer metrics.StreamConnections.Dec()
	defer s.setState(StateClosed)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticks:
			msgs, err := s.store.DrainResponses(ctx, s.userID)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				s.logger.Warn().
					Err(err).
					Str("user_id", s.userID).
					Msg("stream drain failed")
				return err
			}

			if len(msgs) == 0 {
				s.setState(StateIdle)
				if err := sink.Heartbeat(); err != nil {
					return err
				}
				continue
			}

			s.setState(StateEmitting)
			for _, msg := range msgs {
				if err := sink.Send(msg); err != nil {
					return err
				}
				metrics.ResponsesDelivered.WithLabelValues("stream").Inc()
			}
		}
	}
}
