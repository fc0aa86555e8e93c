package delivery

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/mkierin/second-brain-web-interface/internal/models"
)

// fakeDrainer hands out prepared batches, one per drain call.
type fakeDrainer struct {
	mu      sync.Mutex
	batches [][]models.Message
	err     error
}

func (f *fakeDrainer) DrainResponses(ctx context.Context, userID string) ([]models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if len(f.batches) == 0 {
		return nil, nil
	}
	batch := f.batches[0]
	f.batches = f.batches[1:]
	return batch, nil
}

// recordSink captures everything the streamer pushes.
type recordSink struct {
	mu         sync.Mutex
	sent       []models.Message
	heartbeats int
	sendErr    error
	hbErr      error
}

func (r *recordSink) Send(msg models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sendErr != nil {
		return r.sendErr
	}
	r.sent = append(r.sent, msg)
	return nil
}

func (r *recordSink) Heartbeat() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.hbErr != nil {
		return r.hbErr
	}
	r.heartbeats++
	return nil
}

func (r *recordSink) sentCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

func (r *recordSink) heartbeatCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.heartbeats
}

func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

// startStream runs the tick loop in the background and returns the tick
// feeder, the error channel and a cancel func.
func startStream(t *testing.T, drainer *fakeDrainer, sink Sink) (*Streamer, chan time.Time, chan error, context.CancelFunc) {
	t.Helper()
	s := NewStreamer(drainer, "u1", time.Second, zerolog.Nop())
	ticks := make(chan time.Time)
	done := make(chan error, 1)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		done <- s.run(ctx, sink, ticks)
	}()
	return s, ticks, done, cancel
}

func TestStreamEmitsQueuedMessages(t *testing.T) {
	msgs := []models.Message{
		*models.NewMessage("first", models.SenderBot),
		*models.NewMessage("second", models.SenderBot),
	}
	drainer := &fakeDrainer{batches: [][]models.Message{msgs}}
	sink := &recordSink{}

	s, ticks, done, cancel := startStream(t, drainer, sink)

	ticks <- time.Now()
	waitUntil(t, func() bool { return sink.sentCount() == 2 })

	sink.mu.Lock()
	if sink.sent[0].Text != "first" || sink.sent[1].Text != "second" {
		t.Fatalf("messages out of order: %v", sink.sent)
	}
	sink.mu.Unlock()

	if got := s.State(); got != StateEmitting {
		t.Fatalf("expected emitting after a full tick, got %q", got)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("clean close must return nil, got %v", err)
	}
	if got := s.State(); got != StateClosed {
		t.Fatalf("expected closed, got %q", got)
	}
}

func TestStreamHeartbeatsOnEmptyTicks(t *testing.T) {
	drainer := &fakeDrainer{}
	sink := &recordSink{}

	s, ticks, done, cancel := startStream(t, drainer, sink)

	for i := 0; i < 3; i++ {
		ticks <- time.Now()
	}
	waitUntil(t, func() bool { return sink.heartbeatCount() == 3 })

	if got := s.State(); got != StateIdle {
		t.Fatalf("expected idle after empty ticks, got %q", got)
	}
	if sink.sentCount() != 0 {
		t.Fatalf("no messages should have been sent, got %d", sink.sentCount())
	}

	cancel()
	<-done
}

func TestStreamAlternatesIdleAndEmitting(t *testing.T) {
	msgs := []models.Message{*models.NewMessage("r", models.SenderBot)}
	drainer := &fakeDrainer{batches: [][]models.Message{msgs}}
	sink := &recordSink{}

	s, ticks, done, cancel := startStream(t, drainer, sink)

	ticks <- time.Now()
	waitUntil(t, func() bool { return sink.sentCount() == 1 })
	if got := s.State(); got != StateEmitting {
		t.Fatalf("expected emitting, got %q", got)
	}

	// Queue exhausted: the next tick heartbeats and goes idle.
	ticks <- time.Now()
	waitUntil(t, func() bool { return sink.heartbeatCount() == 1 })
	if got := s.State(); got != StateIdle {
		t.Fatalf("expected idle, got %q", got)
	}

	cancel()
	<-done
}

func TestStreamClosesOnCancel(t *testing.T) {
	drainer := &fakeDrainer{}
	sink := &recordSink{}

	s, _, done, cancel := startStream(t, drainer, sink)

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("cancel must close cleanly, got %v", err)
	}
	if got := s.State(); got != StateClosed {
		t.Fatalf("expected closed, got %q", got)
	}
}

func TestStreamStopsOnSinkError(t *testing.T) {
	msgs := []models.Message{*models.NewMessage("r", models.SenderBot)}
	drainer := &fakeDrainer{batches: [][]models.Message{msgs}}
	sink := &recordSink{sendErr: errors.New("client went away")}

	s, ticks, done, _ := startStream(t, drainer, sink)

	ticks <- time.Now()
	if err := <-done; err == nil {
		t.Fatal("expected the sink error to end the stream")
	}
	if got := s.State(); got != StateClosed {
		t.Fatalf("expected closed, got %q", got)
	}
}

func TestStreamStopsOnHeartbeatError(t *testing.T) {
	drainer := &fakeDrainer{}
	sink := &recordSink{hbErr: errors.New("client went away")}

	s, ticks, done, _ := startStream(t, drainer, sink)

	ticks <- time.Now()
	if err := <-done; err == nil {
		t.Fatal("expected the heartbeat error to end the stream")
	}
	if got := s.State(); got != StateClosed {
		t.Fatalf("expected closed, got %q", got)
	}
}

func TestStreamStopsOnDrainError(t *testing.T) {
	drainer := &fakeDrainer{err: errors.New("redis down")}
	sink := &recordSink{}

	s, ticks, done, _ := startStream(t, drainer, sink)

	ticks <- time.Now()
	if err := <-done; err == nil {
		t.Fatal("expected the drain error to end the stream")
	}
	if got := s.State(); got != StateClosed {
		t.Fatalf("expected closed, got %q", got)
	}
}

func TestStreamOpensBeforeFirstTick(t *testing.T) {
	drainer := &fakeDrainer{}
	sink := &recordSink{}

	s, _, done, cancel := startStream(t, drainer, sink)

	waitUntil(t, func() bool { return s.State() == StateOpen })

	cancel()
	<-done
}
