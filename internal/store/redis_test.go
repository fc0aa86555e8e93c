package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/mkierin/second-brain-web-interface/internal/models"
)

func newTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s, err := NewRedisStore(context.Background(), "redis://"+mr.Addr(), RedisOptions{})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s, mr
}

func TestLedgerNewestFirst(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	for _, text := range []string{"first", "second", "third"} {
		msg := models.NewMessage(text, models.SenderUser)
		if err := s.AppendMessage(ctx, "u1", msg); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.RecentMessages(ctx, "u1", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(got))
	}
	if got[0].Text != "third" || got[2].Text != "first" {
		t.Fatalf("expected newest first, got %q .. %q", got[0].Text, got[2].Text)
	}
}

func TestLedgerLimit(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		msg := models.NewMessage(fmt.Sprintf("msg-%d", i), models.SenderUser)
		if err := s.AppendMessage(ctx, "u1", msg); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.RecentMessages(ctx, "u1", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(got))
	}
	if got[0].Text != "msg-4" || got[1].Text != "msg-3" {
		t.Fatalf("expected the two newest, got %q, %q", got[0].Text, got[1].Text)
	}
}

func TestLedgerEmptyUser(t *testing.T) {
	s, _ := newTestStore(t)

	got, err := s.RecentMessages(context.Background(), "nobody", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty ledger, got %d entries", len(got))
	}
}

func TestLedgerTTLRefreshed(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	if err := s.AppendMessage(ctx, "u1", models.NewMessage("hello", models.SenderUser)); err != nil {
		t.Fatal(err)
	}
	if ttl := mr.TTL(conversationKey("u1")); ttl != 24*time.Hour {
		t.Fatalf("expected 24h ledger TTL, got %v", ttl)
	}

	// Burn some time, append again, TTL must be back at full horizon.
	mr.FastForward(time.Hour)
	if err := s.AppendMessage(ctx, "u1", models.NewMessage("again", models.SenderUser)); err != nil {
		t.Fatal(err)
	}
	if ttl := mr.TTL(conversationKey("u1")); ttl != 24*time.Hour {
		t.Fatalf("expected TTL refreshed to 24h, got %v", ttl)
	}
}

func TestLedgerSkipsMalformedEntries(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	if err := s.AppendMessage(ctx, "u1", models.NewMessage("valid", models.SenderUser)); err != nil {
		t.Fatal(err)
	}
	mr.Lpush(conversationKey("u1"), "not json at all")

	got, err := s.RecentMessages(ctx, "u1", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Text != "valid" {
		t.Fatalf("expected only the valid entry, got %v", got)
	}
}

func TestDrainInPublishOrder(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	for _, text := range []string{"r1", "r2", "r3"} {
		if err := s.PublishResponse(ctx, "u1", models.NewMessage(text, models.SenderBot)); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.DrainResponses(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 responses, got %d", len(got))
	}
	for i, want := range []string{"r1", "r2", "r3"} {
		if got[i].Text != want {
			t.Fatalf("position %d: expected %q, got %q", i, want, got[i].Text)
		}
	}
}

func TestDrainIsDestructive(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	if err := s.PublishResponse(ctx, "u1", models.NewMessage("once", models.SenderBot)); err != nil {
		t.Fatal(err)
	}

	first, err := s.DrainResponses(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != 1 {
		t.Fatalf("expected 1 response, got %d", len(first))
	}

	second, err := s.DrainResponses(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(second) != 0 {
		t.Fatalf("second drain must be empty, got %d", len(second))
	}
}

func TestDrainLargeBacklog(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	// More than two pop batches.
	total := drainBatchSize*2 + 50
	for i := 0; i < total; i++ {
		if err := s.PublishResponse(ctx, "u1", models.NewMessage(fmt.Sprintf("r-%04d", i), models.SenderBot)); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.DrainResponses(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != total {
		t.Fatalf("expected %d responses, got %d", total, len(got))
	}
	for i, msg := range got {
		if want := fmt.Sprintf("r-%04d", i); msg.Text != want {
			t.Fatalf("position %d: expected %q, got %q", i, want, msg.Text)
		}
	}
}

func TestConcurrentDrainsPartition(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	total := drainBatchSize + 20
	for i := 0; i < total; i++ {
		if err := s.PublishResponse(ctx, "u1", models.NewMessage(fmt.Sprintf("r-%04d", i), models.SenderBot)); err != nil {
			t.Fatal(err)
		}
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	seen := make(map[string]int)

	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := s.DrainResponses(ctx, "u1")
			if err != nil {
				t.Error(err)
				return
			}
			mu.Lock()
			for _, msg := range got {
				seen[msg.Text]++
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(seen) != total {
		t.Fatalf("expected %d distinct responses across both drains, got %d", total, len(seen))
	}
	for text, n := range seen {
		if n != 1 {
			t.Fatalf("response %q delivered %d times", text, n)
		}
	}
}

func TestResponseTTLSet(t *testing.T) {
	s, mr := newTestStore(t)

	if err := s.PublishResponse(context.Background(), "u1", models.NewMessage("r", models.SenderBot)); err != nil {
		t.Fatal(err)
	}
	if ttl := mr.TTL(responseKey("u1")); ttl != time.Hour {
		t.Fatalf("expected 1h response TTL, got %v", ttl)
	}
}

func TestPendingCount(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	n, err := s.PendingCount(ctx, "u1")
	if err != nil || n != 0 {
		t.Fatalf("expected 0 pending, got %d (err %v)", n, err)
	}

	s.PublishResponse(ctx, "u1", models.NewMessage("a", models.SenderBot))
	s.PublishResponse(ctx, "u1", models.NewMessage("b", models.SenderBot))

	n, err = s.PendingCount(ctx, "u1")
	if err != nil || n != 2 {
		t.Fatalf("expected 2 pending, got %d (err %v)", n, err)
	}
}

func TestUsersAreIsolated(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	s.AppendMessage(ctx, "alice", models.NewMessage("mine", models.SenderUser))
	s.PublishResponse(ctx, "alice", models.NewMessage("for alice", models.SenderBot))

	msgs, err := s.RecentMessages(ctx, "bob", 10)
	if err != nil || len(msgs) != 0 {
		t.Fatalf("bob must not see alice's ledger: %v (err %v)", msgs, err)
	}
	resp, err := s.DrainResponses(ctx, "bob")
	if err != nil || len(resp) != 0 {
		t.Fatalf("bob must not drain alice's responses: %v (err %v)", resp, err)
	}
}

func TestJobQueueFIFO(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	for _, text := range []string{"job-1", "job-2"} {
		job := &models.Job{
			TargetAgent: "scheduler",
			Payload: models.JobPayload{
				Text:   text,
				Source: models.SourceWeb,
				UserID: "u1",
			},
		}
		if err := s.EnqueueJob(ctx, job); err != nil {
			t.Fatal(err)
		}
	}

	first, err := s.DequeueJob(ctx, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if first == nil || first.Payload.Text != "job-1" {
		t.Fatalf("expected job-1 first, got %+v", first)
	}

	second, err := s.DequeueJob(ctx, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if second == nil || second.Payload.Text != "job-2" {
		t.Fatalf("expected job-2 second, got %+v", second)
	}
}

func TestJobRoundTripPreservesPayload(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	ctxMsgs := []models.Message{
		*models.NewMessage("older", models.SenderUser),
		*models.NewMessage("newer", models.SenderUser),
	}
	job := &models.Job{
		TargetAgent: "journal",
		Payload: models.JobPayload{
			Text:    "newer",
			Source:  models.SourceWeb,
			UserID:  "u1",
			Context: ctxMsgs,
		},
	}
	if err := s.EnqueueJob(ctx, job); err != nil {
		t.Fatal(err)
	}

	got, err := s.DequeueJob(ctx, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if got.TargetAgent != "journal" || got.Payload.UserID != "u1" || got.Payload.Source != "web" {
		t.Fatalf("job fields lost in transit: %+v", got)
	}
	if len(got.Payload.Context) != 2 || got.Payload.Context[0].Text != "older" {
		t.Fatalf("context lost in transit: %+v", got.Payload.Context)
	}
}

func TestDequeueTimeout(t *testing.T) {
	s, _ := newTestStore(t)

	job, err := s.DequeueJob(context.Background(), 50*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if job != nil {
		t.Fatalf("expected nil job on empty queue, got %+v", job)
	}
}

func TestQueueDepth(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		job := &models.Job{TargetAgent: "archivist", Payload: models.JobPayload{Text: "x", Source: models.SourceWeb, UserID: "u1"}}
		if err := s.EnqueueJob(ctx, job); err != nil {
			t.Fatal(err)
		}
	}

	n, err := s.QueueDepth(ctx)
	if err != nil || n != 3 {
		t.Fatalf("expected depth 3, got %d (err %v)", n, err)
	}
}
