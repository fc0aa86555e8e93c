package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mkierin/second-brain-web-interface/internal/metrics"
	"github.com/mkierin/second-brain-web-interface/internal/models"
)

// ErrUnavailable wraps Redis errors so callers can treat any storage failure
// as one condition.
var ErrUnavailable = errors.New("message store unavailable")

// drainBatchSize bounds how many entries a single LPOP takes. Each batch is
// atomic, so concurrent drains partition the queue without overlap.
const drainBatchSize = 100

const (
	defaultTaskQueue   = "brain:tasks"
	defaultLedgerTTL   = 24 * time.Hour
	defaultResponseTTL = time.Hour
)

// RedisOptions configures queue naming and retention.
type RedisOptions struct {
	TaskQueue   string        // shared job list consumed by the worker pool
	LedgerTTL   time.Duration // conversation log retention, refreshed on append
	ResponseTTL time.Duration // pending response retention, refreshed on publish
}

// RedisStore holds the conversation ledger, the per-user response channels and
// the shared task queue. Every mutation is a single list primitive (optionally
// pipelined with its EXPIRE), never a caller-side read-modify-write, so
// correctness under concurrent requests comes from Redis itself.
type RedisStore struct {
	client      *redis.Client
	taskQueue   string
	ledgerTTL   time.Duration
	responseTTL time.Duration
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, redisURL string, opts RedisOptions) (*RedisStore, error) {
	parsed, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(parsed)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	if opts.TaskQueue == "" {
		opts.TaskQueue = defaultTaskQueue
	}
	if opts.LedgerTTL <= 0 {
		opts.LedgerTTL = defaultLedgerTTL
	}
	if opts.ResponseTTL <= 0 {
		opts.ResponseTTL = defaultResponseTTL
	}

	return &RedisStore{
		client:      client,
		taskQueue:   opts.TaskQueue,
		ledgerTTL:   opts.LedgerTTL,
		responseTTL: opts.ResponseTTL,
	}, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Client exposes the underlying client for middleware that shares the
// connection (rate limiting).
func (s *RedisStore) Client() *redis.Client {
	return s.client
}

// conversationKey returns the key for a user's conversation ledger.
func conversationKey(userID string) string {
	return fmt.Sprintf("conversation:%s", userID)
}

// responseKey returns the key for a user's pending response channel. The
// worker pool publishes results under the same key shape.
func responseKey(userID string) string {
	return fmt.Sprintf("response:%s", userID)
}

// AppendMessage prepends a message to the user's conversation ledger and
// refreshes the whole log's retention horizon. Newest entries sit at the head.
func (s *RedisStore) AppendMessage(ctx context.Context, userID string, msg *models.Message) error {
	defer observeLatency(time.Now())

	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	key := conversationKey(userID)
	pipe := s.client.Pipeline()
	pipe.LPush(ctx, key, data)
	pipe.Expire(ctx, key, s.ledgerTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// RecentMessages returns up to limit ledger entries for the user, newest
// first (physical order). Callers needing chronological order must reverse.
func (s *RedisStore) RecentMessages(ctx context.Context, userID string, limit int) ([]models.Message, error) {
	defer observeLatency(time.Now())

	if limit <= 0 {
		limit = 50
	}

	results, err := s.client.LRange(ctx, conversationKey(userID), 0, int64(limit)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	messages := make([]models.Message, 0, len(results))
	for _, data := range results {
		var msg models.Message
		if err := json.Unmarshal([]byte(data), &msg); err != nil {
			continue
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// PublishResponse appends a bot message to the user's response channel and
// refreshes its retention horizon. RPUSH keeps drain order equal to publish
// order.
func (s *RedisStore) PublishResponse(ctx context.Context, userID string, msg *models.Message) error {
	defer observeLatency(time.Now())

	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	key := responseKey(userID)
	pipe := s.client.Pipeline()
	pipe.RPush(ctx, key, data)
	pipe.Expire(ctx, key, s.responseTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// DrainResponses removes and returns everything currently queued for the
// user, in publish order. Entries are popped in atomic batches, so two
// concurrent drains split the queue between them but never duplicate or drop
// an entry.
func (s *RedisStore) DrainResponses(ctx context.Context, userID string) ([]models.Message, error) {
	defer observeLatency(time.Now())

	key := responseKey(userID)
	messages := make([]models.Message, 0)
	for {
		batch, err := s.client.LPopCount(ctx, key, drainBatchSize).Result()
		if errors.Is(err, redis.Nil) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		for _, data := range batch {
			var msg models.Message
			if err := json.Unmarshal([]byte(data), &msg); err != nil {
				continue
			}
			messages = append(messages, msg)
		}
		if len(batch) < drainBatchSize {
			break
		}
	}
	return messages, nil
}

// PendingCount returns how many responses are queued for the user.
func (s *RedisStore) PendingCount(ctx context.Context, userID string) (int64, error) {
	n, err := s.client.LLen(ctx, responseKey(userID)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return n, nil
}

// EnqueueJob pushes a serialized job onto the shared task queue. Workers
// consume with BRPOP, so LPUSH here preserves FIFO processing order.
func (s *RedisStore) EnqueueJob(ctx context.Context, job *models.Job) error {
	defer observeLatency(time.Now())

	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	if err := s.client.LPush(ctx, s.taskQueue, data).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	metrics.JobsEnqueued.WithLabelValues(job.TargetAgent).Inc()
	return nil
}

// DequeueJob blocks up to timeout for the next job, oldest first. This is the
// worker pool's side of the queue contract; the web process itself never
// consumes. Returns (nil, nil) when the timeout elapses with no job.
func (s *RedisStore) DequeueJob(ctx context.Context, timeout time.Duration) (*models.Job, error) {
	result, err := s.client.BRPop(ctx, timeout, s.taskQueue).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	// BRPOP returns [key, value].
	if len(result) != 2 {
		return nil, fmt.Errorf("%w: unexpected BRPOP reply", ErrUnavailable)
	}

	var job models.Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// QueueDepth returns the number of jobs waiting for a worker.
func (s *RedisStore) QueueDepth(ctx context.Context) (int64, error) {
	n, err := s.client.LLen(ctx, s.taskQueue).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return n, nil
}

func observeLatency(start time.Time) {
	metrics.RedisLatency.Observe(time.Since(start).Seconds())
}
