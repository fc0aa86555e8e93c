// Package dispatch routes inbound user messages: casual text is answered
// immediately from the classifier's canned replies, everything else becomes a
// job for the external worker pool.
package dispatch

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mkierin/second-brain-web-interface/internal/metrics"
	"github.com/mkierin/second-brain-web-interface/internal/models"
	"github.com/mkierin/second-brain-web-interface/internal/routing"
	"github.com/mkierin/second-brain-web-interface/internal/store"
)

// AgentAuto is the sentinel clients send to request automatic routing.
const AgentAuto = "auto"

// ErrEmptyMessage rejects blank input before any side effect happens.
var ErrEmptyMessage = errors.New("message text is required")

// Options tunes the engine.
type Options struct {
	ContextSize  int    // ledger entries per job, oldest-first
	DefaultAgent string // target when classification cannot decide
}

// Engine is the dispatch core. Dispatch always records the user message in
// the ledger first; only then does it decide between the casual short-circuit
// and the worker queue.
type Engine struct {
	store        *store.RedisStore
	classifier   routing.Classifier
	logger       zerolog.Logger
	contextSize  int
	defaultAgent string
}

// NewEngine creates a dispatch engine.
func NewEngine(s *store.RedisStore, classifier routing.Classifier, logger zerolog.Logger, opts Options) *Engine {
	if opts.ContextSize <= 0 {
		opts.ContextSize = 6
	}
	if opts.DefaultAgent == "" {
		opts.DefaultAgent = "archivist"
	}
	return &Engine{
		store:        s,
		classifier:   classifier,
		logger:       logger,
		contextSize:  opts.ContextSize,
		defaultAgent: opts.DefaultAgent,
	}
}

// Dispatch validates the text, appends the user message to the ledger and
// either answers casually or enqueues a job for explicitAgent (or the routed
// agent when explicitAgent is empty or "auto"). The created user message is
// returned in every branch.
func (e *Engine) Dispatch(ctx context.Context, userID, text, explicitAgent string) (*models.Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}

	userMsg := models.NewMessage(text, models.SenderUser)
	if err := e.store.AppendMessage(ctx, userID, userMsg); err != nil {
		return nil, err
	}

	var target string
	if explicitAgent != "" && explicitAgent != AgentAuto {
		target = explicitAgent
	} else {
		d := e.classify(text)
		if d.casual {
			if err := e.replyCasual(ctx, userID, d.reply); err != nil {
				return nil, err
			}
			metrics.MessagesDispatched.WithLabelValues("casual").Inc()
			return userMsg, nil
		}
		target = d.agent
	}

	if err := e.enqueue(ctx, userID, text, target); err != nil {
		return nil, err
	}
	metrics.MessagesDispatched.WithLabelValues("queued").Inc()

	e.logger.Debug().
		Str("user_id", userID).
		Str("agent", target).
		Msg("job enqueued")

	return userMsg, nil
}

// decision is the outcome of one guarded classifier pass.
type decision struct {
	casual bool
	reply  string
	agent  string
}

// classify consults the classifier behind a recover so a misbehaving rule set
// can never take dispatch down; on failure the default agent handles the
// message and the error stays internal.
func (e *Engine) classify(text string) (d decision) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error().
				Interface("panic", r).
				Msg("classifier failed, routing to default agent")
			metrics.ClassifierFallbacks.Inc()
			d = decision{agent: e.defaultAgent}
		}
	}()

	if e.classifier.IsCasual(text) {
		return decision{casual: true, reply: e.classifier.CasualResponse(text)}
	}

	agent := e.classifier.Route(text)
	if agent == "" {
		agent = e.defaultAgent
	}
	return decision{agent: agent}
}

// replyCasual synthesizes the bot reply, records it in the ledger and makes
// it available to whichever delivery adapter the client reads next. No worker
// involvement.
func (e *Engine) replyCasual(ctx context.Context, userID, reply string) error {
	botMsg := models.NewMessage(reply, models.SenderBot)
	if err := e.store.AppendMessage(ctx, userID, botMsg); err != nil {
		return err
	}
	return e.store.PublishResponse(ctx, userID, botMsg)
}

// enqueue assembles the bounded conversation context and hands the job to the
// worker pool. The just-appended user message is always the newest context
// entry.
func (e *Engine) enqueue(ctx context.Context, userID, text, target string) error {
	recent, err := e.store.RecentMessages(ctx, userID, e.contextSize)
	if err != nil {
		return err
	}

	// Ledger order is newest-first; workers expect oldest-first.
	window := make([]models.Message, len(recent))
	for i, msg := range recent {
		window[len(recent)-1-i] = msg
	}

	job := &models.Job{
		TargetAgent: target,
		Payload: models.JobPayload{
			Text:    text,
			Source:  models.SourceWeb,
			UserID:  userID,
			Context: window,
		},
	}
	return e.store.EnqueueJob(ctx, job)
}
