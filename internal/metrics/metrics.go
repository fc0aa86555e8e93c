package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "brainweb_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "brainweb_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Dispatch metrics
	MessagesDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "brainweb_messages_dispatched_total",
			Help: "Total user messages dispatched",
		},
		[]string{"path"}, // "casual" or "queued"
	)

	JobsEnqueued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "brainweb_jobs_enqueued_total",
			Help: "Total jobs handed to the worker pool",
		},
		[]string{"agent"},
	)

	ClassifierFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "brainweb_classifier_fallbacks_total",
			Help: "Total routing decisions recovered via the default agent",
		},
	)

	// Delivery metrics
	ResponsesDelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "brainweb_responses_delivered_total",
			Help: "Total bot responses handed to clients",
		},
		[]string{"adapter"}, // "poll" or "stream"
	)

	StreamConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "brainweb_stream_connections",
			Help: "Currently open stream connections",
		},
	)

	// Auth metrics
	Logins = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "brainweb_logins_total",
			Help: "Total login attempts",
		},
		[]string{"outcome"}, // "success" or "failure"
	)

	// Rate limit metrics
	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "brainweb_rate_limit_hits_total",
			Help: "Total rate limit hits",
		},
		[]string{"endpoint"},
	)

	// Infrastructure metrics
	RedisLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "brainweb_redis_latency_seconds",
			Help:    "Redis operation latency",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05},
		},
	)
)
