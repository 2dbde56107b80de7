package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kuriftu_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kuriftu_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Business metrics
	MessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kuriftu_messages_sent_total",
			Help: "Total chat messages persisted",
		},
		[]string{"author"}, // "guest" or "admin"
	)

	FeedbackSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kuriftu_feedback_submitted_total",
			Help: "Total one-time feedback records",
		},
	)

	PushDeliveries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kuriftu_push_deliveries_total",
			Help: "Total messages delivered through the push channel",
		},
	)

	SessionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "kuriftu_chat_sessions_open",
			Help: "Chat sessions currently attached to a room",
		},
	)

	// Rate limit metrics
	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kuriftu_rate_limit_hits_total",
			Help: "Total rate limit hits",
		},
		[]string{"endpoint"},
	)
)
