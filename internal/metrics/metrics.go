package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobsearch_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "jobsearch_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Chat metrics
	MessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobsearch_chat_messages_sent_total",
			Help: "Total chat messages persisted",
		},
		[]string{"transport"}, // "http" or "socket"
	)

	ThreadsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jobsearch_chat_threads_created_total",
			Help: "Total conversation threads created",
		},
	)

	SendFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobsearch_chat_send_failures_total",
			Help: "Total rejected or failed sends",
		},
		[]string{"code"},
	)

	Broadcasts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobsearch_realtime_broadcasts_total",
			Help: "Total room broadcasts",
		},
		[]string{"event"},
	)

	DroppedFrames = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jobsearch_realtime_dropped_frames_total",
			Help: "Frames dropped because a connection's send buffer was full",
		},
	)

	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "jobsearch_realtime_connections",
			Help: "Currently open websocket connections",
		},
	)

	// Jobs metrics
	UsersRegistered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jobsearch_users_registered_total",
			Help: "Total users registered",
		},
	)

	ApplicationsSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jobsearch_applications_submitted_total",
			Help: "Total job applications submitted",
		},
	)

	ApplicationDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobsearch_application_status_changes_total",
			Help: "Total application status changes",
		},
		[]string{"status"},
	)

	CompaniesCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jobsearch_companies_created_total",
			Help: "Total companies registered",
		},
	)

	// Rate limit metrics
	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobsearch_rate_limit_hits_total",
			Help: "Total rate limit hits",
		},
		[]string{"endpoint"},
	)

	BlockedRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobsearch_blocked_requests_total",
			Help: "Total blocked requests",
		},
		[]string{"reason"},
	)

	// Infrastructure metrics
	StoreLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "jobsearch_store_latency_seconds",
			Help:    "Chat persistence call latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, 1},
		},
		[]string{"op"},
	)
)
