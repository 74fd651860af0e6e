package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Stream metrics
var (
	StreamMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "camwatch_stream_messages_total",
			Help: "Total number of stream messages processed",
		},
		[]string{"topic", "status"}, // status: "ok", "malformed"
	)

	StreamReconnectsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "camwatch_stream_reconnects_total",
			Help: "Total number of reconnection attempts",
		},
	)

	StreamConnectionPhase = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "camwatch_stream_connection_phase",
			Help: "Current connection phase (1 for the active phase, 0 otherwise)",
		},
		[]string{"phase"}, // "connecting", "connected", "reconnecting"
	)

	StreamConnectedSince = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "camwatch_stream_connected_since_timestamp",
			Help: "Timestamp of the last successful connect, 0 while disconnected",
		},
	)
)

// Compositor metrics
var (
	FramesRenderedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "camwatch_frames_rendered_total",
			Help: "Total number of frames composited per camera",
		},
		[]string{"camera"},
	)

	FrameDecodeFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "camwatch_frame_decode_failures_total",
			Help: "Total number of frames skipped because the image payload failed to decode",
		},
	)

	FrameRenderDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "camwatch_frame_render_duration_seconds",
			Help:    "Time to decode and composite one frame",
			Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		},
	)
)

// State metrics
var (
	LedgerSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "camwatch_ledger_size",
			Help: "Current number of identity match records in the ledger",
		},
	)

	CamerasKnown = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "camwatch_cameras_known",
			Help: "Number of cameras discovered this session",
		},
	)

	AlertActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "camwatch_alert_active",
			Help: "1 while the global alert level is raised, 0 otherwise",
		},
	)
)

// Session persistence metrics
var (
	SessionPersistErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "camwatch_session_persist_errors_total",
			Help: "Total number of failed session-state writes",
		},
		[]string{"blob"}, // "cameras", "ledger"
	)

	SessionPersistDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "camwatch_session_persist_duration_seconds",
			Help:    "Session-state write duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
		},
		[]string{"blob"},
	)
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "camwatch_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "camwatch_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)
