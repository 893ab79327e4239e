package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of the service. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	authAttemptsTotal    *prometheus.CounterVec
	swapTransitionsTotal *prometheus.CounterVec
	notificationsTotal   *prometheus.CounterVec
	messagesSentTotal    prometheus.Counter
	reviewsTotal         prometheus.Counter
	activeSessions       prometheus.Gauge
	websocketConnections prometheus.Gauge
}

// New creates and registers all collectors on reg.
func New(reg prometheus.Registerer, serviceName string) *Metrics {
	f := promauto.With(reg)
	labels := prometheus.Labels{"service": serviceName}
	return &Metrics{
		httpRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests",
			ConstLabels: labels,
		}, []string{"method", "route", "status"}),
		httpRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request latency in seconds",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method", "route"}),
		authAttemptsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name:        "skillswap_auth_attempts_total",
			Help:        "Login and registration attempts by outcome",
			ConstLabels: labels,
		}, []string{"op", "result"}),
		swapTransitionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name:        "skillswap_swap_transitions_total",
			Help:        "Swap requests entering each status",
			ConstLabels: labels,
		}, []string{"status"}),
		notificationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name:        "skillswap_notifications_created_total",
			Help:        "Notifications created by type",
			ConstLabels: labels,
		}, []string{"type"}),
		messagesSentTotal: f.NewCounter(prometheus.CounterOpts{
			Name:        "skillswap_messages_sent_total",
			Help:        "Chat messages sent",
			ConstLabels: labels,
		}),
		reviewsTotal: f.NewCounter(prometheus.CounterOpts{
			Name:        "skillswap_reviews_submitted_total",
			Help:        "Reviews submitted for completed swaps",
			ConstLabels: labels,
		}),
		activeSessions: f.NewGauge(prometheus.GaugeOpts{
			Name:        "skillswap_active_sessions",
			Help:        "Signed-in HTTP sessions held in memory",
			ConstLabels: labels,
		}),
		websocketConnections: f.NewGauge(prometheus.GaugeOpts{
			Name:        "skillswap_websocket_connections",
			Help:        "Open event-stream connections",
			ConstLabels: labels,
		}),
	}
}

func (m *Metrics) RecordHTTPRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) RecordAuthAttempt(op string, ok bool) {
	if m == nil {
		return
	}
	result := "failure"
	if ok {
		result = "success"
	}
	m.authAttemptsTotal.WithLabelValues(op, result).Inc()
}

func (m *Metrics) RecordSwapTransition(status string) {
	if m == nil {
		return
	}
	m.swapTransitionsTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordNotification(kind string) {
	if m == nil {
		return
	}
	m.notificationsTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) RecordMessageSent() {
	if m == nil {
		return
	}
	m.messagesSentTotal.Inc()
}

func (m *Metrics) RecordReview() {
	if m == nil {
		return
	}
	m.reviewsTotal.Inc()
}

func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(n))
}

func (m *Metrics) WebsocketConnected() {
	if m == nil {
		return
	}
	m.websocketConnections.Inc()
}

func (m *Metrics) WebsocketDisconnected() {
	if m == nil {
		return
	}
	m.websocketConnections.Dec()
}
