// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lost_persons_http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lost_persons_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	NotificationsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lost_persons_notifications_created_total",
			Help: "Notifications persisted, by kind",
		},
		[]string{"kind"},
	)

	NotificationFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lost_persons_notification_failures_total",
			Help: "Notifications that could not be persisted, by kind",
		},
		[]string{"kind"},
	)

	BroadcastDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lost_persons_broadcast_duration_seconds",
			Help:    "Time to fan a new-report notification out to all users",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	OutboxEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lost_persons_outbox_events_total",
			Help: "Outbox events handled by the worker, by type and result",
		},
		[]string{"event_type", "result"},
	)

	MessagesSentTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lost_persons_messages_sent_total",
			Help: "Messages appended to conversations",
		},
	)

	ConversationsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lost_persons_conversations_created_total",
			Help: "Conversations created",
		},
	)

	RateLimitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lost_persons_rate_limited_total",
			Help: "Requests rejected by the rate limiter, by scope",
		},
		[]string{"scope"},
	)
)

func RecordHTTPRequest(method, route string, status int, elapsed time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func RecordNotification(kind string, err error) {
	if err != nil {
		NotificationFailuresTotal.WithLabelValues(kind).Inc()
		return
	}
	NotificationsCreatedTotal.WithLabelValues(kind).Inc()
}

func RecordOutboxEvent(eventType, result string) {
	OutboxEventsTotal.WithLabelValues(eventType, result).Inc()
}
