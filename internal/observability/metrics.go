package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce           sync.Once
	apiRequestsTotal       *prometheus.CounterVec
	apiLatencySeconds      *prometheus.HistogramVec
	apiErrorsTotal         *prometheus.CounterVec
	chatConnectionsActive  prometheus.Gauge
	chatMessagesTotal      *prometheus.CounterVec
	chatDeliveryFailures   prometheus.Counter
	presenceTransitions    *prometheus.CounterVec
	remindersDispatchTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used across the API
// and the realtime layer.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "campus_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "campus_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "campus_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		chatConnectionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "campus_chat_connections_active",
			Help: "Number of live websocket chat connections.",
		})

		chatMessagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "campus_chat_messages_total",
			Help: "Total number of chat messages broadcast, labelled by type.",
		}, []string{"type"})

		chatDeliveryFailures = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "campus_chat_delivery_failures_total",
			Help: "Per-subscriber live delivery handoffs that failed.",
		})

		presenceTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "campus_presence_transitions_total",
			Help: "Presence status transitions, labelled by resulting status.",
		}, []string{"status"})

		remindersDispatchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "campus_reminders_dispatched_total",
			Help: "Reminder dispatch attempts, labelled by outcome.",
		}, []string{"outcome"})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			chatConnectionsActive,
			chatMessagesTotal,
			chatDeliveryFailures,
			presenceTransitions,
			remindersDispatchTotal,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// ChatConnectionsActive exposes the live connection gauge.
func ChatConnectionsActive() prometheus.Gauge {
	RegisterMetrics()
	return chatConnectionsActive
}

// ChatMessagesSent exposes the chat message counter.
func ChatMessagesSent() *prometheus.CounterVec {
	RegisterMetrics()
	return chatMessagesTotal
}

// ChatDeliveryFailures exposes the failed-handoff counter.
func ChatDeliveryFailures() prometheus.Counter {
	RegisterMetrics()
	return chatDeliveryFailures
}

// PresenceTransitions exposes the presence transition counter.
func PresenceTransitions() *prometheus.CounterVec {
	RegisterMetrics()
	return presenceTransitions
}

// RemindersDispatched exposes the reminder dispatch counter.
func RemindersDispatched() *prometheus.CounterVec {
	RegisterMetrics()
	return remindersDispatchTotal
}
