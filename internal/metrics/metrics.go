package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	webhookRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pnptv",
			Name:      "webhook_requests_total",
			Help:      "Webhook requests by provider and outcome.",
		},
		[]string{"provider", "outcome"},
	)

	botUpdates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pnptv",
			Name:      "bot_updates_total",
			Help:      "Telegram updates by kind.",
		},
		[]string{"kind"},
	)

	bookingTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pnptv",
			Name:      "booking_transitions_total",
			Help:      "Booking status transitions.",
		},
		[]string{"to_status"},
	)

	refundTasks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pnptv",
			Name:      "refund_tasks_total",
			Help:      "Refund task outcomes.",
		},
		[]string{"outcome"},
	)

	heldSlots = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "pnptv",
			Name:      "held_slots",
			Help:      "Slots currently under an active hold.",
		},
	)

	recoveredPanics = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pnptv",
			Name:      "recovered_panics_total",
			Help:      "Panics recovered in the bot update loop.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			webhookRequests,
			botUpdates,
			bookingTransitions,
			refundTasks,
			heldSlots,
			recoveredPanics,
		)
	})
}

// IncWebhook counts an inbound provider callback.
func IncWebhook(provider, outcome string) {
	webhookRequests.WithLabelValues(provider, outcome).Inc()
}

// IncUpdate counts a handled Telegram update.
func IncUpdate(kind string) {
	botUpdates.WithLabelValues(kind).Inc()
}

// IncTransition counts a booking status transition.
func IncTransition(toStatus string) {
	bookingTransitions.WithLabelValues(toStatus).Inc()
}

// IncRefundTask counts a refund worker outcome.
func IncRefundTask(outcome string) {
	refundTasks.WithLabelValues(outcome).Inc()
}

// SetHeldSlots records the current number of live holds.
func SetHeldSlots(n float64) {
	heldSlots.Set(n)
}

// IncPanic counts a recovered panic.
func IncPanic() {
	recoveredPanics.Inc()
}
