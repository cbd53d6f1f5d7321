package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	payproRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paypro_requests_total",
			Help: "Payment protocol requests by protocol, phase and outcome",
		},
		[]string{"protocol", "phase", "status"},
	)

	broadcastFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broadcast_fallbacks_total",
			Help: "Broadcast failures resolved by the existence fallback",
		},
		[]string{"network"},
	)

	paymentsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_completed_total",
			Help: "Invoices transitioned to paid, by origin event kind",
		},
		[]string{"origin"},
	)

	liveSubscriptions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "live_subscriptions_total",
			Help: "Currently registered invoice status subscriptions",
		},
	)
)

// TrackPayproRequest counts one protocol request.
func TrackPayproRequest(protocol, phase, status string) {
	payproRequests.WithLabelValues(protocol, phase, status).Inc()
}

// TrackBroadcastFallback counts a resubmission resolved by lookup.
func TrackBroadcastFallback(network string) {
	broadcastFallbacks.WithLabelValues(network).Inc()
}

// TrackPaymentCompleted counts a paid invoice.
func TrackPaymentCompleted(origin string) {
	paymentsCompleted.WithLabelValues(origin).Inc()
}

// SetLiveSubscriptions reports the live-status subscriber count.
func SetLiveSubscriptions(n int) {
	liveSubscriptions.Set(float64(n))
}
