package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	WebhookEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stickershop_webhook_events_total",
			Help: "Payment processor webhook deliveries by event type and outcome",
		},
		[]string{"type", "result"},
	)

	OnchainVerifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stickershop_onchain_verifications_total",
			Help: "On-chain payment verifications by outcome",
		},
		[]string{"result"},
	)

	OrdersPaid = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stickershop_orders_paid_total",
			Help: "Orders moved into paid, by provider",
		},
		[]string{"provider"},
	)

	Notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stickershop_notifications_total",
			Help: "Paid-order notifications by delivery route",
		},
		[]string{"route"},
	)

	PollerUpdates = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stickershop_poller_updates_total",
			Help: "Inbound bot updates processed by the identity poller",
		},
	)

	PollerErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stickershop_poller_errors_total",
			Help: "Failed long-poll calls",
		},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stickershop_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method", "status"},
	)
)

// Register registers all collectors with the default registry.
func Register() {
	prometheus.MustRegister(WebhookEvents)
	prometheus.MustRegister(OnchainVerifications)
	prometheus.MustRegister(OrdersPaid)
	prometheus.MustRegister(Notifications)
	prometheus.MustRegister(PollerUpdates)
	prometheus.MustRegister(PollerErrors)
	prometheus.MustRegister(HTTPRequestDuration)
}
