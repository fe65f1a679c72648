package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studiopass_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "studiopass_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	RegistrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studiopass_registrations_total",
			Help: "Total number of transaction registrations with the payment processor",
		},
		[]string{"result"},
	)

	WebhookNotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studiopass_webhook_notifications_total",
			Help: "Total number of processor webhook notifications by outcome",
		},
		[]string{"outcome"},
	)

	SettlementsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "studiopass_settlements_total",
			Help: "Total number of payments settled (PENDING to COMPLETED)",
		},
	)

	LostGrantsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "studiopass_lost_grants_total",
			Help: "Settled payments whose entitlement could not be granted (missing or unknown package)",
		},
	)

	AutoEnrollmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studiopass_auto_enrollments_total",
			Help: "Total number of auto-enrollment attempts after settlement",
		},
		[]string{"result"},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordRegistration(result string) {
	RegistrationsTotal.WithLabelValues(result).Inc()
}

func RecordWebhookNotification(outcome string) {
	WebhookNotificationsTotal.WithLabelValues(outcome).Inc()
}

func RecordSettlement() {
	SettlementsTotal.Inc()
}

func RecordLostGrant() {
	LostGrantsTotal.Inc()
}

func RecordAutoEnrollment(result string) {
	AutoEnrollmentsTotal.WithLabelValues(result).Inc()
}
