// internal/notification/metrics.go

package notification

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var deliveries = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "vibes_notification_deliveries_total",
		Help: "Notification deliveries by channel and outcome",
	},
	[]string{"channel", "outcome"},
)

var staleTokens = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "vibes_push_tokens_deactivated_total",
		Help: "Push tokens deactivated after the provider reported them unregistered",
	},
)

func recordDelivery(channel Channel, err error) {
	outcome := "sent"
	if err != nil {
		outcome = "failed"
	}
	deliveries.WithLabelValues(string(channel), outcome).Inc()
}

func recordSkipped(channel Channel) {
	deliveries.WithLabelValues(string(channel), "skipped").Inc()
}
