// Package metrics содержит метрики Prometheus для оплаты и вызовов провайдера.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CheckoutTotal число оформлений по режиму и результату.
	CheckoutTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "medico",
		Subsystem: "billing",
		Name:      "checkout_total",
		Help:      "Checkout submissions by mode and outcome.",
	}, []string{"mode", "outcome"})

	// SubscriptionChanges изменения подписок: смена карты, отмена.
	SubscriptionChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "medico",
		Subsystem: "billing",
		Name:      "subscription_changes_total",
		Help:      "Subscription changes by action and outcome.",
	}, []string{"action", "outcome"})

	// ProviderDuration длительность вызовов платежного провайдера.
	ProviderDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "medico",
		Subsystem: "stripe",
		Name:      "request_duration_seconds",
		Help:      "Payment provider call latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation", "outcome"})

	// Signups число регистраций по типу профиля.
	Signups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "medico",
		Subsystem: "users",
		Name:      "signups_total",
		Help:      "Signups by profile kind and outcome.",
	}, []string{"kind", "outcome"})
)

// Outcome метка результата по ошибке.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveProvider записывает длительность вызова провайдера с момента start.
func ObserveProvider(operation string, start time.Time, err error) {
	ProviderDuration.WithLabelValues(operation, Outcome(err)).Observe(time.Since(start).Seconds())
}
