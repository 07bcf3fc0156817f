package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		plansCreatedTotal,
		intentsTotal,
		subscriptionsStartedTotal,
		subscriptionsCancelledTotal,
		paymentsTotal,
		systemPaused,
	)
}

var (
	plansCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_plans_created_total",
			Help: "Total number of subscription plans created.",
		},
	)

	intentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_intents_total",
			Help: "Payment intents by transition (created/completed/expired/cancelled).",
		},
		[]string{"status"},
	)

	subscriptionsStartedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_subscriptions_started_total",
			Help: "Subscriptions created, by path (direct/intent).",
		},
		[]string{"path"},
	)

	subscriptionsCancelledTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_subscriptions_cancelled_total",
			Help: "Total number of subscriptions cancelled.",
		},
	)

	paymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_payments_total",
			Help: "Payment records appended, by method and status.",
		},
		[]string{"method", "status"},
	)

	systemPaused = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ledger_system_paused",
			Help: "1 while the registry pause flag is set, 0 otherwise.",
		},
	)
)

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func IncPlanCreated() { plansCreatedTotal.Inc() }

func IncIntent(status string) { intentsTotal.WithLabelValues(norm(status)).Inc() }

func IncSubscriptionStarted(path string) {
	subscriptionsStartedTotal.WithLabelValues(norm(path)).Inc()
}

func IncSubscriptionCancelled() { subscriptionsCancelledTotal.Inc() }

func IncPayment(method, status string) {
	paymentsTotal.WithLabelValues(norm(method), norm(status)).Inc()
}

func SetPaused(paused bool) {
	if paused {
		systemPaused.Set(1)
		return
	}
	systemPaused.Set(0)
}
