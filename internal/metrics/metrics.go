// Package metrics exposes Prometheus instrumentation for upstream fetches,
// cache traffic, and alert evaluation cycles.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UpstreamFetches counts venue fetches by outcome. Source is "live" when
	// the upstream answered and "synthetic" when the deterministic fallback
	// was served instead.
	UpstreamFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "opinionhub_upstream_fetches_total",
			Help: "Total upstream fetches by venue, operation, and data source",
		},
		[]string{"venue", "op", "source"},
	)

	// CacheOps counts cache traffic: get hit/miss and set ok/error.
	CacheOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "opinionhub_cache_ops_total",
			Help: "Total cache operations by op and result",
		},
		[]string{"op", "result"},
	)

	// AlertsEvaluated counts rules examined by evaluation cycles.
	AlertsEvaluated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "opinionhub_alerts_evaluated_total",
			Help: "Total alert rules evaluated",
		},
	)

	// AlertsTriggered counts delivered alert notifications.
	AlertsTriggered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "opinionhub_alerts_triggered_total",
			Help: "Total alert rules that delivered a webhook notification",
		},
	)

	// AlertsSuppressed counts rules that hit their threshold while cooling.
	AlertsSuppressed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "opinionhub_alerts_suppressed_total",
			Help: "Total alert hits suppressed by cooldown",
		},
	)

	// CycleErrors counts isolated per-rule or per-step failures in worker
	// cycles.
	CycleErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "opinionhub_cycle_errors_total",
			Help: "Total isolated errors recorded during worker cycles",
		},
	)

	// WebhookDeliveries counts webhook POST attempts by result.
	WebhookDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "opinionhub_webhook_deliveries_total",
			Help: "Total webhook delivery attempts by result",
		},
		[]string{"result"},
	)
)
