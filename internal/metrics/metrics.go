// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records the bridge's operational counters.
type Collector struct {
	callbackSuccess prometheus.Counter
	callbackFail    *prometheus.CounterVec
	refreshSuccess  prometheus.Counter
	refreshFail     *prometheus.CounterVec
	webhookEvents   *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		callbackSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "genuka_bridge_callback_success_total",
			Help: "Completed OAuth callback flows.",
		}),
		callbackFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "genuka_bridge_callback_fail_total",
			Help: "Failed OAuth callback flows by cause.",
		}, []string{"cause"}),
		refreshSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "genuka_bridge_refresh_success_total",
			Help: "Completed session refreshes.",
		}),
		refreshFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "genuka_bridge_refresh_fail_total",
			Help: "Failed session refreshes by cause.",
		}, []string{"cause"}),
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "genuka_bridge_webhook_events_total",
			Help: "Webhook events received by type.",
		}, []string{"type"}),
	}

	reg.MustRegister(
		c.callbackSuccess,
		c.callbackFail,
		c.refreshSuccess,
		c.refreshFail,
		c.webhookEvents,
	)

	return c
}

func (c *Collector) RecordCallbackSuccess() {
	c.callbackSuccess.Inc()
}

func (c *Collector) RecordCallbackFailure(cause string) {
	c.callbackFail.WithLabelValues(cause).Inc()
}

func (c *Collector) RecordRefreshSuccess() {
	c.refreshSuccess.Inc()
}

func (c *Collector) RecordRefreshFailure(cause string) {
	c.refreshFail.WithLabelValues(cause).Inc()
}

func (c *Collector) RecordWebhookEvent(eventType string) {
	c.webhookEvents.WithLabelValues(eventType).Inc()
}

// Handler returns the HTTP handler Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
